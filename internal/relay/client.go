package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/inamate/rig/internal/bus"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Client is one websocket connection receiving bus notifications.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	ID     string
	Editor string

	mu     sync.RWMutex
	topics map[bus.Topic]bool // nil means every topic
}

func newClient(hub *Hub, conn *websocket.Conn, id, editor string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: hub.logger.With("client", id),
		ID:     id,
		Editor: editor,
	}
}

func (c *Client) wants(topic bus.Topic) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics == nil || c.topics[topic]
}

// Topics returns the client's filter, sorted as bus.AllTopics.
func (c *Client) Topics() []string {
	out := make([]string, 0, len(bus.AllTopics))
	for _, t := range bus.AllTopics {
		if c.wants(t) {
			out = append(out, string(t))
		}
	}
	return out
}

func (c *Client) setTopics(topics []string) error {
	if len(topics) == 0 {
		c.mu.Lock()
		c.topics = nil
		c.mu.Unlock()
		return nil
	}
	known := make(map[bus.Topic]bool, len(bus.AllTopics))
	for _, t := range bus.AllTopics {
		known[t] = true
	}
	filter := make(map[bus.Topic]bool, len(topics))
	for _, t := range topics {
		if !known[bus.Topic(t)] {
			return &unknownTopicError{topic: t}
		}
		filter[bus.Topic(t)] = true
	}
	c.mu.Lock()
	c.topics = filter
	c.mu.Unlock()
	return nil
}

type unknownTopicError struct{ topic string }

func (e *unknownTopicError) Error() string { return "unknown topic " + e.topic }

// ReadPump reads client frames until the connection closes. It unregisters
// the client on return.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			c.logger.Debug("read error", "error", err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("invalid message", "error", err)
			c.sendError("invalid message")
			continue
		}
		c.handle(&msg)
	}
}

func (c *Client) handle(msg *Message) {
	switch msg.Type {
	case TypeSubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError("invalid subscribe payload")
			return
		}
		if err := c.setTopics(p.Topics); err != nil {
			c.sendError(err.Error())
			return
		}
		c.logger.Debug("client subscribed", "topics", p.Topics)
	default:
		c.logger.Warn("unknown message type", "type", msg.Type)
		c.sendError("unknown message type " + msg.Type)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.logger.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg. Called with the hub's read lock held, so the channel
// cannot be closed underneath it.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("marshal message", "error", err)
		return
	}
	c.enqueue(data)
}

func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		c.logger.Warn("client send buffer full, dropping message")
	}
}

func (c *Client) sendError(text string) {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.hub.clients[c.ID] != c {
		return
	}
	c.Send(&Message{Type: TypeError, Payload: payload})
}
