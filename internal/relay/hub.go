// Package relay streams editor notifications from the bus to websocket
// clients. Delivery is best effort: a slow client drops frames rather than
// holding up the publisher.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/inamate/rig/internal/auth"
	"github.com/inamate/rig/internal/bus"
)

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // client id -> client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	bus      *bus.Bus
	subs     []bus.Subscription
	seq      atomic.Int64
	document func() string
	origins  []string
	logger   *slog.Logger
}

// NewHub subscribes a hub to every topic on b. document reports the id of
// the open document for the welcome frame.
func NewHub(b *bus.Bus, document func() string, origins []string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		bus:        b,
		document:   document,
		origins:    origins,
		logger:     logger,
	}
	h.subs = b.SubscribeAll(h.broadcast)
	return h
}

// Run serves registrations until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	for _, s := range h.subs {
		h.bus.Unsubscribe(s)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

// Register hands a client to the hub. It reports false once the hub stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Clients reports how many clients are connected.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	payload, _ := json.Marshal(WelcomePayload{
		ClientID: client.ID,
		Document: h.document(),
		Editor:   client.Editor,
		Topics:   client.Topics(),
	})
	h.mu.RLock()
	client.Send(&Message{Type: TypeWelcome, ClientID: client.ID, Payload: payload})
	h.mu.RUnlock()

	h.logger.Info("client joined", "client", client.ID, "editor", client.Editor)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.ID] != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	close(client.send)
	h.mu.Unlock()

	h.logger.Info("client left", "client", client.ID)
}

func (h *Hub) broadcast(m bus.Message) {
	payload, err := json.Marshal(m)
	if err != nil {
		h.logger.Error("marshal notification", "error", err, "topic", m.Topic())
		return
	}
	data, err := json.Marshal(Message{
		Type:    string(m.Topic()),
		Seq:     h.seq.Add(1),
		Payload: payload,
	})
	if err != nil {
		h.logger.Error("marshal frame", "error", err, "topic", m.Topic())
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.wants(m.Topic()) {
			c.enqueue(data)
		}
	}
}

// ServeHTTP upgrades the request and streams notifications until the client
// disconnects. The editor name comes from the request's session, if any.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Error("websocket accept", "error", err)
		return
	}

	var editor string
	if s, ok := auth.SessionFromContext(r.Context()); ok {
		editor = s.Editor
	}
	client := newClient(h, conn, uuid.New().String(), editor)
	if !h.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
