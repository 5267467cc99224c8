// Package bus is the publish/subscribe channel between the editor core and
// its presentation layer. A Bus is constructed explicitly and handed to every
// component that publishes or listens; there is no process-wide instance.
//
// Delivery is synchronous: Publish returns after every handler registered for
// the message's topic has run, in registration order.
package bus

import (
	"log/slog"
	"slices"
	"sync"
)

type Handler func(Message)

// Subscription identifies one registered handler.
type Subscription struct {
	topic Topic
	id    uint64
}

type subscriber struct {
	id      uint64
	handler Handler
}

type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic][]subscriber
	nextID uint64
	logger *slog.Logger
}

func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[Topic][]subscriber),
		logger: logger,
	}
}

// Subscribe registers h for messages on topic.
func (b *Bus) Subscribe(topic Topic, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[topic] = append(b.subs[topic], subscriber{id: b.nextID, handler: h})
	return Subscription{topic: topic, id: b.nextID}
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (b *Bus) Unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[s.topic]
	i := slices.IndexFunc(list, func(sub subscriber) bool { return sub.id == s.id })
	if i < 0 {
		return
	}
	// Copy so a Publish iterating the old slice is unaffected.
	b.subs[s.topic] = slices.Delete(slices.Clone(list), i, i+1)
}

// Publish delivers msg to the handlers registered for its topic. Handlers may
// subscribe or unsubscribe while being called; the change applies from the
// next Publish.
func (b *Bus) Publish(msg Message) {
	b.mu.RLock()
	list := b.subs[msg.Topic()]
	b.mu.RUnlock()

	for _, sub := range list {
		sub.handler(msg)
	}
}

// Subscribers reports how many handlers listen on topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Listen registers a typed handler. The topic is taken from T.
func Listen[T Message](b *Bus, fn func(T)) Subscription {
	var zero T
	return b.Subscribe(zero.Topic(), func(m Message) {
		msg, ok := m.(T)
		if !ok {
			b.logger.Warn("bus message type mismatch", "topic", m.Topic())
			return
		}
		fn(msg)
	})
}

// SubscribeAll registers h on every topic and returns the subscriptions.
func (b *Bus) SubscribeAll(h Handler) []Subscription {
	subs := make([]Subscription, 0, len(AllTopics))
	for _, topic := range AllTopics {
		subs = append(subs, b.Subscribe(topic, h))
	}
	return subs
}
