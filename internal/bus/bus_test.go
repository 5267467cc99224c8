package bus

import (
	"encoding/json"
	"testing"
)

func TestPublishInRegistrationOrder(t *testing.T) {
	b := New(nil)
	var order []int
	b.Subscribe(TopicHistoryCursorChanged, func(Message) { order = append(order, 1) })
	b.Subscribe(TopicHistoryCursorChanged, func(Message) { order = append(order, 2) })
	b.Subscribe(TopicHistoryItemCommitted, func(Message) { order = append(order, 99) })

	b.Publish(HistoryCursorChanged{Version: 3})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New(nil)
	calls := 0
	sub := b.Subscribe(TopicNodeAdded, func(Message) { calls++ })
	b.Publish(NodeAdded{Node: 1})
	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Publish(NodeAdded{Node: 2})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n := b.Subscribers(TopicNodeAdded); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	b := New(nil)
	var second Subscription
	calls := 0
	b.Subscribe(TopicNodeRemoved, func(Message) {
		calls++
		b.Unsubscribe(second)
	})
	second = b.Subscribe(TopicNodeRemoved, func(Message) { calls++ })

	b.Publish(NodeRemoved{Node: 1})
	if calls != 2 {
		t.Fatalf("first publish calls = %d, want 2", calls)
	}
	b.Publish(NodeRemoved{Node: 1})
	if calls != 3 {
		t.Fatalf("second publish calls = %d, want 3", calls)
	}
}

func TestListenTyped(t *testing.T) {
	b := New(nil)
	var got HistoryItemCommitted
	Listen(b, func(m HistoryItemCommitted) { got = m })

	b.Publish(HistoryItemCommitted{Version: 4, Label: "Move bone"})
	if got.Version != 4 || got.Label != "Move bone" {
		t.Errorf("got %+v", got)
	}
}

func TestSubscribeAll(t *testing.T) {
	b := New(nil)
	var topics []Topic
	subs := b.SubscribeAll(func(m Message) { topics = append(topics, m.Topic()) })
	if len(subs) != len(AllTopics) {
		t.Fatalf("subs = %d", len(subs))
	}
	b.Publish(BulkUpdateFinished{})
	b.Publish(DocumentDirtyChanged{Dirty: true})
	if len(topics) != 2 || topics[0] != TopicBulkUpdateFinished {
		t.Errorf("topics = %v", topics)
	}
}

func TestEncodeEnvelope(t *testing.T) {
	data, err := Encode(NodeTransformChanged{Node: 7, BulkUpdate: true})
	if err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != TopicNodeTransformChanged {
		t.Errorf("type = %q", env.Type)
	}
	var payload NodeTransformChanged
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Node != 7 || !payload.BulkUpdate {
		t.Errorf("payload = %+v", payload)
	}
}
