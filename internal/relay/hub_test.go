package relay

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/inamate/rig/internal/auth"
	"github.com/inamate/rig/internal/bus"
)

type testRelay struct {
	bus    *bus.Bus
	hub    *Hub
	server *httptest.Server
	stop   context.CancelFunc
	done   chan error
}

func newTestRelay(t *testing.T) *testRelay {
	t.Helper()
	b := bus.New(nil)
	hub := NewHub(b, func() string { return "doc_test" }, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	r := &testRelay{bus: b, hub: hub, server: httptest.NewServer(hub), stop: cancel, done: done}
	t.Cleanup(func() {
		r.stop()
		<-r.done
		r.server.Close()
	})
	return r
}

func (r *testRelay) dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func write(t *testing.T, conn *websocket.Conn, msg Message) {
	t.Helper()
	data, _ := json.Marshal(msg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWelcomeAndBroadcast(t *testing.T) {
	r := newTestRelay(t)
	conn := r.dial(t, r.server.URL)

	welcome := read(t, conn)
	if welcome.Type != TypeWelcome {
		t.Fatalf("first frame = %+v", welcome)
	}
	var w WelcomePayload
	if err := json.Unmarshal(welcome.Payload, &w); err != nil {
		t.Fatal(err)
	}
	if w.Document != "doc_test" || w.ClientID == "" || len(w.Topics) != len(bus.AllTopics) {
		t.Errorf("welcome = %+v", w)
	}

	r.bus.Publish(bus.NodeRenamed{Node: 3, Name: "arm"})
	r.bus.Publish(bus.BulkUpdateFinished{})

	got := read(t, conn)
	if got.Type != string(bus.TopicNodeRenamed) || got.Seq != 1 {
		t.Fatalf("frame = %+v", got)
	}
	var renamed bus.NodeRenamed
	if err := json.Unmarshal(got.Payload, &renamed); err != nil || renamed.Name != "arm" {
		t.Errorf("payload = %s, err = %v", got.Payload, err)
	}
	if next := read(t, conn); next.Type != string(bus.TopicBulkUpdateFinished) || next.Seq != 2 {
		t.Errorf("second frame = %+v", next)
	}
}

func TestSubscribeFiltersTopics(t *testing.T) {
	r := newTestRelay(t)
	conn := r.dial(t, r.server.URL)
	read(t, conn)

	payload, _ := json.Marshal(SubscribePayload{Topics: []string{string(bus.TopicHistoryItemCommitted)}})
	write(t, conn, Message{Type: TypeSubscribe, Payload: payload})

	// A bad subscribe answers with an error, which also proves the first
	// subscribe was handled.
	bad, _ := json.Marshal(SubscribePayload{Topics: []string{"nope"}})
	write(t, conn, Message{Type: TypeSubscribe, Payload: bad})
	if msg := read(t, conn); msg.Type != TypeError {
		t.Fatalf("frame = %+v, want error", msg)
	}

	r.bus.Publish(bus.NodeRenamed{Node: 1, Name: "x"})
	r.bus.Publish(bus.HistoryItemCommitted{Version: 4, Label: "rename"})

	msg := read(t, conn)
	if msg.Type != string(bus.TopicHistoryItemCommitted) {
		t.Errorf("frame = %+v, want only history", msg)
	}
}

func TestUnknownMessageType(t *testing.T) {
	r := newTestRelay(t)
	conn := r.dial(t, r.server.URL)
	read(t, conn)

	write(t, conn, Message{Type: "presence.update"})
	if msg := read(t, conn); msg.Type != TypeError {
		t.Errorf("frame = %+v, want error", msg)
	}
}

func TestWelcomeCarriesEditor(t *testing.T) {
	r := newTestRelay(t)
	svc := auth.NewService("secret", time.Hour, "")
	token, _, _ := svc.IssueToken("ada")
	srv := httptest.NewServer(svc.AuthMiddleware(r.hub))
	t.Cleanup(srv.Close)

	conn := r.dial(t, srv.URL+"?token="+token)
	var w WelcomePayload
	_ = json.Unmarshal(read(t, conn).Payload, &w)
	if w.Editor != "ada" {
		t.Errorf("editor = %q", w.Editor)
	}
}

func TestRunStopsAndUnsubscribes(t *testing.T) {
	r := newTestRelay(t)
	conn := r.dial(t, r.server.URL)
	read(t, conn)

	r.stop()
	<-r.done
	r.done <- nil // let cleanup drain again

	if n := r.bus.Subscribers(bus.TopicNodeAdded); n != 0 {
		t.Errorf("subscribers = %d", n)
	}
	if n := r.hub.Clients(); n != 0 {
		t.Errorf("clients = %d", n)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, _, err := conn.Read(ctx); err == nil {
		t.Error("connection still open after stop")
	}
}
