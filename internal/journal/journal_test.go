package journal

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/inamate/rig/internal/bus"
)

type memStore struct {
	mu      sync.Mutex
	entries []Entry
	fail    error
}

func (s *memStore) Append(_ context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *memStore) List(_ context.Context, document string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].Document == document {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *memStore) Close() error { return nil }

func runJournal(t *testing.T, j *Journal) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()
	return func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("run: %v", err)
		}
	}
}

func TestJournalRecordsHistoryMessages(t *testing.T) {
	b := bus.New(nil)
	store := &memStore{}
	j := New(store, b, func() string { return "doc_a" }, nil)
	stop := runJournal(t, j)

	b.Publish(bus.HistoryItemCommitted{Version: 1, Label: "add bone"})
	b.Publish(bus.HistoryCursorChanged{Version: 0})
	b.Publish(bus.HistoryRemovedAfter{Version: 1})
	b.Publish(bus.NodeRenamed{Node: 1, Name: "ignored"})
	stop()

	got, err := j.List(context.Background(), "doc_a", 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []Kind{KindRemovedAfter, KindCursor, KindCommitted}
	if len(got) != len(want) {
		t.Fatalf("entries = %+v, want %d", got, len(want))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("entry %d kind = %s, want %s", i, got[i].Kind, k)
		}
		if got[i].ID == "" || got[i].RecordedAt.IsZero() {
			t.Errorf("entry %d not stamped: %+v", i, got[i])
		}
	}
	if got[2].Label != "add bone" {
		t.Errorf("label = %q", got[2].Label)
	}
}

func TestJournalUnsubscribesOnStop(t *testing.T) {
	b := bus.New(nil)
	j := New(&memStore{}, b, func() string { return "doc_a" }, nil)
	if b.Subscribers(bus.TopicHistoryItemCommitted) != 1 {
		t.Fatal("journal did not subscribe")
	}
	stop := runJournal(t, j)
	stop()
	if n := b.Subscribers(bus.TopicHistoryItemCommitted); n != 0 {
		t.Errorf("subscribers after stop = %d", n)
	}
}

func TestJournalStoreErrorsDoNotStopRun(t *testing.T) {
	b := bus.New(nil)
	store := &memStore{fail: errors.New("disk full")}
	j := New(store, b, func() string { return "doc_a" }, nil)
	stop := runJournal(t, j)

	b.Publish(bus.HistoryItemCommitted{Version: 1})
	stop()

	if len(store.entries) != 0 {
		t.Errorf("entries = %+v", store.entries)
	}
}

func TestEntryValidation(t *testing.T) {
	cases := map[string]Entry{
		"no id":       {Document: "d", Kind: KindCursor},
		"no document": {ID: "x", Kind: KindCursor},
		"bad kind":    {ID: "x", Document: "d", Kind: "other"},
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			if err := e.validate(); !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("err = %v, want ErrInvalidEntry", err)
			}
		})
	}
}
