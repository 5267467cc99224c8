// Package journal records the edit history of open documents to durable
// storage, so a history panel can show what happened across sessions.
//
// A Journal listens on the bus and hands entries to a background writer;
// bus delivery never waits on storage.
package journal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/inamate/rig/internal/bus"
	"github.com/inamate/rig/internal/typeid"
)

var ErrInvalidEntry = errors.New("invalid journal entry")

type Kind string

const (
	KindCommitted    Kind = "committed"
	KindCursor       Kind = "cursor"
	KindRemovedAfter Kind = "removedAfter"
)

// Entry is one journaled history notification.
type Entry struct {
	ID         string    `json:"id"`
	Document   string    `json:"document"`
	Kind       Kind      `json:"kind"`
	Version    int64     `json:"version"`
	Label      string    `json:"label,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

func (e Entry) validate() error {
	switch {
	case e.ID == "":
		return errors.Join(ErrInvalidEntry, errors.New("id is required"))
	case e.Document == "":
		return errors.Join(ErrInvalidEntry, errors.New("document is required"))
	case e.Kind != KindCommitted && e.Kind != KindCursor && e.Kind != KindRemovedAfter:
		return errors.Join(ErrInvalidEntry, errors.New("unknown kind "+string(e.Kind)))
	}
	return nil
}

// Store persists journal entries.
type Store interface {
	Append(ctx context.Context, e Entry) error
	// List returns the newest entries of a document, newest first.
	List(ctx context.Context, document string, limit int) ([]Entry, error)
	Close() error
}

const bufferSize = 256

type Journal struct {
	store    Store
	document func() string
	logger   *slog.Logger

	bus     *bus.Bus
	subs    []bus.Subscription
	entries chan Entry
}

// New subscribes a journal to the history messages on b. document reports
// the id of the document the messages belong to; it is called during
// delivery.
func New(store Store, b *bus.Bus, document func() string, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	j := &Journal{
		store:    store,
		document: document,
		logger:   logger,
		bus:      b,
		entries:  make(chan Entry, bufferSize),
	}
	j.subs = []bus.Subscription{
		bus.Listen(b, func(m bus.HistoryItemCommitted) {
			j.enqueue(KindCommitted, m.Version, m.Label)
		}),
		bus.Listen(b, func(m bus.HistoryCursorChanged) {
			j.enqueue(KindCursor, m.Version, "")
		}),
		bus.Listen(b, func(m bus.HistoryRemovedAfter) {
			j.enqueue(KindRemovedAfter, m.Version, "")
		}),
	}
	return j
}

func (j *Journal) enqueue(kind Kind, version int64, label string) {
	e := Entry{
		ID:         typeid.NewEntryID(),
		Document:   j.document(),
		Kind:       kind,
		Version:    version,
		Label:      label,
		RecordedAt: time.Now().UTC(),
	}
	select {
	case j.entries <- e:
	default:
		j.logger.Warn("journal buffer full, dropping entry", "kind", kind, "version", version)
	}
}

// Run writes queued entries until ctx is done, then unsubscribes and flushes
// what is still buffered.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case e := <-j.entries:
			j.write(ctx, e)
		case <-ctx.Done():
			j.stop()
			return nil
		}
	}
}

func (j *Journal) stop() {
	for _, s := range j.subs {
		j.bus.Unsubscribe(s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case e := <-j.entries:
			j.write(ctx, e)
		default:
			return
		}
	}
}

func (j *Journal) write(ctx context.Context, e Entry) {
	if err := j.store.Append(ctx, e); err != nil {
		j.logger.Error("journal append", "error", err, "kind", e.Kind, "version", e.Version)
	}
}

// List returns the newest entries of a document.
func (j *Journal) List(ctx context.Context, document string, limit int) ([]Entry, error) {
	return j.store.List(ctx, document, limit)
}
