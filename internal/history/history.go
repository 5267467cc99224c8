// Package history records document edits as units of work made of reversible
// events, and replays them for undo and redo.
//
// Every committed unit of work gets a version from a strictly increasing
// sequence. The current version is the version of the unit on top of the undo
// stack, or 0 when nothing can be undone. Committing after an undo discards
// the redo branch: history is linear.
//
// A History is not safe for concurrent use.
package history

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/rig/internal/bus"
)

var (
	// ErrUnitOfWorkOpen is raised when a unit of work is started while
	// another one is still open.
	ErrUnitOfWorkOpen = errors.New("unit of work already open")
	// ErrStaleUnitOfWork is raised when a unit of work other than the open
	// one is committed.
	ErrStaleUnitOfWork = errors.New("commit from a unit of work that is not open")
	// ErrUnitOfWorkClosed is raised when executing on a committed unit.
	ErrUnitOfWorkClosed = errors.New("unit of work already committed")
)

// Entry describes one committed unit of work.
type Entry struct {
	Version int64  `json:"version"`
	Label   string `json:"label"`
}

type History struct {
	doc    EditableDocument
	bus    *bus.Bus
	logger *slog.Logger

	undo []*UnitOfWork
	redo []*UnitOfWork
	seq  int64
	open *UnitOfWork
}

func New(doc EditableDocument, b *bus.Bus, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	return &History{doc: doc, bus: b, logger: logger}
}

// StartUnitOfWork opens a unit of work. It panics if one is already open.
func (h *History) StartUnitOfWork(label string) *UnitOfWork {
	return h.start(label, false)
}

// StartBulkUnitOfWork opens a unit of work whose notifications are flagged as
// a bulk update and closed by a BulkUpdateFinished message.
func (h *History) StartBulkUnitOfWork(label string) *UnitOfWork {
	return h.start(label, true)
}

func (h *History) start(label string, bulk bool) *UnitOfWork {
	if h.open != nil {
		panic(fmt.Errorf("start %q while %q is open: %w", label, h.open.label, ErrUnitOfWorkOpen))
	}
	h.open = &UnitOfWork{history: h, label: label, bulk: bulk}
	return h.open
}

// Do runs fn inside a new unit of work and commits it.
func (h *History) Do(label string, fn func(u *UnitOfWork)) *UnitOfWork {
	u := h.StartUnitOfWork(label)
	fn(u)
	u.Commit()
	return u
}

// IsOpen reports whether a unit of work is currently open.
func (h *History) IsOpen() bool {
	return h.open != nil
}

func (h *History) commit(u *UnitOfWork) {
	if u != h.open {
		panic(fmt.Errorf("commit %q: %w", u.label, ErrStaleUnitOfWork))
	}
	h.open = nil
	u.committed = true

	if u.IsEmpty() {
		h.logger.Debug("drop empty unit of work", "label", u.label)
		return
	}

	h.seq++
	u.version = h.seq

	if len(h.redo) > 0 {
		truncated := h.redo[len(h.redo)-1].version
		h.redo = nil
		h.bus.Publish(bus.HistoryRemovedAfter{Version: truncated})
	}

	h.undo = append(h.undo, u)
	h.logger.Debug("commit unit of work", "version", u.version, "label", u.label, "events", len(u.events))
	h.bus.Publish(bus.HistoryItemCommitted{Version: u.version, Label: u.label})
	h.doc.MarkDirty()
	if u.bulk {
		h.bus.Publish(bus.BulkUpdateFinished{})
	}
}

// Undo reverts the most recent unit of work. It is a no-op on an empty stack.
func (h *History) Undo() {
	if len(h.undo) == 0 {
		return
	}
	u := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	for i := len(u.events) - 1; i >= 0; i-- {
		u.events[i].Backward(h.doc)
	}
	h.redo = append(h.redo, u)
	h.logger.Debug("undo", "version", u.version, "label", u.label)
	h.moved(u)
}

// Redo re-applies the most recently undone unit of work. It is a no-op on an
// empty stack.
func (h *History) Redo() {
	if len(h.redo) == 0 {
		return
	}
	u := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	for _, e := range u.events {
		e.Forward(h.doc)
	}
	h.undo = append(h.undo, u)
	h.logger.Debug("redo", "version", u.version, "label", u.label)
	h.moved(u)
}

func (h *History) moved(u *UnitOfWork) {
	h.bus.Publish(bus.HistoryCursorChanged{Version: h.CurrentVersion()})
	h.doc.MarkDirty()
	if u.bulk {
		h.bus.Publish(bus.BulkUpdateFinished{})
	}
}

// JumpToVersion undoes or redoes until v is the current version, or as close
// as the stacks allow.
func (h *History) JumpToVersion(v int64) {
	current := h.CurrentVersion()
	switch {
	case v == current:
		return
	case v > current:
		for len(h.redo) > 0 && h.redo[len(h.redo)-1].version <= v {
			h.Redo()
		}
	default:
		for len(h.undo) > 0 && h.undo[len(h.undo)-1].version > v {
			h.Undo()
		}
	}
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// CurrentVersion returns the version of the top undo entry, or 0.
func (h *History) CurrentVersion() int64 {
	if len(h.undo) == 0 {
		return 0
	}
	return h.undo[len(h.undo)-1].version
}

// UndoEntries lists the undo stack, oldest first.
func (h *History) UndoEntries() []Entry {
	return entries(h.undo)
}

// RedoEntries lists the redo stack, next redo first.
func (h *History) RedoEntries() []Entry {
	out := make([]Entry, 0, len(h.redo))
	for i := len(h.redo) - 1; i >= 0; i-- {
		out = append(out, Entry{Version: h.redo[i].version, Label: h.redo[i].label})
	}
	return out
}

func entries(stack []*UnitOfWork) []Entry {
	out := make([]Entry, 0, len(stack))
	for _, u := range stack {
		out = append(out, Entry{Version: u.version, Label: u.label})
	}
	return out
}

// Reset forgets both stacks. The version sequence keeps counting so versions
// are never reused. It panics if a unit of work is open.
func (h *History) Reset() {
	if h.open != nil {
		panic(fmt.Errorf("reset while %q is open: %w", h.open.label, ErrUnitOfWorkOpen))
	}
	h.undo = nil
	h.redo = nil
	h.bus.Publish(bus.HistoryCursorChanged{Version: 0})
}
