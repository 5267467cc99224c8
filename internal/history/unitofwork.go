package history

import "fmt"

// UnitOfWork is an ordered batch of events that is undone and redone as one
// step. Events are applied as soon as they are executed.
type UnitOfWork struct {
	history   *History
	label     string
	events    []Event
	version   int64
	bulk      bool
	committed bool
}

// Execute records e and applies it to the document immediately.
func (u *UnitOfWork) Execute(e Event) {
	if u.committed {
		panic(fmt.Errorf("execute %s on %q: %w", e.Kind(), u.label, ErrUnitOfWorkClosed))
	}
	u.events = append(u.events, e)
	e.Forward(u.history.doc)
}

// Commit closes the unit of work. An empty unit is dropped without a trace.
func (u *UnitOfWork) Commit() {
	u.history.commit(u)
}

func (u *UnitOfWork) IsEmpty() bool { return len(u.events) == 0 }
func (u *UnitOfWork) Label() string { return u.label }

// Version is 0 until the unit is committed with at least one event.
func (u *UnitOfWork) Version() int64 { return u.version }

// Bulk reports whether notifications from this unit are part of a bulk
// update.
func (u *UnitOfWork) Bulk() bool { return u.bulk }

// Events returns a copy of the recorded events in execution order.
func (u *UnitOfWork) Events() []Event {
	return append([]Event(nil), u.events...)
}
