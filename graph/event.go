package graph

import "fmt"

// Event identifies a committed or tentative action by its position in the
// program: which thread produced it, and at what index within that
// thread's sequence of events.
//
// Two sentinels exist. Init represents the pre-execution writes of every
// statically initialized location. Bottom is an invalid placeholder used
// only transiently during error reporting (e.g. a read whose rf has been
// removed mid-restriction and not yet repaired).
type Event struct {
	ThreadID int
	Index    int
}

// Init is the position of the implicit thread that writes every static
// location's initial value.
var Init = Event{ThreadID: 0, Index: 0}

// Bottom is never a valid graph position; it marks "no event" in contexts
// that would otherwise need a pointer.
var Bottom = Event{ThreadID: -1, Index: -1}

// IsInit reports whether e is the initializer event.
func (e Event) IsInit() bool { return e == Init }

// IsBottom reports whether e is the invalid sentinel.
func (e Event) IsBottom() bool { return e == Bottom }

// Prev returns the program-order predecessor of e within its thread.
// Callers must not call Prev on an event at index 0.
func (e Event) Prev() Event { return Event{e.ThreadID, e.Index - 1} }

// Next returns the program-order successor position of e within its thread.
func (e Event) Next() Event { return Event{e.ThreadID, e.Index + 1} }

func (e Event) String() string {
	switch {
	case e.IsInit():
		return "INIT"
	case e.IsBottom():
		return "⊥"
	default:
		return fmt.Sprintf("(%d,%d)", e.ThreadID, e.Index)
	}
}

// Address is an abstract memory location dispensed by an AddressAllocator.
// It carries no representation beyond an opaque numeric identity: equality
// and a total order (for deterministic iteration) are all that matter to
// the graph.
type Address uint64

// Value is a memory-word-sized abstract value. The checker never
// interprets bits beyond equality and the Size they're tagged with at the
// access that produced them; arithmetic is the interpreter's job.
type Value uint64
