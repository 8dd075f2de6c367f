package graph

import "github.com/google/uuid"

// Execution bundles everything one frame of exploration owns: a graph, a
// work list of pending revisits, a choice map, an address allocator, and
// the position of the last label added (spec.md §3 "Ownership", §4.4
// "The driver holds a stack of Execution frames").
//
// An Execution is also the unit published to the engine's global work
// queue (engine.go) when a worker has surplus backward-revisit work; at
// that point it is cloned so the publishing worker and whichever worker
// eventually pops it never alias any mutable state (spec.md §5).
type Execution struct {
	// ID uniquely identifies this frame across workers and across the
	// lifetime of an Engine run, so verdicts and warnings reported from
	// different goroutines can be correlated without relying on pointer
	// identity — load-bearing once a frame has been cloned and handed to
	// a different worker via the global queue.
	ID uuid.UUID

	Graph     *ExecutionGraph
	Work      *WorkList
	Choices   *ChoiceMap
	Allocator *AddressAllocator

	// Last is the position of the most recently committed label, used by
	// the scheduler to resume interpretation after a restrict.
	Last Event

	// Warnings tracks which soft-error codes have already been reported
	// for this execution (spec.md §7: "only the first occurrence of each
	// warning code is reported").
	Warnings map[string]struct{}

	// Moot marks an execution whose further exploration is known to be
	// redundant (spec.md §4.5 "bound decider"); Result counts moot
	// executions. Nothing in this module sets it, and the driver does not
	// consult it when scheduling work.
	Moot bool

	// Blocked, when non-empty, names the reason the frame's last-running
	// thread stopped making progress ("assume" or "join", spec.md §4.4's
	// Block label kinds). In-place revisit (revisit.go) acts only on an
	// "assume"-blocked frame, and Result counts blocked executions.
	Blocked string
}

// NewExecution returns a fresh, empty frame.
func NewExecution() *Execution {
	return &Execution{
		ID:        uuid.New(),
		Graph:     NewExecutionGraph(),
		Work:      NewWorkList(),
		Choices:   NewChoiceMap(),
		Allocator: NewAddressAllocator(),
		Last:      Init,
		Warnings:  make(map[string]struct{}),
	}
}

// Clone produces a fully independent deep copy: a new graph (via
// CopyUpTo applied to the whole current view so nothing is dropped), a
// cloned work list, choice map, and allocator. Used both for publication
// to the engine's global queue and as the starting point of a backward
// revisit's sibling frame (restrict + clone, spec.md §4.4).
func (e *Execution) Clone() *Execution {
	full := NewView()
	for t := 0; t < e.Graph.NumThreads(); t++ {
		full.Set(t, e.Graph.ThreadLen(t)-1)
	}
	ne := &Execution{
		ID:        uuid.New(),
		Graph:     e.Graph.CopyUpTo(full),
		Work:      e.Work.Clone(),
		Choices:   e.Choices.Clone(),
		Allocator: e.Allocator.Clone(),
		Last:      e.Last,
		Warnings:  make(map[string]struct{}, len(e.Warnings)),
		Moot:      e.Moot,
		Blocked:   e.Blocked,
	}
	for k := range e.Warnings {
		ne.Warnings[k] = struct{}{}
	}
	return ne
}

// RestrictTo restricts the frame's graph and bookkeeping to stamp s in
// place, for a forward revisit (no new frame) or as step 1 of a backward
// revisit (restrict, then the caller clones before mutating further).
func (e *Execution) RestrictTo(s int64) {
	e.Graph.CutToStamp(s)
	e.Choices.CutToStamp(s, func(pos Event) int64 {
		if pos.IsInit() {
			return 0
		}
		if l := e.Graph.Label(pos); l != nil {
			return l.Stamp
		}
		return s + 1 // already gone; treat as "beyond s" so it's dropped
	})
	e.Blocked = ""
}

// WarnOnce records warning code for this execution and reports whether it
// is the first occurrence (spec.md §7).
func (e *Execution) WarnOnce(code string) bool {
	if _, seen := e.Warnings[code]; seen {
		return false
	}
	e.Warnings[code] = struct{}{}
	return true
}
