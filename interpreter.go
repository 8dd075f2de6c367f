package wmc

import "github.com/ygrebnov/wmc/graph"

// This file is the external interfaces of spec.md §6: the handler surface
// the driver exposes to whatever single-steps the program (Interpreter →
// Driver), and the callback surface the driver needs back (Driver →
// Interpreter). Both sides are expressed as Go interfaces rather than a
// shared base class, the same shape the teacher uses for its Workers[R]
// surface: a small interface the caller is handed, with the concrete type
// unexported.

// Outcome is returned by every Driver handler. The interpreter branches on
// it instead of the driver unwinding an exception or suspending a
// coroutine (spec.md §9 "coroutine-like control... maps to return-value
// dispatch").
type Outcome int

const (
	// OutcomeOK signals an access committed with no value to return
	// (stores, fences, frees).
	OutcomeOK Outcome = iota
	// OutcomeValue signals a load or join completed with a value; read it
	// from the handler's second return value.
	OutcomeValue
	// OutcomeReset asks the interpreter to restart the current instruction
	// after some state change (a just-evaluated annotation failed, or a
	// join target has not finished yet).
	OutcomeReset
	// OutcomeInvalid is returned only when bottom-reading during a replay
	// whose graph no longer has the label at this position.
	OutcomeInvalid
	// OutcomeError signals a CheckError was raised while committing;
	// Severity on the error decides whether exploration halts.
	OutcomeError
)

// AccessRequest is the payload an interpreter passes to a Driver handler:
// everything about the event being requested except its position, which
// the driver assigns at commit time.
type AccessRequest struct {
	Kind     graph.Kind
	Ordering graph.Ordering
	Address  graph.Address
	Value    graph.Value
	Size     int

	// Annotation is attached by the front end to speculative/confirming
	// reads; nil for ordinary accesses.
	Annotation *graph.Annotation

	// ThreadCreateID names the thread a ThreadCreate request is spawning.
	ThreadCreateID int

	// AddrDeps, DataDeps, CtrlDeps are populated by the interpreter under a
	// dependency-tracking model (IMM); nil otherwise.
	AddrDeps []graph.Event
	DataDeps []graph.Event
	CtrlDeps []graph.Event
}

// Driver is the handler surface an interpreter drives: one method per
// event kind named in spec.md §6, each returning an Outcome plus whatever
// payload that outcome carries.
type Driver interface {
	// Load commits a read request on thread and returns the value observed,
	// or a non-value Outcome.
	Load(thread int, req AccessRequest) (Outcome, graph.Value, error)
	// Store commits a write request on thread.
	Store(thread int, req AccessRequest) (Outcome, error)
	// Fence commits a fence request on thread.
	Fence(thread int, req AccessRequest) (Outcome, error)
	// Free commits a deallocation request on thread.
	Free(thread int, req AccessRequest) (Outcome, error)
	// Malloc commits an allocation request on thread and returns the
	// address assigned.
	Malloc(thread int, size int, alignment int) (Outcome, graph.Address, error)
	// ThreadCreate commits a thread-spawn request on thread and returns the
	// new thread's id.
	ThreadCreate(thread int, req AccessRequest) (Outcome, int, error)
	// ThreadJoin commits a join request on thread and returns the target's
	// exit code once available.
	ThreadJoin(thread int, target int) (Outcome, graph.Value, error)
	// ThreadFinish records that thread has run to completion with the
	// given exit code.
	ThreadFinish(thread int, exitCode graph.Value) (Outcome, error)

	// Done asks the driver whether interpretation of the current frame is
	// finished. Called by the interpreter's main loop between
	// instructions, not per-event.
	Done() bool
}

// Program is the callback surface the driver needs from the interpreter
// (Driver → Interpreter of spec.md §6): queries about static storage the
// driver cannot answer from the graph alone.
type Program interface {
	// InitialValueOf returns the statically-initialized value of addr.
	InitialValueOf(addr graph.Address) graph.Value
	// IsStaticallyAllocated reports whether addr names static storage (as
	// opposed to a stack/heap allocation tracked by the AddressAllocator).
	IsStaticallyAllocated(addr graph.Address) bool
	// StaticNameOf returns a diagnostic name for addr, if any.
	StaticNameOf(addr graph.Address) (string, bool)
	// SkipUninitCheck reports whether an access of this ordering should
	// skip the uninitialized-read check (an escape hatch for benign racy
	// idioms the front end already vetted).
	SkipUninitCheck(o graph.Ordering) bool
}

// Interpreter single-steps the program under verification, driven by a
// Scheduler's choice of thread and reporting each access to a Driver
// (spec.md §2 "Control flow per event request").
type Interpreter interface {
	Program

	// Step advances thread by exactly one instruction, issuing at most one
	// request to drv. Returns false once thread has no more instructions to
	// run in the current frame (it finished or blocked).
	Step(thread int, drv Driver) (bool, error)

	// Runnable reports, for each live thread, the kind of action it would
	// perform next (used by the scheduler to pick a policy-consistent
	// thread), or nil if no thread has anything left to do.
	Runnable() []RunnableThread

	// Rewind restores the interpreter's register/stack state to what it was
	// when the graph held exactly the events in v — the "scoped
	// save/restore protocol" of spec.md §5, invoked by the driver before
	// resuming a restricted or cloned frame.
	Rewind(v graph.Prefix) error

	// Clone returns an independent copy of the interpreter's state, used
	// when an Execution is cloned for publication to the engine's global
	// queue or as the sibling frame of a backward revisit.
	Clone() Interpreter
}

// RunnableAction and RunnableThread live in package graph (scheduler needs
// them and cannot import this package); aliased here for callers of the
// Interpreter interface.
type (
	RunnableAction = graph.RunnableAction
	RunnableThread  = graph.RunnableThread
)

const (
	ActionOther = graph.ActionOther
	ActionLoad  = graph.ActionLoad
	ActionStore = graph.ActionStore
)
