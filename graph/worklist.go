package graph

// WorkItem is a deferred exploration alternative (a "revisit"), per
// spec.md §3's tagged record: {ForwardRead, ForwardWrite, ForwardOptional,
// BackwardRevisit, Rerun}. It is expressed as a closed interface with five
// implementations rather than a single struct with a discriminant field,
// since each variant's payload shape genuinely differs and a type switch
// reads better than branching on a tag field — the same call the teacher
// makes in task.go, where task[R] has three distinct implementations
// dispatched by a type switch in newTask rather than one struct with an
// enum.
//
// Grounded on original_source/src/Revisit.hpp and RevisitSet.{hpp,cpp}.
type WorkItem interface {
	isWorkItem()
}

// ForwardRead re-binds a read already in the current frame to a new rf
// source, without copying the graph (spec.md §4.4 "Forward revisit").
type ForwardRead struct {
	Pos   Event
	NewRF Event
}

func (ForwardRead) isWorkItem() {}

// NewForwardRead constructs a ForwardRead work item.
func NewForwardRead(pos, newRF Event) ForwardRead { return ForwardRead{Pos: pos, NewRF: newRF} }

// ForwardWrite re-binds a write already in the current frame to a new
// coherence predecessor, without copying the graph.
type ForwardWrite struct {
	Pos        Event
	NewCoPred  Event
	PrevCoPred Event
}

func (ForwardWrite) isWorkItem() {}

// NewForwardWrite constructs a ForwardWrite work item.
func NewForwardWrite(pos, newCoPred, prevCoPred Event) ForwardWrite {
	return ForwardWrite{Pos: pos, NewCoPred: newCoPred, PrevCoPred: prevCoPred}
}

// ForwardOptional re-enables a previously-skipped Optional (speculation
// marker) label at Pos.
type ForwardOptional struct {
	Pos Event
}

func (ForwardOptional) isWorkItem() {}

// NewForwardOptional constructs a ForwardOptional work item.
func NewForwardOptional(pos Event) ForwardOptional { return ForwardOptional{Pos: pos} }

// BackwardRevisit explores a sibling frame where Read (an event already
// committed in some ancestor frame) now reads from a newly added write.
// SavedView is prefix(w) ∪ preds(r), computed once when the revisit is
// created (spec.md §4.4 step 4) and replayed verbatim regardless of any
// forward revisits that happen to the frame in between (spec.md §8
// "testable properties").
type BackwardRevisit struct {
	Read      Event
	NewRF     Event
	SavedView Prefix
}

func (BackwardRevisit) isWorkItem() {}

// NewBackwardRevisit constructs a BackwardRevisit work item.
func NewBackwardRevisit(read, newRF Event, savedView Prefix) BackwardRevisit {
	return BackwardRevisit{Read: read, NewRF: newRF, SavedView: savedView}
}

// Rerun asks the driver to resume interpretation of the current frame from
// scratch with no change to the graph — used after an in-place revisit
// unblocks a read, so the scheduler can re-derive a replay schedule that
// includes it.
type Rerun struct{}

func (Rerun) isWorkItem() {}

// WorkList is the per-Execution-frame LIFO of pending revisits (spec.md
// §2, §9: "a worker never shares its list"). It is an ordinary Go slice
// used as a stack; cross-worker transfer only ever happens by cloning a
// whole Execution (engine.go), never by sharing a WorkList.
type WorkList struct {
	items []WorkItem
}

// NewWorkList returns an empty work list.
func NewWorkList() *WorkList { return &WorkList{} }

// Push adds item to the top of the stack.
func (w *WorkList) Push(item WorkItem) { w.items = append(w.items, item) }

// Pop removes and returns the most recently pushed item, or ok=false if
// empty.
func (w *WorkList) Pop() (WorkItem, bool) {
	if len(w.items) == 0 {
		return nil, false
	}
	item := w.items[len(w.items)-1]
	w.items = w.items[:len(w.items)-1]
	return item, true
}

// Len reports the number of pending items.
func (w *WorkList) Len() int { return len(w.items) }

// PopSurplus removes and returns up to n items from the bottom of the
// stack (the oldest, lowest-priority entries) for publication to the
// engine's global queue (spec.md §5: "when a worker's own work list
// contains surplus backward-revisit frames, it may publish one"). Items
// remain in LIFO order for the items that stay.
func (w *WorkList) PopSurplus(n int) []WorkItem {
	if n <= 0 || len(w.items) == 0 {
		return nil
	}
	if n > len(w.items) {
		n = len(w.items)
	}
	surplus := append([]WorkItem(nil), w.items[:n]...)
	w.items = w.items[n:]
	return surplus
}

// Clone returns an independent copy of the work list (shallow: WorkItem
// values are immutable once constructed, so sharing them across clones is
// safe).
func (w *WorkList) Clone() *WorkList {
	return &WorkList{items: append([]WorkItem(nil), w.items...)}
}
