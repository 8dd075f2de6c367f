package graph

// This file groups the read-only traversal helpers named in spec.md §4.1:
// iteration in stamp order, per-thread program order, readers of a write,
// co-successors/predecessors, fr-successors, and po-neighbors. Grounded on
// original_source/src/GraphIterators.hpp, which provides the equivalent
// C++ iterator adaptors; here they are plain functions returning slices,
// since the graphs involved are small enough per-execution that lazy
// iterator machinery buys nothing in Go.

// AllLabels returns every committed label across all threads, in stamp
// order.
func (g *ExecutionGraph) AllLabels() []*Label {
	out := make([]*Label, 0, g.nextStamp+1)
	for _, labels := range g.threads {
		out = append(out, labels...)
	}
	// Insertion sort by stamp: executions are small, and labels arrive
	// nearly sorted already (each thread's own slice is stamp-increasing).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Stamp > out[j].Stamp; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// ThreadLabels returns thread's labels in program order. The returned
// slice is owned by the graph.
func (g *ExecutionGraph) ThreadLabels(thread int) []*Label {
	if thread < 0 || thread >= len(g.threads) {
		return nil
	}
	return g.threads[thread]
}

// Readers returns the reads currently bound to w's rf, in no particular
// order. The returned slice is owned by w's label; callers must not mutate
// it.
func (g *ExecutionGraph) Readers(w Event) []Event {
	l := g.Label(w)
	if l == nil {
		return nil
	}
	return l.Readers
}

// CoPredecessor returns the write immediately before w in its address's
// coherence order, or Init if w is the co-minimum.
func (g *ExecutionGraph) CoPredecessor(w Event) Event {
	wl := g.Label(w)
	if wl == nil {
		return Bottom
	}
	order := g.coherence[wl.Address]
	for i, e := range order {
		if e == w {
			if i == 0 {
				return Init
			}
			return order[i-1]
		}
	}
	return Bottom
}

// CoSuccessor returns the write immediately after w in its address's
// coherence order, or Bottom if w is the co-maximum.
func (g *ExecutionGraph) CoSuccessor(w Event) Event {
	wl := g.Label(w)
	if wl == nil {
		return Bottom
	}
	order := g.coherence[wl.Address]
	for i, e := range order {
		if e == w {
			if i == len(order)-1 {
				return Bottom
			}
			return order[i+1]
		}
	}
	return Bottom
}

// CoBefore reports whether a precedes b in their (shared) address's
// coherence order. Init is before every write. Returns false if a and b
// are not writes to the same address, or a == b.
func (g *ExecutionGraph) CoBefore(a, b Event) bool {
	if a == b {
		return false
	}
	if a.IsInit() {
		bl := g.Label(b)
		return bl != nil && bl.IsWrite()
	}
	bl := g.Label(b)
	al := g.Label(a)
	if al == nil || bl == nil || al.Address != bl.Address {
		return false
	}
	order := g.coherence[al.Address]
	ai, bi := -1, -1
	for i, e := range order {
		if e == a {
			ai = i
		}
		if e == b {
			bi = i
		}
	}
	return ai >= 0 && bi >= 0 && ai < bi
}

// FrSuccessors returns the "reads-before" successors of read r: the
// writes that co-follow r's rf-source (fr = rf⁻¹ ; co). For a read of
// Init, these are simply all writes to the address.
func (g *ExecutionGraph) FrSuccessors(r Event) []Event {
	rl := g.Label(r)
	if rl == nil || !rl.IsRead() {
		return nil
	}
	order := g.coherence[rl.Address]
	if rl.RF.IsInit() {
		return append([]Event(nil), order...)
	}
	for i, w := range order {
		if w == rl.RF {
			return append([]Event(nil), order[i+1:]...)
		}
	}
	return nil
}

// POPredecessors returns e's program-order predecessors, from the event
// right before e down to (and including, as Init) the start of its
// thread, nearest first.
func (g *ExecutionGraph) POPredecessors(e Event) []Event {
	if e.IsInit() {
		return nil
	}
	out := make([]Event, 0, e.Index+1)
	for i := e.Index - 1; i >= 0; i-- {
		out = append(out, Event{e.ThreadID, i})
	}
	if e.ThreadID != 0 {
		out = append(out, Init)
	}
	return out
}

// POSuccessors returns e's program-order successors within its thread,
// nearest first.
func (g *ExecutionGraph) POSuccessors(e Event) []Event {
	n := g.ThreadLen(e.ThreadID)
	out := make([]Event, 0, n-e.Index-1)
	for i := e.Index + 1; i < n; i++ {
		out = append(out, Event{e.ThreadID, i})
	}
	return out
}

// PrefixView computes the (po∪rf)* set of predecessors of e: e's own
// program-order prefix, transitively unioned with the prefix view of
// whatever each read in that prefix reads from. The result is cached on
// e's label (spec.md §4.1, §9 "lazily computed and cached").
func (g *ExecutionGraph) PrefixView(e Event) *View {
	if e.IsInit() {
		return NewView()
	}
	l := g.Label(e)
	if l == nil {
		return NewView()
	}
	if l.prefix != nil {
		return l.prefix
	}
	v := NewView()
	v.Set(e.ThreadID, e.Index)
	for i := 0; i < e.Index; i++ {
		cur := Event{e.ThreadID, i}
		cl := g.Label(cur)
		if cl != nil && cl.IsRead() && !cl.RF.IsInit() {
			v = v.Union(g.PrefixView(cl.RF))
		}
	}
	l.prefix = v
	return v
}
