package graph

import "fmt"

// ExecutionGraph is a partial execution: per-thread event sequences, the
// reads-from relation recovered by dereferencing each read's RF field, and
// a per-address coherence order over writes. Grounded on
// original_source/src/ExecutionGraph.{hpp,cpp} and GraphManager.{hpp,cpp}.
//
// The driver is the graph's sole owner (spec.md §3 "Ownership"); everyone
// else holds borrowed references valid until the next mutating call.
type ExecutionGraph struct {
	threads [][]*Label
	// coherence[addr] is the total order of writes to addr, Init implicit
	// as the order's minimum and never stored explicitly.
	coherence map[Address][]Event
	nextStamp int64
}

// NewExecutionGraph returns an empty graph with a single thread (the main
// thread, id 0) whose only event is the implicit Init label.
func NewExecutionGraph() *ExecutionGraph {
	g := &ExecutionGraph{
		threads:   make([][]*Label, 1),
		coherence: make(map[Address][]Event),
	}
	g.threads[0] = []*Label{{Pos: Init, Kind: KindInitWrite, AddedMaximal: true}}
	return g
}

// NewThread allocates a fresh thread id and returns it; the thread starts
// with zero events (its ThreadStart label is appended separately, by
// convention at index 0).
func (g *ExecutionGraph) NewThread() int {
	g.threads = append(g.threads, nil)
	return len(g.threads) - 1
}

// NumThreads returns the number of threads currently known to the graph,
// including thread 0 (the initializer/main thread).
func (g *ExecutionGraph) NumThreads() int { return len(g.threads) }

// ThreadLen returns the number of events committed to thread, or 0 if
// thread has not been created yet.
func (g *ExecutionGraph) ThreadLen(thread int) int {
	if thread < 0 || thread >= len(g.threads) {
		return 0
	}
	return len(g.threads[thread])
}

// Label returns the label at e, or nil if e is out of range. Init always
// resolves to thread 0's index-0 label.
func (g *ExecutionGraph) Label(e Event) *Label {
	if e.ThreadID < 0 || e.ThreadID >= len(g.threads) {
		return nil
	}
	t := g.threads[e.ThreadID]
	if e.Index < 0 || e.Index >= len(t) {
		return nil
	}
	return t[e.Index]
}

// Append places lbl at the next free index of its thread, assigns it a
// fresh stamp, and returns the position it was placed at. lbl.Pos is
// overwritten with that position.
func (g *ExecutionGraph) Append(thread int, lbl *Label) Event {
	pos := Event{ThreadID: thread, Index: len(g.threads[thread])}
	lbl.Pos = pos
	g.nextStamp++
	lbl.Stamp = g.nextStamp
	g.threads[thread] = append(g.threads[thread], lbl)
	return pos
}

// MaxStamp returns the highest stamp assigned so far.
func (g *ExecutionGraph) MaxStamp() int64 { return g.nextStamp }

// CutToStamp removes every label with Stamp > s. Coherence orders and
// reader lists are adjusted accordingly; reads left dangling (their RF
// pointed at a now-removed write) are repaired to read from the new
// co-maximum of their address, per spec.md §4.1.
func (g *ExecutionGraph) CutToStamp(s int64) {
	removed := make(map[Event]bool)
	for t, labels := range g.threads {
		keep := len(labels)
		for i, l := range labels {
			if l.Stamp > s {
				removed[l.Pos] = true
				keep = i
				break
			}
		}
		g.threads[t] = labels[:keep]
	}

	for addr, order := range g.coherence {
		kept := order[:0:0]
		for _, w := range order {
			if !removed[w] {
				kept = append(kept, w)
			}
		}
		g.coherence[addr] = kept
	}

	for _, labels := range g.threads {
		for _, l := range labels {
			if l.IsWrite() {
				readers := l.Readers[:0:0]
				for _, r := range l.Readers {
					if !removed[r] {
						readers = append(readers, r)
					}
				}
				l.Readers = readers
			}
		}
	}

	for _, labels := range g.threads {
		for _, l := range labels {
			if l.IsRead() && !l.RF.IsInit() && removed[l.RF] {
				newRF := g.CoMax(l.Address)
				g.SetRF(l.Pos, newRF)
			}
		}
	}
}

// CoMax returns the co-maximal write to addr (the last element of its
// coherence order, or Init if addr has no writes yet).
func (g *ExecutionGraph) CoMax(addr Address) Event {
	order := g.coherence[addr]
	if len(order) == 0 {
		return Init
	}
	return order[len(order)-1]
}

// CoherenceOrder returns addr's write order, Init-exclusive (Init is
// always the implicit minimum and is not included in the returned slice).
// The returned slice is owned by the graph; callers must not mutate it.
func (g *ExecutionGraph) CoherenceOrder(addr Address) []Event {
	return g.coherence[addr]
}

// InsertCoherence places w into addr's coherence order immediately after
// pred (Init meaning "at the very start"). w must not already appear in
// the order.
func (g *ExecutionGraph) InsertCoherence(addr Address, w, pred Event) {
	order := g.coherence[addr]
	if pred.IsInit() {
		g.coherence[addr] = append([]Event{w}, order...)
		return
	}
	idx := -1
	for i, e := range order {
		if e == pred {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Sprintf("InsertCoherence: predecessor %s not in order for %v", pred, addr))
	}
	out := make([]Event, 0, len(order)+1)
	out = append(out, order[:idx+1]...)
	out = append(out, w)
	out = append(out, order[idx+1:]...)
	g.coherence[addr] = out
}

// SetRF binds reader's RF to w, maintaining w's readers list (and
// detaching reader from whatever write it previously read from, if any).
// Invariant 3 of spec.md §3 (w.readers == {r : r.rf = w}) is maintained by
// every call site going through this method rather than writing RF
// directly.
func (g *ExecutionGraph) SetRF(reader, w Event) {
	rl := g.Label(reader)
	if rl == nil {
		panic(fmt.Sprintf("SetRF: no such read %s", reader))
	}
	if !rl.RF.IsBottom() {
		if old := g.Label(rl.RF); old != nil {
			old.Readers = removeEvent(old.Readers, reader)
		}
	}
	rl.RF = w
	rl.InvalidatePrefix()
	if w.IsInit() {
		return
	}
	if wl := g.Label(w); wl != nil {
		wl.Readers = append(wl.Readers, reader)
	}
}

func removeEvent(s []Event, e Event) []Event {
	out := s[:0]
	for _, x := range s {
		if x != e {
			out = append(out, x)
		}
	}
	return out
}

// CopyUpTo produces a structural clone of g restricted to events included
// in v: every label whose position is not in v is dropped, coherence
// orders and reader lists are filtered to match, and dangling reads are
// left bound to whatever write of theirs survives (callers doing a
// backward revisit rebind the specific read afterward). Used to create a
// sibling state for backward revisit without mutating the current one
// (spec.md §4.1).
func (g *ExecutionGraph) CopyUpTo(v Prefix) *ExecutionGraph {
	ng := &ExecutionGraph{
		threads:   make([][]*Label, len(g.threads)),
		coherence: make(map[Address][]Event, len(g.coherence)),
	}
	var maxStamp int64
	for t, labels := range g.threads {
		cut := v.Get(t)
		if t == 0 && cut < 0 {
			cut = 0 // Init always survives
		}
		kept := make([]*Label, 0, cut+1)
		for _, l := range labels {
			if l.Pos.ThreadID == 0 && l.Pos.Index == 0 {
				clone := *l
				clone.Readers = append([]Event(nil), l.Readers...)
				kept = append(kept, &clone)
				continue
			}
			if l.Pos.Index > cut {
				break
			}
			clone := *l
			clone.Readers = append([]Event(nil), l.Readers...)
			clone.prefix, clone.hb = nil, nil
			kept = append(kept, &clone)
			if clone.Stamp > maxStamp {
				maxStamp = clone.Stamp
			}
		}
		ng.threads[t] = kept
	}

	survives := func(e Event) bool {
		if e.IsInit() {
			return true
		}
		l := ng.Label(e)
		return l != nil
	}

	for addr, order := range g.coherence {
		kept := make([]Event, 0, len(order))
		for _, w := range order {
			if survives(w) {
				kept = append(kept, w)
			}
		}
		if len(kept) > 0 {
			ng.coherence[addr] = kept
		}
	}

	for _, labels := range ng.threads {
		for _, l := range labels {
			if l.IsWrite() {
				readers := make([]Event, 0, len(l.Readers))
				for _, r := range l.Readers {
					if survives(r) {
						readers = append(readers, r)
					}
				}
				l.Readers = readers
			}
		}
	}

	ng.nextStamp = maxStamp
	return ng
}

// PopTrailing removes and returns thread's last label, for the narrow case
// of undoing a single just-appended label without a full CutToStamp
// (driver.go's in-place revisit, which must not disturb any other
// thread's events). Panics if thread has no labels, or if its last label
// has readers or participates in a coherence order — callers must only
// use this on a label nothing else references yet (e.g. a freshly
// appended Block label).
func (g *ExecutionGraph) PopTrailing(thread int) *Label {
	labels := g.threads[thread]
	last := labels[len(labels)-1]
	if len(last.Readers) > 0 {
		panic(fmt.Sprintf("PopTrailing: %s still has readers", last.Pos))
	}
	if last.IsWrite() {
		for _, p := range g.coherence[last.Address] {
			if p == last.Pos {
				panic(fmt.Sprintf("PopTrailing: %s still in coherence order", last.Pos))
			}
		}
	}
	g.threads[thread] = labels[:len(labels)-1]
	return last
}

// Validate checks the invariants of spec.md §3. Intended to be called only
// from tests and from the driver when Config.Debug is set; it is O(graph
// size) and not meant for the hot commit path.
func (g *ExecutionGraph) Validate() error {
	return g.validate()
}

// validate is Validate's unexported implementation.
func (g *ExecutionGraph) validate() error {
	seenStamp := make(map[int64]Event)
	for _, labels := range g.threads {
		for i, l := range labels {
			if l.Pos.Index != i {
				return fmt.Errorf("label at thread %d slot %d has Pos.Index %d", l.Pos.ThreadID, i, l.Pos.Index)
			}
			if prev, ok := seenStamp[l.Stamp]; ok && prev != l.Pos {
				return fmt.Errorf("duplicate stamp %d at %s and %s", l.Stamp, prev, l.Pos)
			}
			seenStamp[l.Stamp] = l.Pos
			if l.IsRead() {
				if !l.RF.IsInit() && !l.RF.IsBottom() {
					w := g.Label(l.RF)
					if w == nil {
						return fmt.Errorf("read %s has dangling rf %s", l.Pos, l.RF)
					}
					if w.Address != l.Address {
						return fmt.Errorf("read %s rf %s address mismatch", l.Pos, l.RF)
					}
					found := false
					for _, r := range w.Readers {
						if r == l.Pos {
							found = true
							break
						}
					}
					if !found {
						return fmt.Errorf("read %s missing from rf-source %s readers", l.Pos, l.RF)
					}
				}
			}
		}
	}
	for addr, order := range g.coherence {
		for i, w := range order {
			wl := g.Label(w)
			if wl == nil || wl.Address != addr {
				return fmt.Errorf("coherence order for %v has invalid entry %s", addr, w)
			}
			_ = i
		}
	}
	return nil
}
