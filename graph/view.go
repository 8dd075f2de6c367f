package graph

// View is a per-thread index cut: for each thread, the highest index of
// that thread's events included in the view. It is the representation used
// for prefix views ((po∪rf)* predecessors) and happens-before summaries
// (spec.md §3, §9). A thread absent from the view contributes nothing
// (equivalent to -1).
//
// Views are owned by the label whose prefix/hb they describe (spec.md §3
// "Ownership"); callers that need to mutate one independently must Clone
// it first.
type View struct {
	cuts map[int]int
}

// NewView returns an empty view (the cut before any event of any thread).
func NewView() *View {
	return &View{cuts: make(map[int]int)}
}

// Get returns the highest included index of thread, or -1 if thread is not
// represented in the view at all.
func (v *View) Get(thread int) int {
	if v == nil {
		return -1
	}
	if idx, ok := v.cuts[thread]; ok {
		return idx
	}
	return -1
}

// Set records that thread's cut includes up to index idx, but never moves
// a thread's cut backwards.
func (v *View) Set(thread, idx int) {
	if cur, ok := v.cuts[thread]; !ok || idx > cur {
		v.cuts[thread] = idx
	}
}

// Contains reports whether e is included in the view, i.e. e.Index <=
// v.Get(e.ThreadID). Init is always contained.
func (v *View) Contains(e Event) bool {
	if e.IsInit() {
		return true
	}
	return e.Index <= v.Get(e.ThreadID)
}

// Clone returns an independent copy of v.
func (v *View) Clone() *View {
	nv := NewView()
	for t, i := range v.cuts {
		nv.cuts[t] = i
	}
	return nv
}

// Union returns a new view whose cut, per thread, is the max of v and
// other's cuts. Used to combine program-order and reads-from predecessors
// (po∪rf)* when computing a prefix view.
func (v *View) Union(other *View) *View {
	nv := v.Clone()
	if other == nil {
		return nv
	}
	for t, i := range other.cuts {
		nv.Set(t, i)
	}
	return nv
}

// Advance returns a copy of v with thread's cut raised to at least idx.
func (v *View) Advance(thread, idx int) *View {
	nv := v.Clone()
	nv.Set(thread, idx)
	return nv
}

// LessEq reports whether every thread cut in v is <= the corresponding cut
// in other (v's events are a subset of other's).
func (v *View) LessEq(other *View) bool {
	for t, i := range v.cuts {
		if other.Get(t) < i {
			return false
		}
	}
	return true
}

// Threads returns the set of thread ids with a non-trivial cut in v, in no
// particular order; callers that need determinism should sort the result.
func (v *View) Threads() []int {
	ts := make([]int, 0, len(v.cuts))
	for t := range v.cuts {
		ts = append(ts, t)
	}
	return ts
}

// DepView augments a plain View with, per thread, a set of retained
// "holes" — indices below the thread's cut that are nonetheless NOT
// included, because dependency tracking (IMM) only pulls in the events a
// later access actually depends on, not the whole program-order prefix
// (spec.md §9). All view-consuming algorithms are written against the
// Prefix interface below so they are agnostic to which of View/DepView
// they're handed.
type DepView struct {
	View
	holes map[int]map[int]struct{}
}

// NewDepView returns an empty dependency view.
func NewDepView() *DepView {
	return &DepView{View: *NewView(), holes: make(map[int]map[int]struct{})}
}

// Contains overrides View.Contains to additionally exclude retained holes.
func (v *DepView) Contains(e Event) bool {
	if e.IsInit() {
		return true
	}
	if !v.View.Contains(e) {
		return false
	}
	if h, ok := v.holes[e.ThreadID]; ok {
		if _, hole := h[e.Index]; hole {
			return false
		}
	}
	return true
}

// PunchHole records that idx within thread is excluded from the
// dependency-closed prefix even though it is below the thread's cut.
func (v *DepView) PunchHole(thread, idx int) {
	h, ok := v.holes[thread]
	if !ok {
		h = make(map[int]struct{})
		v.holes[thread] = h
	}
	h[idx] = struct{}{}
}

// Clone returns an independent copy of v.
func (v *DepView) Clone() *DepView {
	nv := &DepView{View: *v.View.Clone(), holes: make(map[int]map[int]struct{}, len(v.holes))}
	for t, h := range v.holes {
		nh := make(map[int]struct{}, len(h))
		for i := range h {
			nh[i] = struct{}{}
		}
		nv.holes[t] = nh
	}
	return nv
}

// Prefix is the interface the graph and consistency checker program
// against, satisfied by both *View (plain models) and *DepView (IMM). This
// is the "graph templated over view kind" of spec.md §4.1, expressed as a
// Go interface instead of a C++ template parameter.
type Prefix interface {
	Get(thread int) int
	Contains(e Event) bool
}
