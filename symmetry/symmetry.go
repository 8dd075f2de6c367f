// Package symmetry detects isomorphic thread prefixes and prunes
// symmetric continuations, per spec.md §4.6. Grounded on
// original_source/src/ExecutionGraph/Consistency/SymmetryChecker.{hpp,cpp}.
package symmetry

import "github.com/ygrebnov/wmc/graph"

// Spawn records the function-id/argument pair a thread was created with,
// plus which earlier thread (if any) it was marked symmetric to. The
// driver populates this from each ThreadCreate commit.
type Spawn struct {
	FunctionID int
	Arg        graph.Value
	// Predecessor is the thread id this thread was declared symmetric to
	// (e.g. "worker thread N is symmetric to worker thread N-1"), or -1 if
	// none.
	Predecessor int
}

// Checker decides which pairs of threads are symmetric and filters a
// read's rf candidates to drop the ones that would merely reproduce an
// already-explored symmetric twin's behavior.
type Checker struct {
	spawns map[int]Spawn
}

// New returns an empty Checker; register each thread's spawn info via
// RecordSpawn as ThreadCreate events commit.
func New() *Checker {
	return &Checker{spawns: make(map[int]Spawn)}
}

// RecordSpawn registers thread's spawn info.
func (c *Checker) RecordSpawn(thread int, s Spawn) {
	c.spawns[thread] = s
}

// SymmetricPredecessor returns the thread id that thread is symmetric to,
// and whether one is recorded, per spec.md §4.6(a)-(b): equal function-id
// and argument, and an explicit predecessor link.
func (c *Checker) SymmetricPredecessor(thread int) (int, bool) {
	s, ok := c.spawns[thread]
	if !ok || s.Predecessor < 0 {
		return -1, false
	}
	pred, ok := c.spawns[s.Predecessor]
	if !ok || pred.FunctionID != s.FunctionID || pred.Arg != s.Arg {
		return -1, false
	}
	return s.Predecessor, true
}

// MostRecentSpawn returns the highest-numbered already-recorded thread
// spawned with the same functionID/arg pair, for the driver to link a
// freshly created thread's Predecessor (spec.md §4.6(a)-(b)); (-1, false)
// if none was spawned with that pair yet.
func (c *Checker) MostRecentSpawn(functionID int, arg graph.Value) (int, bool) {
	best := -1
	for t, s := range c.spawns {
		if s.FunctionID == functionID && s.Arg == arg && t > best {
			best = t
		}
	}
	if best < 0 {
		return -1, false
	}
	return best, true
}

// sharesPOPrefix reports whether thread and pred's event sequences up to
// (but not including) the given indices are pointwise isomorphic: same
// kind, ordering, and address at every position (spec.md §4.6(c) "no
// memory access occurred between their spawn events" is implied by the
// caller only invoking this once both threads have run the same number of
// steps since spawn).
func sharesPOPrefix(g *graph.ExecutionGraph, thread, pred int, upto int) bool {
	tl := g.ThreadLabels(thread)
	pl := g.ThreadLabels(pred)
	if len(tl) < upto || len(pl) < upto {
		return false
	}
	for i := 0; i < upto; i++ {
		a, b := tl[i], pl[i]
		if a.Kind != b.Kind || a.Ordering != b.Ordering || a.Address != b.Address {
			return false
		}
	}
	return true
}

// FilterCandidates drops, from candidates (a read's coherent rf-sources),
// any write that would make read's access a pointwise copy of its
// symmetric predecessor's corresponding access at the same po-position,
// when that predecessor shares the exact po-prefix up to now (spec.md
// §4.6): the resulting execution would be isomorphic to one already
// covered by exploring the predecessor's branch.
func (c *Checker) FilterCandidates(g *graph.ExecutionGraph, read graph.Event, candidates []graph.Event) []graph.Event {
	pred, ok := c.SymmetricPredecessor(read.ThreadID)
	if !ok {
		return candidates
	}
	if !sharesPOPrefix(g, read.ThreadID, pred, read.Index) {
		return candidates
	}
	predLabels := g.ThreadLabels(pred)
	if read.Index >= len(predLabels) {
		return candidates
	}
	twinRF := predLabels[read.Index].RF
	out := candidates[:0:0]
	for _, cand := range candidates {
		if cand == twinRF {
			continue
		}
		out = append(out, cand)
	}
	if len(out) == 0 {
		// Never drop every candidate: if the twin's rf was the only
		// eligible one, keep it rather than leaving the read with no
		// candidates at all.
		return candidates
	}
	return out
}
