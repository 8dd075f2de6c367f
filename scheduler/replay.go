package scheduler

import "github.com/ygrebnov/wmc/graph"

// Linearize computes a thread-id sequence that replays g's events in an
// order consistent with (po∪rf): a DFS from each thread's last event,
// visiting a read's rf-source before the read itself, and a thread's
// event at index i before index i+1. Used to prime PrimeReplay when
// resuming a restricted or cloned frame (spec.md §4.3 "Replay mode").
func Linearize(g *graph.ExecutionGraph) []int {
	visited := make(map[graph.Event]bool)
	var order []int

	var visit func(e graph.Event)
	visit = func(e graph.Event) {
		if e.IsInit() || e.IsBottom() || visited[e] {
			return
		}
		visited[e] = true
		l := g.Label(e)
		if l == nil {
			return
		}
		if e.Index > 0 {
			visit(graph.Event{ThreadID: e.ThreadID, Index: e.Index - 1})
		}
		if l.IsRead() && !l.RF.IsInit() && !l.RF.IsBottom() {
			visit(l.RF)
		}
		order = append(order, e.ThreadID)
	}

	for t := 0; t < g.NumThreads(); t++ {
		n := g.ThreadLen(t)
		if n == 0 {
			continue
		}
		visit(graph.Event{ThreadID: t, Index: n - 1})
	}
	return order
}
