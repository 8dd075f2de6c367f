// Package bound implements the optional bound decider of spec.md §4.5:
// computing an exploration's metric (context-switch count or round count)
// and comparing it against a user budget. Grounded on spec.md §4.5 and GenMC's
// ThreadPool.cpp estimation-mode glue (original_source/src/ThreadPool.cpp,
// src/Support/ThreadPool.{hpp,cpp}).
package bound

import "github.com/ygrebnov/wmc/graph"

// Decider computes a metric over an execution graph and compares it
// against a configured bound, using one of two strategies: Slacked for
// mid-execution admissibility checks, NonSlacked for end-of-execution
// reporting.
type Decider struct {
	metric graph.BoundMetric
	bound  int
}

// New returns a Decider enforcing bound on metric.
func New(metric graph.BoundMetric, bound int) *Decider {
	return &Decider{metric: metric, bound: bound}
}

// Value computes the configured metric over g.
func (d *Decider) Value(g *graph.ExecutionGraph) int {
	switch d.metric {
	case graph.BoundRounds:
		return rounds(g)
	default:
		return contextSwitches(g)
	}
}

// Slacked is the partial, mid-execution check (spec.md §4.5): admits
// executions that may still fit under the bound, rejecting only those that
// already cannot. A true result means the frame may still fit under the
// bound. The driver does not call Slacked; it consults only NonSlacked,
// once per completed execution.
//
// Open question (b) of spec.md §9: this is intentionally asymmetric with
// NonSlacked rather than sharing one comparison — Slacked uses <= because
// a frame sitting exactly at the bound may still complete without another
// context switch, whereas NonSlacked uses < because a complete execution
// that used every switch the budget allowed is, by convention, considered
// to have exceeded it. This asymmetry is preserved rather than unified, as
// the source leaves it.
func (d *Decider) Slacked(g *graph.ExecutionGraph) bool {
	return d.Value(g) <= d.bound
}

// NonSlacked is the full, end-of-execution check (spec.md §4.5): called
// once a frame's interpretation is done, to decide whether the completed
// execution counts as bound-exceeding in the final report.
func (d *Decider) NonSlacked(g *graph.ExecutionGraph) bool {
	return d.Value(g) < d.bound
}

// contextSwitches counts transitions between threads across the graph's
// stamp-ordered event sequence.
func contextSwitches(g *graph.ExecutionGraph) int {
	labels := g.AllLabels()
	switches := 0
	for i := 1; i < len(labels); i++ {
		if labels[i].Pos.ThreadID != labels[i-1].Pos.ThreadID {
			switches++
		}
	}
	return switches
}

// rounds approximates GenMC's notion of execution "rounds" as the number
// of times context switching has cycled through every live thread at
// least once; a coarser, thread-count-normalized view of the same
// schedule contextSwitches already counts.
func rounds(g *graph.ExecutionGraph) int {
	n := g.NumThreads()
	if n == 0 {
		return 0
	}
	switches := contextSwitches(g)
	return (switches + n - 1) / n
}
