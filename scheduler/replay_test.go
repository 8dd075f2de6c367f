package scheduler

import (
	"reflect"
	"testing"

	"github.com/ygrebnov/wmc/graph"
)

// TestLinearize_RFSourceBeforeRead builds thread 0: store x=1, thread 1:
// load x (reading thread 0's store). Linearize must visit the write before
// the read that observes it.
func TestLinearize_RFSourceBeforeRead(t *testing.T) {
	g := graph.NewExecutionGraph()
	wPos := g.Append(0, &graph.Label{Kind: graph.KindWrite})
	t1 := g.NewThread()
	rPos := g.Append(t1, &graph.Label{Kind: graph.KindRead, RF: wPos})

	order := Linearize(g)

	wIdx, rIdx := -1, -1
	for i, th := range order {
		if th == wPos.ThreadID && wIdx == -1 {
			wIdx = i
		}
		if th == rPos.ThreadID && rIdx == -1 {
			rIdx = i
		}
	}
	if wIdx == -1 || rIdx == -1 {
		t.Fatalf("order %v missing one of the threads", order)
	}
	if wIdx > rIdx {
		t.Fatalf("order %v: write's thread must appear no later than read's thread", order)
	}
}

func TestLinearize_ReadOfInitNeedsNoPredecessorVisit(t *testing.T) {
	g := graph.NewExecutionGraph()
	g.Append(0, &graph.Label{Kind: graph.KindRead, RF: graph.Init})

	order := Linearize(g)
	if !reflect.DeepEqual(order, []int{0}) {
		t.Fatalf("order = %v; want [0]", order)
	}
}

func TestLinearize_EmptyGraphHasNoOrder(t *testing.T) {
	g := graph.NewExecutionGraph()
	order := Linearize(g)
	if len(order) != 0 {
		t.Fatalf("order = %v; want empty (graph has only the implicit Init label)", order)
	}
}

func TestLinearize_ProgramOrderPreservedWithinThread(t *testing.T) {
	g := graph.NewExecutionGraph()
	g.Append(0, &graph.Label{Kind: graph.KindWrite})
	g.Append(0, &graph.Label{Kind: graph.KindWrite})
	g.Append(0, &graph.Label{Kind: graph.KindWrite})

	order := Linearize(g)
	if !reflect.DeepEqual(order, []int{0, 0, 0}) {
		t.Fatalf("order = %v; want [0,0,0] (one entry per committed event, in program order)", order)
	}
}
