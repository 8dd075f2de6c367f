package consistency

import (
	"testing"

	"github.com/ygrebnov/wmc/graph"
)

const addrX graph.Address = 1

func buildStoreLoadGraph(t *testing.T) (*graph.ExecutionGraph, graph.Event, graph.Event) {
	t.Helper()
	g := graph.NewExecutionGraph()
	w := g.Append(0, &graph.Label{Kind: graph.KindWrite, Address: addrX, Ordering: graph.SeqCst, Value: 1})
	g.InsertCoherence(addrX, w, graph.Init)

	t1 := g.NewThread()
	r := g.Append(t1, &graph.Label{Kind: graph.KindRead, Address: addrX, Ordering: graph.SeqCst, RF: graph.Init})
	return g, w, r
}

func TestSCChecker_CoherentRFs_InitAndWriteBothCandidates(t *testing.T) {
	g, w, r := buildStoreLoadGraph(t)
	c := New(graph.ModelSC, Options{})

	got := c.CoherentRFs(g, r)
	if len(got) != 2 {
		t.Fatalf("CoherentRFs = %v; want 2 candidates (Init, %s)", got, w)
	}
	if got[len(got)-1] != w {
		t.Fatalf("CoherentRFs last (maximal) candidate = %v; want %v", got[len(got)-1], w)
	}
}

func TestSCChecker_IsConsistent_NoRace(t *testing.T) {
	g, _, r := buildStoreLoadGraph(t)
	c := New(graph.ModelSC, Options{RaceDetection: true})
	if !c.IsConsistent(g, r) {
		t.Fatalf("expected a single-reader, properly ordered read to be consistent")
	}
}

func TestSCChecker_CheckErrors_DetectsDataRace(t *testing.T) {
	g := graph.NewExecutionGraph()
	w := g.Append(0, &graph.Label{Kind: graph.KindWrite, Address: addrX, Ordering: graph.NotAtomic, Value: 1})
	g.InsertCoherence(addrX, w, graph.Init)

	t1 := g.NewThread()
	r := g.Append(t1, &graph.Label{Kind: graph.KindRead, Address: addrX, Ordering: graph.NotAtomic, RF: graph.Init})

	c := New(graph.ModelSC, Options{RaceDetection: true})
	errs := c.CheckErrors(g, r)
	if len(errs) != 1 {
		t.Fatalf("CheckErrors = %v; want exactly one race error", errs)
	}
	if errs[0].Severity() != graph.SeveritySoft {
		t.Fatalf("non-atomic race severity = %v; want Soft", errs[0].Severity())
	}
}

func TestSCChecker_CheckErrors_RaceDetectionDisabled(t *testing.T) {
	g := graph.NewExecutionGraph()
	w := g.Append(0, &graph.Label{Kind: graph.KindWrite, Address: addrX, Ordering: graph.NotAtomic, Value: 1})
	g.InsertCoherence(addrX, w, graph.Init)
	t1 := g.NewThread()
	r := g.Append(t1, &graph.Label{Kind: graph.KindRead, Address: addrX, Ordering: graph.NotAtomic, RF: graph.Init})

	c := New(graph.ModelSC, Options{RaceDetection: false})
	if errs := c.CheckErrors(g, r); len(errs) != 0 {
		t.Fatalf("CheckErrors with race detection disabled = %v; want none", errs)
	}
}

func TestSCChecker_WriteWriteRace_PromotedUnderIPR(t *testing.T) {
	g := graph.NewExecutionGraph()
	w1 := g.Append(0, &graph.Label{Kind: graph.KindWrite, Address: addrX, Ordering: graph.SeqCst, Value: 1})
	g.InsertCoherence(addrX, w1, graph.Init)
	t1 := g.NewThread()
	w2 := g.Append(t1, &graph.Label{Kind: graph.KindWrite, Address: addrX, Ordering: graph.SeqCst, Value: 2})
	g.InsertCoherence(addrX, w2, w1)

	c := New(graph.ModelSC, Options{RaceDetection: true, IPR: true})
	errs := c.CheckErrors(g, w2)
	if len(errs) != 1 || errs[0].Severity() != graph.SeverityHard {
		t.Fatalf("CheckErrors = %v; want one Hard write-write race under IPR", errs)
	}
}

func TestSCChecker_Model(t *testing.T) {
	if got := New(graph.ModelSC, Options{}).Model(); got != graph.ModelSC {
		t.Fatalf("Model() = %v; want ModelSC", got)
	}
}
