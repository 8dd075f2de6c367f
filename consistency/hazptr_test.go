package consistency

import (
	"testing"

	"github.com/ygrebnov/wmc/graph"
)

func TestHazptrSafe_NoProtectedReads(t *testing.T) {
	g := graph.NewExecutionGraph()
	c := New(graph.ModelSC, Options{})
	retire := g.Append(0, &graph.Label{Kind: graph.KindHazptrRetire, Address: addrX})
	if !c.HazptrSafe(g, retire) {
		t.Fatalf("HazptrSafe = false; want true with no hazard-protected reads at all")
	}
}

func TestHazptrSafe_ProtectedReadBeforeRetireInSameThread(t *testing.T) {
	g := graph.NewExecutionGraph()
	c := New(graph.ModelSC, Options{})
	g.Append(0, &graph.Label{Kind: graph.KindHazardProtect, Address: addrX, Ordering: graph.SeqCst})
	retire := g.Append(0, &graph.Label{Kind: graph.KindHazptrRetire, Address: addrX})
	if !c.HazptrSafe(g, retire) {
		t.Fatalf("HazptrSafe = false; want true when the only hazard-protected read precedes retire in program order")
	}
}

func TestHazptrSafe_ConcurrentProtectedReadRacesRetire(t *testing.T) {
	g := graph.NewExecutionGraph()
	c := New(graph.ModelSC, Options{})
	t1 := g.NewThread()
	g.Append(t1, &graph.Label{Kind: graph.KindHazardProtect, Address: addrX, Ordering: graph.SeqCst})
	retire := g.Append(0, &graph.Label{Kind: graph.KindHazptrRetire, Address: addrX})
	if c.HazptrSafe(g, retire) {
		t.Fatalf("HazptrSafe = true; want false when a concurrent hazard-protected read of the freed address survives")
	}
}

func TestHazptrSafe_DifferentAddressIgnored(t *testing.T) {
	g := graph.NewExecutionGraph()
	c := New(graph.ModelSC, Options{})
	const addrY graph.Address = 2
	t1 := g.NewThread()
	g.Append(t1, &graph.Label{Kind: graph.KindHazardProtect, Address: addrY, Ordering: graph.SeqCst})
	retire := g.Append(0, &graph.Label{Kind: graph.KindHazptrRetire, Address: addrX})
	if !c.HazptrSafe(g, retire) {
		t.Fatalf("HazptrSafe = false; want true when the surviving protected read is for a different address")
	}
}
