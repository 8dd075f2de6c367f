package wmc

import (
	"testing"

	"github.com/ygrebnov/wmc/graph"
)

const revisitTestAddr graph.Address = 7

func TestConfirmationAllows_NonConfirmingReadAlwaysAllowed(t *testing.T) {
	d := &Driver{}
	e := graph.NewExecution()
	r := e.Graph.Append(0, &graph.Label{Kind: graph.KindRead, Address: revisitTestAddr})
	if !d.confirmationAllows(e, r) {
		t.Fatalf("confirmationAllows = false; want true for a plain read")
	}
}

func TestConfirmationAllows_ConfirmingReadWithMatchingSpeculation(t *testing.T) {
	d := &Driver{}
	e := graph.NewExecution()
	e.Graph.Append(0, &graph.Label{Kind: graph.KindSpeculativeRead, Address: revisitTestAddr})
	r := e.Graph.Append(0, &graph.Label{Kind: graph.KindConfirmingRead, Address: revisitTestAddr})
	if !d.confirmationAllows(e, r) {
		t.Fatalf("confirmationAllows = false; want true when a matching speculative read precedes the confirming read")
	}
}

func TestConfirmationAllows_ConfirmingReadWithoutSpeculationRejected(t *testing.T) {
	d := &Driver{}
	e := graph.NewExecution()
	r := e.Graph.Append(0, &graph.Label{Kind: graph.KindConfirmingRead, Address: revisitTestAddr})
	if d.confirmationAllows(e, r) {
		t.Fatalf("confirmationAllows = true; want false for a confirming read with no preceding speculative read")
	}
}

func TestConfirmationAllows_SpeculationOnDifferentAddressDoesNotMatch(t *testing.T) {
	d := &Driver{}
	e := graph.NewExecution()
	const other graph.Address = 8
	e.Graph.Append(0, &graph.Label{Kind: graph.KindSpeculativeRead, Address: other})
	r := e.Graph.Append(0, &graph.Label{Kind: graph.KindConfirmingRead, Address: revisitTestAddr})
	if d.confirmationAllows(e, r) {
		t.Fatalf("confirmationAllows = true; want false when the preceding speculative read is for a different address")
	}
}

func TestBarrierRoundAlreadyCovered_FirstReaderNotCovered(t *testing.T) {
	e := graph.NewExecution()
	w := e.Graph.Append(0, &graph.Label{Kind: graph.KindWrite, Address: revisitTestAddr})
	e.Graph.InsertCoherence(revisitTestAddr, w, graph.Init)
	t1 := e.Graph.NewThread()
	r := e.Graph.Append(t1, &graph.Label{Kind: graph.KindBarrierWait, Address: revisitTestAddr})
	e.Graph.SetRF(r, w)
	if barrierRoundAlreadyCovered(e, w, r) {
		t.Fatalf("barrierRoundAlreadyCovered = true; want false when r is w's only barrier-wait reader")
	}
}

func TestBarrierRoundAlreadyCovered_SecondReaderCovered(t *testing.T) {
	e := graph.NewExecution()
	w := e.Graph.Append(0, &graph.Label{Kind: graph.KindWrite, Address: revisitTestAddr})
	e.Graph.InsertCoherence(revisitTestAddr, w, graph.Init)
	t1 := e.Graph.NewThread()
	r1 := e.Graph.Append(t1, &graph.Label{Kind: graph.KindBarrierWait, Address: revisitTestAddr})
	e.Graph.SetRF(r1, w)
	t2 := e.Graph.NewThread()
	r2 := e.Graph.Append(t2, &graph.Label{Kind: graph.KindBarrierWait, Address: revisitTestAddr})
	e.Graph.SetRF(r2, w)
	if !barrierRoundAlreadyCovered(e, w, r2) {
		t.Fatalf("barrierRoundAlreadyCovered = false; want true once another barrier-wait reader is already bound to w")
	}
}

func TestBarrierRoundAlreadyCovered_NonBarrierReadIgnored(t *testing.T) {
	e := graph.NewExecution()
	w := e.Graph.Append(0, &graph.Label{Kind: graph.KindWrite, Address: revisitTestAddr})
	e.Graph.InsertCoherence(revisitTestAddr, w, graph.Init)
	t1 := e.Graph.NewThread()
	r := e.Graph.Append(t1, &graph.Label{Kind: graph.KindRead, Address: revisitTestAddr})
	e.Graph.SetRF(r, w)
	if barrierRoundAlreadyCovered(e, w, r) {
		t.Fatalf("barrierRoundAlreadyCovered = true; want false for a plain (non-barrier) read")
	}
}
