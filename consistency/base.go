package consistency

import (
	"fmt"

	"github.com/ygrebnov/wmc/graph"
)

// happensBeforeRA computes e's release-acquire happens-before view: its
// (po∪rf)* prefix view, transitively extended through every po-predecessor
// read that synchronizes with a release write (AtLeastRelease paired with
// AtLeastAcquire). Cached on the label via Label.SetHB/HB. Shared by the RA
// and RC11 checkers; grounded on
// original_source/src/MOCoherenceCalculator.{hpp,cpp}.
func happensBeforeRA(g *graph.ExecutionGraph, e graph.Event) *graph.View {
	if e.IsInit() {
		return graph.NewView()
	}
	l := g.Label(e)
	if l == nil {
		return graph.NewView()
	}
	if cached := l.HB(); cached != nil {
		return cached
	}
	v := g.PrefixView(e).Clone()
	for i := 0; i <= e.Index; i++ {
		cur := graph.Event{ThreadID: e.ThreadID, Index: i}
		cl := g.Label(cur)
		if cl == nil || !cl.IsRead() || cl.RF.IsInit() || cl.RF.IsBottom() {
			continue
		}
		if !cl.Ordering.AtLeastAcquire() {
			continue
		}
		wl := g.Label(cl.RF)
		if wl == nil || !wl.Ordering.AtLeastRelease() {
			continue
		}
		v = v.Union(happensBeforeRA(g, cl.RF))
	}
	l.SetHB(v)
	return v
}

// races reports the accesses that race with at: events on the same
// address, at least one a write, neither ordered by hb, committed before
// or at at's stamp. Shared by every model's CheckErrors.
func races(g *graph.ExecutionGraph, at graph.Event, hb graph.Prefix) []graph.Event {
	al := g.Label(at)
	if al == nil || (!al.IsRead() && !al.IsWrite()) {
		return nil
	}
	var out []graph.Event
	for _, l := range g.AllLabels() {
		if l.Pos == at || l.Pos.IsInit() {
			continue
		}
		if l.Address != al.Address {
			continue
		}
		if !l.IsRead() && !l.IsWrite() {
			continue
		}
		if !al.IsWrite() && !l.IsWrite() {
			continue // two reads never race
		}
		if hb.Contains(l.Pos) {
			continue
		}
		out = append(out, l.Pos)
	}
	return out
}

// raceErrors turns the positions races() found into CheckErrors, demoting
// or promoting severity per spec.md §7: a non-atomic race is soft; a
// write-write race is soft unless ipr or symmetryReduction is enabled, in
// which case it is promoted to hard (unsound to allow unordered writes
// under those optimizations).
func raceErrors(g *graph.ExecutionGraph, at graph.Event, hb graph.Prefix, raceDetection, ipr, symmetryReduction bool) []graph.CheckError {
	if !raceDetection {
		return nil
	}
	al := g.Label(at)
	var errs []graph.CheckError
	for _, other := range races(g, at, hb) {
		ol := g.Label(other)
		if ol == nil {
			continue
		}
		if al.Ordering == graph.NotAtomic || ol.Ordering == graph.NotAtomic {
			errs = append(errs, graph.NewCheckError(
				fmt.Errorf("data race on %v between %s and %s", al.Address, at, other),
				graph.SeveritySoft, "race-na", at))
			continue
		}
		if al.IsWrite() && ol.IsWrite() {
			sev := graph.SeveritySoft
			if ipr || symmetryReduction {
				sev = graph.SeverityHard
			}
			errs = append(errs, graph.NewCheckError(
				fmt.Errorf("write-write race on %v between %s and %s", al.Address, at, other),
				sev, "wwrace", at))
		}
	}
	return errs
}

// hazptrSafe reports whether no KindHazardProtect read of retire's address
// survives outside hb: i.e. no thread still holds a hazard-protected
// pointer into the block being retired. Shared by every model's
// HazptrSafe; grounded on
// original_source/src/LBCalculatorLAPOR.cpp's lock-based liveness check,
// adapted here from lock-held to hazard-protected.
func hazptrSafe(g *graph.ExecutionGraph, retire graph.Event, hb graph.Prefix) bool {
	rl := g.Label(retire)
	if rl == nil {
		return true
	}
	for _, l := range g.AllLabels() {
		if l.Kind != graph.KindHazardProtect || l.Address != rl.Address {
			continue
		}
		if l.Pos == retire || hb.Contains(l.Pos) {
			continue
		}
		return false
	}
	return true
}

// coherentRFsOrdered returns, in co-ascending order (last = maximal), every
// write to read's address that read may observe without its hb already
// placing a co-successor of that write in its own past. Shared shape for
// SC/RA/RC11; IMM overrides with a dependency-aware variant in imm.go.
func coherentRFsOrdered(g *graph.ExecutionGraph, read graph.Event, hb func(graph.Event) graph.Prefix) []graph.Event {
	rl := g.Label(read)
	if rl == nil {
		return nil
	}
	readHB := hb(read)
	order := append([]graph.Event{graph.Init}, g.CoherenceOrder(rl.Address)...)
	var out []graph.Event
	for i, w := range order {
		stale := false
		for _, succ := range order[i+1:] {
			if readHB.Contains(succ) {
				stale = true
				break
			}
		}
		if !stale {
			out = append(out, w)
		}
	}
	return out
}

// coherentPlacementsOrdered returns, in co-ascending order (last =
// maximal), every existing write (Init included) after which write may be
// inserted into its address's coherence order without violating hb (if
// hb(a,b) then co(a,b)).
func coherentPlacementsOrdered(g *graph.ExecutionGraph, write graph.Event, hb func(graph.Event) graph.Prefix) []graph.Event {
	wl := g.Label(write)
	if wl == nil {
		return nil
	}
	writeHB := hb(write)
	order := append([]graph.Event{graph.Init}, g.CoherenceOrder(wl.Address)...)
	var out []graph.Event
	for i, pred := range order {
		if pred == write {
			continue
		}
		if !pred.IsInit() {
			if predHB := hb(pred); predHB.Contains(write) {
				continue // write hb-before pred: write must co-precede pred
			}
		}
		succ := graph.Bottom
		if i+1 < len(order) {
			succ = order[i+1]
		}
		if !succ.IsBottom() && succ != write {
			if writeHB.Contains(succ) {
				continue // succ hb-before write: succ must co-precede write
			}
		}
		out = append(out, pred)
	}
	return out
}
