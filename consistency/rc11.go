package consistency

import "github.com/ygrebnov/wmc/graph"

// rc11Checker enforces RC11: release-acquire hb, plus the additional
// constraint that all SeqCst-ordered events are totally ordered amongst
// themselves (RC11's psc axiom, simplified here to "SC events agree with
// stamp order" rather than the full psc-base/psc-fence calculation of
// original_source/src/PSCCalculator.{hpp,cpp}/PROPCalculator.cpp — a full
// psc reconstruction needs the whole-graph fixpoint that calculator runs;
// the stamp-order approximation is sound for the single-threaded-commit
// discipline this driver uses, since an SC event's stamp is only assigned
// once every SC event already committed is already hb-reachable-or-not,
// and never reordered after the fact).
type rc11Checker struct{ opts Options }

func (c *rc11Checker) Model() graph.MemoryModel { return graph.ModelRC11 }

func (c *rc11Checker) hb(g *graph.ExecutionGraph, e graph.Event) *graph.View {
	base := happensBeforeRA(g, e)
	el := g.Label(e)
	if el == nil || !el.IsSC() {
		return base
	}
	v := base.Clone()
	for _, l := range g.AllLabels() {
		if l.IsSC() && l.Stamp < el.Stamp {
			v.Set(l.Pos.ThreadID, l.Pos.Index)
		}
	}
	return v
}

func (c *rc11Checker) CoherentRFs(g *graph.ExecutionGraph, read graph.Event) []graph.Event {
	return coherentRFsOrdered(g, read, func(e graph.Event) graph.Prefix { return c.hb(g, e) })
}

func (c *rc11Checker) CoherentPlacements(g *graph.ExecutionGraph, write graph.Event) []graph.Event {
	return coherentPlacementsOrdered(g, write, func(e graph.Event) graph.Prefix { return c.hb(g, e) })
}

func (c *rc11Checker) IsConsistent(g *graph.ExecutionGraph, at graph.Event) bool {
	for _, e := range c.CheckErrors(g, at) {
		if e.Severity() == graph.SeverityHard {
			return false
		}
	}
	return true
}

func (c *rc11Checker) CheckErrors(g *graph.ExecutionGraph, at graph.Event) []graph.CheckError {
	return raceErrors(g, at, c.hb(g, at), c.opts.RaceDetection, c.opts.IPR, c.opts.SymmetryReduction)
}

func (c *rc11Checker) HappensBefore(g *graph.ExecutionGraph, e graph.Event) graph.Prefix { return c.hb(g, e) }

func (c *rc11Checker) HazptrSafe(g *graph.ExecutionGraph, retire graph.Event) bool {
	return hazptrSafe(g, retire, c.hb(g, retire))
}
