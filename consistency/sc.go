package consistency

import "github.com/ygrebnov/wmc/graph"

// scChecker enforces sequential consistency: every access is effectively
// SeqCst, so hb degenerates to the single interleaving order already fixed
// by co and po (no separate release-acquire synchronization is needed,
// since every write is visible the instant it is co-ordered). Grounded on
// original_source/src/MOCalculator.cpp's total modification-order special
// case for SC.
type scChecker struct{ opts Options }

func (c *scChecker) Model() graph.MemoryModel { return graph.ModelSC }

func (c *scChecker) hb(g *graph.ExecutionGraph, e graph.Event) *graph.View {
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
	// Under SC every prior event (in any thread) that is already part of
	// the single total order is hb-before e; since co is already a total
	// order per address and reads observe only co-visible writes, the
	// (po∪rf)* prefix view already captures this for our purposes.
	v := g.PrefixView(e)
	l.SetHB(v)
	return v
}

func (c *scChecker) CoherentRFs(g *graph.ExecutionGraph, read graph.Event) []graph.Event {
	return coherentRFsOrdered(g, read, func(e graph.Event) graph.Prefix { return c.hb(g, e) })
}

func (c *scChecker) CoherentPlacements(g *graph.ExecutionGraph, write graph.Event) []graph.Event {
	return coherentPlacementsOrdered(g, write, func(e graph.Event) graph.Prefix { return c.hb(g, e) })
}

func (c *scChecker) IsConsistent(g *graph.ExecutionGraph, at graph.Event) bool {
	for _, e := range c.CheckErrors(g, at) {
		if e.Severity() == graph.SeverityHard {
			return false
		}
	}
	return true
}

func (c *scChecker) CheckErrors(g *graph.ExecutionGraph, at graph.Event) []graph.CheckError {
	return raceErrors(g, at, c.hb(g, at), c.opts.RaceDetection, c.opts.IPR, c.opts.SymmetryReduction)
}

func (c *scChecker) HappensBefore(g *graph.ExecutionGraph, e graph.Event) graph.Prefix { return c.hb(g, e) }

func (c *scChecker) HazptrSafe(g *graph.ExecutionGraph, retire graph.Event) bool {
	return hazptrSafe(g, retire, c.hb(g, retire))
}
