package consistency

import "github.com/ygrebnov/wmc/graph"

// raChecker enforces release-acquire: hb is the (po∪rf)* prefix view
// transitively extended through release/acquire synchronization, with no
// additional SC-fence ordering (that is RC11's addition). Grounded on
// original_source/src/MOCoherenceCalculator.{hpp,cpp}.
type raChecker struct{ opts Options }

func (c *raChecker) Model() graph.MemoryModel { return graph.ModelRA }

func (c *raChecker) CoherentRFs(g *graph.ExecutionGraph, read graph.Event) []graph.Event {
	return coherentRFsOrdered(g, read, func(e graph.Event) graph.Prefix { return happensBeforeRA(g, e) })
}

func (c *raChecker) CoherentPlacements(g *graph.ExecutionGraph, write graph.Event) []graph.Event {
	return coherentPlacementsOrdered(g, write, func(e graph.Event) graph.Prefix { return happensBeforeRA(g, e) })
}

func (c *raChecker) IsConsistent(g *graph.ExecutionGraph, at graph.Event) bool {
	for _, e := range c.CheckErrors(g, at) {
		if e.Severity() == graph.SeverityHard {
			return false
		}
	}
	return true
}

func (c *raChecker) CheckErrors(g *graph.ExecutionGraph, at graph.Event) []graph.CheckError {
	hb := happensBeforeRA(g, at)
	return raceErrors(g, at, hb, c.opts.RaceDetection, c.opts.IPR, c.opts.SymmetryReduction)
}

func (c *raChecker) HappensBefore(g *graph.ExecutionGraph, e graph.Event) graph.Prefix {
	return happensBeforeRA(g, e)
}

func (c *raChecker) HazptrSafe(g *graph.ExecutionGraph, retire graph.Event) bool {
	return hazptrSafe(g, retire, happensBeforeRA(g, retire))
}
