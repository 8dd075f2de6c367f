package consistency

import "github.com/ygrebnov/wmc/graph"

// immChecker enforces IMM, the only dependency-tracking model here:
// candidate rf-sources and co-placements are judged against the
// dependency-closed prefix (graph_dep.go's PrefixDepView) rather than the
// full (po∪rf)* prefix, since IMM only requires ordering along an access's
// actual address/data/control dependencies. Race detection still uses
// plain release-acquire hb, since racing is a property of concurrent
// accesses regardless of dependency tracking. Grounded on
// original_source/src/DepExecutionGraph.cpp.
type immChecker struct{ opts Options }

func (c *immChecker) Model() graph.MemoryModel { return graph.ModelIMM }

func (c *immChecker) depView(g *graph.ExecutionGraph, e graph.Event) graph.Prefix {
	return g.PrefixDepView(e)
}

func (c *immChecker) CoherentRFs(g *graph.ExecutionGraph, read graph.Event) []graph.Event {
	return coherentRFsOrdered(g, read, func(e graph.Event) graph.Prefix { return c.depView(g, e) })
}

func (c *immChecker) CoherentPlacements(g *graph.ExecutionGraph, write graph.Event) []graph.Event {
	return coherentPlacementsOrdered(g, write, func(e graph.Event) graph.Prefix { return c.depView(g, e) })
}

func (c *immChecker) IsConsistent(g *graph.ExecutionGraph, at graph.Event) bool {
	for _, e := range c.CheckErrors(g, at) {
		if e.Severity() == graph.SeverityHard {
			return false
		}
	}
	return true
}

func (c *immChecker) CheckErrors(g *graph.ExecutionGraph, at graph.Event) []graph.CheckError {
	hb := happensBeforeRA(g, at)
	return raceErrors(g, at, hb, c.opts.RaceDetection, c.opts.IPR, c.opts.SymmetryReduction)
}

func (c *immChecker) HappensBefore(g *graph.ExecutionGraph, e graph.Event) graph.Prefix {
	return g.PrefixDepView(e)
}

// HazptrSafe uses plain release-acquire hb rather than the dependency-aware
// view, matching CheckErrors' choice above: hazard-pointer liveness is a
// property of concurrent accesses, not of dependency tracking.
func (c *immChecker) HazptrSafe(g *graph.ExecutionGraph, retire graph.Event) bool {
	return hazptrSafe(g, retire, happensBeforeRA(g, retire))
}
