// Package consistency implements the memory-model-specific consistency
// queries of spec.md §4.2: candidate rf-sources for a read, candidate
// coherence placements for a write, and the is-consistent/check-errors
// query pair. Four models are provided: SC, RA, RC11, IMM.
//
// Grounded on original_source/src/MOCalculator.cpp (SC's total modification
// order special case), MOCoherenceCalculator.{hpp,cpp} (release/acquire
// coherence), PSCCalculator.{hpp,cpp}/PROPCalculator.cpp (RC11's extra
// SC-fence ordering), and DepExecutionGraph.cpp (IMM's dependency-aware
// prefix).
package consistency

import "github.com/ygrebnov/wmc/graph"

// Checker is the per-model query surface the driver consults on every
// commit (spec.md §4.2).
type Checker interface {
	// CoherentRFs returns every write read may observe without breaking
	// coherence/hb, ordered so the last element is the maximal (preferred)
	// choice.
	CoherentRFs(g *graph.ExecutionGraph, read graph.Event) []graph.Event

	// CoherentPlacements returns every co-predecessor at which write may be
	// inserted into its address's coherence order, ordered so the last
	// element is the maximal (preferred) choice.
	CoherentPlacements(g *graph.ExecutionGraph, write graph.Event) []graph.Event

	// IsConsistent reports whether committing at has not violated the
	// model's axioms.
	IsConsistent(g *graph.ExecutionGraph, at graph.Event) bool

	// CheckErrors returns every hard or soft error raised by committing at.
	CheckErrors(g *graph.ExecutionGraph, at graph.Event) []graph.CheckError

	// HappensBefore returns the happens-before view of e: its prefix view,
	// refined by the model's synchronization edges (release-acquire pairs,
	// and under RC11 also the stamp order among SeqCst events). IMM returns
	// a *graph.DepView; every
	// other model returns a *graph.View — both satisfy graph.Prefix.
	HappensBefore(g *graph.ExecutionGraph, e graph.Event) graph.Prefix

	// Model identifies which memory model this checker enforces.
	Model() graph.MemoryModel

	// HazptrSafe reports whether retiring the address freed at retire does
	// not race a hazard-protected read of it still outside retire's
	// happens-before (spec.md §3's HazptrRetire kind; see DESIGN.md).
	HazptrSafe(g *graph.ExecutionGraph, retire graph.Event) bool
}

// Options carries the subset of the engine's Config each checker needs to
// decide error severity; kept separate from Config itself so this package
// does not need to import the engine/driver-only fields (which would
// import back down to this package).
type Options struct {
	RaceDetection     bool
	IPR               bool
	SymmetryReduction bool
}

// New returns the Checker for m, configured with opts.
func New(m graph.MemoryModel, opts Options) Checker {
	switch m {
	case graph.ModelSC:
		return &scChecker{opts: opts}
	case graph.ModelRA:
		return &raChecker{opts: opts}
	case graph.ModelRC11:
		return &rc11Checker{opts: opts}
	case graph.ModelIMM:
		return &immChecker{opts: opts}
	default:
		return &rc11Checker{opts: opts}
	}
}
