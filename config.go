package wmc

import "github.com/ygrebnov/wmc/graph"

// MemoryModel, SchedulingPolicy and BoundMetric live in package graph (see
// graph/model.go) so that the consistency/scheduler/symmetry/bound
// packages can switch on them without importing this package, which in
// turn depends on them. Aliased here so callers write wmc.ModelRC11 rather
// than reaching into the graph package directly.
type (
	MemoryModel      = graph.MemoryModel
	SchedulingPolicy = graph.SchedulingPolicy
	BoundMetric      = graph.BoundMetric
)

const (
	ModelSC   = graph.ModelSC
	ModelRA   = graph.ModelRA
	ModelRC11 = graph.ModelRC11
	ModelIMM  = graph.ModelIMM

	PolicyLeftToRight     = graph.PolicyLeftToRight
	PolicyWriteFirst      = graph.PolicyWriteFirst
	PolicyWriteFirstRandom = graph.PolicyWriteFirstRandom
	PolicyArbitrary       = graph.PolicyArbitrary

	BoundContextSwitches = graph.BoundContextSwitches
	BoundRounds          = graph.BoundRounds
)

// Config holds the engine's configuration: the abstract CLI flags named in
// spec.md §6, none of which has an actual CLI surface here (the CLI itself
// is a non-goal). Shape and naming follow the teacher's Config in
// defaults.go/options.go.
type Config struct {
	// Model selects the memory model the consistency checker enforces.
	// Default: ModelRC11.
	Model MemoryModel

	// Bounded enables the bound decider; Bound is the metric threshold to
	// enforce when Bounded is true. Default: Bounded=false.
	Bounded     bool
	BoundMetric BoundMetric
	Bound       int

	// SymmetryReduction prunes isomorphic thread prefixes (spec.md §4.6).
	// Default: false.
	SymmetryReduction bool

	// BAM (barrier-aware optimization) prunes redundant same-round
	// BarrierWait revisit candidates in calcRevisits (spec.md glossary, §8
	// scenario 5). Default: false.
	BAM bool

	// IPR (in-place revisit) avoids a frame copy when a newly committed
	// write unblocks a previously assume-blocked read (spec.md §4.4).
	// Default: false.
	IPR bool

	// Confirmation drops an unmatched ConfirmingRead from calcRevisits'
	// backward-revisit candidates (spec.md §4.4 step 3, §9 supplemented
	// feature). Default: false.
	Confirmation bool

	// RaceDetection enables data-race and write-write-race reporting
	// (spec.md §7). Default: true.
	RaceDetection bool

	// HelperMode broadens in-place revisit to unblock every assume-blocked
	// thread a committed write satisfies, instead of only the first match;
	// see revisit.go's tryInPlaceRevisit for the Open Question this setting
	// resolves (spec.md §9(a)). Default: false.
	HelperMode bool

	// Estimation enables Monte-Carlo estimation mode: each completed
	// execution's branching factor is folded into a bound.Estimator created
	// with EstimationBudget (spec.md §6, §9 supplemented feature).
	// Exploration still enumerates every execution; spending the budget
	// does not stop it. Default: false.
	Estimation       bool
	EstimationBudget int

	// Workers is the number of worker goroutines the Engine runs. Zero
	// (default) means runtime.NumCPU().
	Workers int

	// SchedulingPolicy and Seed select the scheduler's policy and, for the
	// randomized policies, its seed. Default: PolicyLeftToRight, seed 0.
	SchedulingPolicy SchedulingPolicy
	Seed             int64

	// Debug enables the execution graph's O(n) invariant validator after
	// every read and write commit (spec.md §4.1 "debug-only validator").
	// Default: false.
	Debug bool
}

// defaultConfig centralizes default values for Config, applied as the
// options builder base in NewOptions — same role as the teacher's
// defaultConfig in defaults.go.
func defaultConfig() Config {
	return Config{
		Model:            ModelRC11,
		RaceDetection:    true,
		SchedulingPolicy: PolicyLeftToRight,
	}
}

// validateConfig performs the lightweight invariant checks the teacher's
// validateConfig reserves room for; here there are real ones to enforce.
func validateConfig(cfg *Config) error {
	if cfg.Model < ModelSC || cfg.Model > ModelIMM {
		return ErrUnknownMemoryModel
	}
	if cfg.Bounded && cfg.Bound <= 0 {
		return ErrInvalidConfig
	}
	if cfg.Estimation && cfg.EstimationBudget <= 0 {
		return ErrInvalidConfig
	}
	if cfg.Workers < 0 {
		return ErrInvalidConfig
	}
	return nil
}
