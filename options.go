package wmc

import "fmt"

// Option configures an Engine. Use NewOptions(opts...) to build a validated
// Config, mirroring the teacher's options.go NewOptions/Option pattern.
type Option func(*Config)

// WithMemoryModel selects the consistency checker the driver consults.
func WithMemoryModel(m MemoryModel) Option {
	return func(c *Config) { c.Model = m }
}

// WithBound enables the bound decider: each completed execution whose
// metric count reaches n is counted in Result.BoundExceeding. Exploration
// of a frame is not cut short when its count exceeds n. Panics if n <= 0.
func WithBound(metric BoundMetric, n int) Option {
	return func(c *Config) {
		if n <= 0 {
			panic("wmc: WithBound requires n > 0")
		}
		c.Bounded = true
		c.BoundMetric = metric
		c.Bound = n
	}
}

// WithSymmetryReduction enables pruning of isomorphic thread prefixes.
func WithSymmetryReduction() Option {
	return func(c *Config) { c.SymmetryReduction = true }
}

// WithBAM enables the barrier-aware optimization, pruning redundant
// same-round BarrierWait revisit candidates.
func WithBAM() Option {
	return func(c *Config) { c.BAM = true }
}

// WithIPR enables in-place revisit, avoiding a frame clone when a freshly
// committed write unblocks a previously assume-blocked read.
func WithIPR() Option {
	return func(c *Config) { c.IPR = true }
}

// WithConfirmation enables the confirmation-based revisit filter, dropping
// a ConfirmingRead revisit candidate that has no matching preceding
// SpeculativeRead.
func WithConfirmation() Option {
	return func(c *Config) { c.Confirmation = true }
}

// WithRaceDetection toggles data-race and write-write-race reporting
// (enabled by default; pass false to disable).
func WithRaceDetection(enabled bool) Option {
	return func(c *Config) { c.RaceDetection = enabled }
}

// WithHelperMode makes in-place revisit unblock every assume-blocked thread
// a committed write satisfies, instead of only the first; see
// Config.HelperMode.
func WithHelperMode() Option {
	return func(c *Config) { c.HelperMode = true }
}

// WithEstimation enables Monte-Carlo estimation mode with the given sample
// budget; see Config.Estimation (exploration is not cut short once the
// budget is spent). Panics if budget <= 0.
func WithEstimation(budget int) Option {
	return func(c *Config) {
		if budget <= 0 {
			panic("wmc: WithEstimation requires budget > 0")
		}
		c.Estimation = true
		c.EstimationBudget = budget
	}
}

// WithWorkers sets the number of worker goroutines the Engine runs. n == 0
// means runtime.NumCPU(); n < 0 panics.
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n < 0 {
			panic("wmc: WithWorkers requires n >= 0")
		}
		c.Workers = n
	}
}

// WithSchedulingPolicy selects the scheduler's policy and, for the
// randomized policies, its seed. seed is ignored by deterministic policies.
func WithSchedulingPolicy(policy SchedulingPolicy, seed int64) Option {
	return func(c *Config) {
		c.SchedulingPolicy = policy
		c.Seed = seed
	}
}

// WithDebug enables the execution graph's invariant validator after every
// read and write commit. Meant for tests, not production runs: it is O(n)
// per commit.
func WithDebug() Option {
	return func(c *Config) { c.Debug = true }
}

// NewOptions builds a validated Config from opts, starting from
// defaultConfig(), the same two-step "base then apply options then
// validate" shape as the teacher's NewOptions in options.go.
func NewOptions(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			panic("wmc: nil engine option")
		}
		opt(&cfg)
	}
	if err := validateConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("wmc: invalid engine config: %w", err)
	}
	return cfg, nil
}
