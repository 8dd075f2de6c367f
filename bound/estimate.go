package bound

import "github.com/ygrebnov/wmc/graph"

// Estimator implements Monte-Carlo estimation mode (spec.md §6, §9
// supplemented feature): it folds the branching factor of each recorded
// complete run, taken from that run's choices, into a running estimate of
// the total execution count. It does not itself limit which runs are
// explored.
type Estimator struct {
	budget   int
	spent    int
	estimate float64
}

// NewEstimator returns an Estimator willing to spend at most budget
// sampled executions.
func NewEstimator(budget int) *Estimator {
	return &Estimator{budget: budget}
}

// Exhausted reports whether the estimator's budget has been spent. The
// driver and engine do not consult it; exploration continues regardless.
func (e *Estimator) Exhausted() bool { return e.spent >= e.budget }

// Record folds one completed execution's branching factor into the
// running estimate. branchingFactor is the product, over every choice
// point recorded in choices, of the number of candidates offered there
// (positions with a single candidate contribute a factor of 1 and don't
// affect the estimate).
func (e *Estimator) Record(choices *graph.ChoiceMap, positions []graph.Event) {
	factor := branchingFactor(choices, positions)
	// Running mean: folds the new sample in without keeping every past
	// sample around, since only the aggregate estimate is reported.
	e.estimate += (factor - e.estimate) / float64(e.spent+1)
	e.spent++
}

// Estimate returns the current estimated total execution count.
func (e *Estimator) Estimate() float64 { return e.estimate }

// Spent returns how many samples have been recorded so far.
func (e *Estimator) Spent() int { return e.spent }

func branchingFactor(choices *graph.ChoiceMap, positions []graph.Event) float64 {
	factor := 1.0
	for _, pos := range positions {
		if n := len(choices.Candidates(pos)); n > 1 {
			factor *= float64(n)
		}
	}
	return factor
}
