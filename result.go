package wmc

import (
	"fmt"
	"sync"

	"github.com/ygrebnov/wmc/graph"
)

// Warning is one soft-error occurrence surfaced in a Result, the first (and
// only) report of its code for the execution it came from (spec.md §7).
type Warning struct {
	ExecutionID string
	Code        string
	At          graph.Event
	Message     string
}

// Result aggregates the outcome of a full Engine run: per-execution
// counters (spec.md §4.4 "Termination"), every hard error encountered (any
// one of which halts the whole run), and every distinct soft-error warning
// reported across all executions.
//
// Safe for concurrent use: engine.go's workers each report into the same
// Result as they finish executions.
type Result struct {
	mu sync.Mutex

	Explored       int
	Blocked        int
	Moot           int
	BoundExceeding int

	Errors   []error
	Warnings []Warning
}

// NewResult returns an empty, ready-to-use Result.
func NewResult() *Result { return &Result{} }

// recordComplete tallies one execution's outcome against the counters
// described in spec.md §4.4 "Termination". An execution can be more than
// one of these at once (e.g. moot and bound-exceeding); all that apply are
// counted.
func (r *Result) recordComplete(e *graph.Execution, boundExceeding bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Explored++
	if e.Blocked != "" {
		r.Blocked++
	}
	if e.Moot {
		r.Moot++
	}
	if boundExceeding {
		r.BoundExceeding++
	}
}

// recordWarning appends a soft-error warning.
func (r *Result) recordWarning(executionID string, ce graph.CheckError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, Warning{
		ExecutionID: executionID,
		Code:        ce.Code(),
		At:          ce.At(),
		Message:     ce.Error(),
	})
}

// recordError appends a hard error. The caller is responsible for also
// setting the shared halt flag (engine.go); Result only accumulates the
// report.
func (r *Result) recordError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, err)
}

// Halted reports whether any hard error was recorded.
func (r *Result) Halted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Errors) > 0
}

func (r *Result) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf(
		"explored=%d blocked=%d moot=%d bound-exceeding=%d errors=%d warnings=%d",
		r.Explored, r.Blocked, r.Moot, r.BoundExceeding, len(r.Errors), len(r.Warnings),
	)
}
