package wmc

import (
	"errors"
	"fmt"

	"github.com/ygrebnov/wmc/graph"
)

// TracedError exposes the instruction-level trace reconstructed for a hard
// error (spec.md §7: "a hard error triggers a graph replay to reconstruct
// the interpreter's instruction-level trace up to the offending event").
//
// This generalizes the teacher's error_tagging.go TaskMetaError the same
// way: a small unexported struct wrapping the underlying error plus
// Unwrap/accessor methods, so callers use errors.As instead of a type
// switch — same idiom, different payload (a trace instead of a task
// id/index).
type TracedError interface {
	error
	Unwrap() error
	Trace() []graph.Event
	ExecutionID() string
}

type tracedError struct {
	err    error
	trace  []graph.Event
	execID string
}

func newTracedError(err error, trace []graph.Event, execID string) error {
	if err == nil {
		return nil
	}
	return &tracedError{err: err, trace: append([]graph.Event(nil), trace...), execID: execID}
}

func (e *tracedError) Error() string       { return e.err.Error() }
func (e *tracedError) Unwrap() error       { return e.err }
func (e *tracedError) Trace() []graph.Event { return e.trace }
func (e *tracedError) ExecutionID() string { return e.execID }

func (e *tracedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "execution(%s) trace=%v: %+v", e.execID, e.trace, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractTrace returns the reconstructed trace from err if present.
func ExtractTrace(err error) ([]graph.Event, bool) {
	var te TracedError
	if errors.As(err, &te) {
		return te.Trace(), true
	}
	return nil, false
}

// ExtractExecutionID returns the id of the execution that produced err, if
// present.
func ExtractExecutionID(err error) (string, bool) {
	var te TracedError
	if errors.As(err, &te) {
		return te.ExecutionID(), true
	}
	return "", false
}
