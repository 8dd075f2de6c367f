package wmc

import "errors"

// Namespace prefixes every sentinel error message, matching the teacher's
// convention in its own errors.go.
const Namespace = "wmc"

var (
	ErrInvalidConfig      = errors.New(Namespace + ": invalid configuration")
	ErrConflictingOption  = errors.New(Namespace + ": conflicting engine options")
	ErrUnknownMemoryModel = errors.New(Namespace + ": unknown memory model")
	ErrHalted             = errors.New(Namespace + ": exploration halted by a hard error")
	ErrNoRunnableThread   = errors.New(Namespace + ": no thread is runnable and none are blocked-but-resolvable")
)
