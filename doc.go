// Package wmc provides a stateless model checker for concurrent programs
// under a choice of weak memory models (SC, RA, RC11, IMM).
//
// The package explores the space of consistent execution graphs reachable
// from an interpreted program: each graph is extended by committing one
// event at a time, and alternate behaviors are recovered by revisiting an
// earlier point in the graph (rebinding a read to a different write, or
// reordering a write's place in its coherence order). Before resuming a
// revisited graph the driver rewinds the interpreter (Interpreter.Rewind)
// and primes the scheduler to replay the surviving events.
//
// Constructors
//   - NewOptions(opts ...Option): builds a validated Config. This is the
//     only supported way to configure a run; there is no bare New(Config)
//     entry point because Config's fields interact (see options.go).
//   - NewEngine(cfg Config, program Interpreter): builds a ready-to-run
//     Engine over an interpreter-supplied program.
//
// Defaults
// Unless overridden via Option, a Config has:
//   - Model: ModelRC11
//   - RaceDetection: true
//   - SchedulingPolicy: PolicyLeftToRight
//   - Bounded, SymmetryReduction, BAM, IPR, Confirmation, HelperMode,
//     Estimation, Debug: false
//   - Workers: 0 (runtime.NumCPU())
//
// Result delivery
// Engine.Run returns a Result aggregating the verdict (consistent-complete,
// bound-exceeded, or errored), every hard error encountered (each carrying
// a reconstructed instruction trace via TracedError), and every distinct
// soft-error warning code seen across all explored executions.
//
// Concurrency
// An Engine distributes Execution frames across a pool of worker
// goroutines pulling from a shared work queue; see engine.go.
package wmc
