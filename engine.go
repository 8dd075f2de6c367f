package wmc

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ygrebnov/wmc/graph"
	"github.com/ygrebnov/wmc/metrics"
	"github.com/ygrebnov/wmc/pool"
)

// Engine distributes Execution frames across a pool of worker goroutines
// pulling from a shared global work queue (spec.md §5). Grounded on the
// exec/check worker-pool split of
// other_examples/.../timewinder-dev-timewinder__model-multi_thread.go.go
// (channel-free mutex+condvar queue, atomic halt flag, per-worker
// goroutine loop, context-cancel-on-violation) and the teacher's
// workers.go/lifecycle.go for the start-once/shutdown-sequence shape.
//
// Each worker owns its own Driver, Interpreter clone and Scheduler — no
// shared mutable state on the fast path, per spec.md §5. The only state
// genuinely shared across workers is the execQueue (one mutex + condition
// variable) and the halt flag (one atomic.Bool).
type Engine struct {
	cfg   Config
	proto Interpreter

	metrics metrics.Provider

	// bufPool is shared by every worker's Driver so the []int scratch
	// buffers used by replay linearization churn less than one-per-revisit
	// allocation would.
	bufPool pool.Pool
}

// NewEngine builds a ready-to-run Engine over program, a prototype
// Interpreter each worker goroutine Clones its own private copy of.
func NewEngine(cfg Config, program Interpreter) *Engine {
	if program == nil {
		panic("wmc: NewEngine requires a non-nil Interpreter")
	}
	return &Engine{
		cfg:     cfg,
		proto:   program,
		metrics: metrics.NewNoopProvider(),
		bufPool: pool.NewDynamic(func() interface{} { s := make([]int, 0, 64); return &s }),
	}
}

// WithMetrics installs mp as the Provider every worker's Driver reports
// exploration counters into. Returns e so calls can be chained onto
// NewEngine.
func (e *Engine) WithMetrics(mp metrics.Provider) *Engine {
	if mp != nil {
		e.metrics = mp
	}
	return e
}

// Run explores the whole program, distributing work across cfg.Workers
// goroutines (runtime.NumCPU() if zero, spec.md §6 "worker-thread count"),
// and returns the aggregated Result once the run is complete or a hard
// error halts it (spec.md §5 "Halt").
//
// The set of complete executions discovered does not depend on workers or
// scheduling (spec.md §5 "Ordering"); the order they are discovered in
// does.
func (e *Engine) Run(ctx context.Context) *Result {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	result := NewResult()
	queue := newExecQueue()
	queue.push(graph.NewExecution())

	var halted atomic.Bool
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Propagate an externally cancelled ctx (or the final cancel once Run
	// returns) into the queue's closed state, so every blocked pop() wakes
	// up and returns instead of waiting forever (spec.md §5 "Halt is
	// cooperative... wakes all workers"). A worker-discovered hard error
	// closes the queue directly, through queue.halt() in explore.
	go func() {
		<-runCtx.Done()
		queue.closeAll()
	}()

	var g errgroup.Group
	for id := 0; id < workers; id++ {
		id := id
		g.Go(func() error {
			e.runWorker(id, queue, result, &halted)
			return nil
		})
	}
	_ = g.Wait()

	return result
}

// runWorker implements spec.md §5's per-worker loop: pop a snapshot,
// explore it to completion with a private Driver and Interpreter, report
// it done, repeat until the queue reports no more outstanding work.
func (e *Engine) runWorker(id int, queue *execQueue, result *Result, halted *atomic.Bool) {
	interp := e.proto.Clone()
	for {
		if halted.Load() {
			return
		}
		snap, ok := queue.pop()
		if !ok {
			return
		}

		// A worker in mid-execution finishes that execution even if halt
		// fires elsewhere in the meantime (spec.md §5 "Cancellation"), to
		// preserve counters and error-reporting integrity; only the next
		// iteration's queue.pop() observes the flag.
		e.explore(id, interp, snap, queue, result, halted)

		queue.done()
	}
}

// explore drives one Execution snapshot to completion: builds a Driver
// resuming from it, alternates scheduler.Next/interp.Step with
// drv.Advance exactly as spec.md §2's control-flow paragraph describes,
// occasionally publishing surplus backward-revisit work to the shared
// queue (spec.md §5 "Publication"), and on a hard error halts every
// worker.
func (e *Engine) explore(
	id int,
	interp Interpreter,
	snap *graph.Execution,
	queue *execQueue,
	result *Result,
	halted *atomic.Bool,
) {
	drv := resumeFrom(e.cfg, interp, result, e.metrics, e.bufPool, snap)

	for !drv.Done() {
		runnable := interp.Runnable()
		thread, ok := drv.Scheduler().Next(runnable)
		if !ok {
			if !drv.Advance(interp) {
				break
			}
			continue
		}

		if _, err := interp.Step(thread, drv); err != nil {
			log.Error().Err(err).Int("worker", id).Msg("wmc: interpreter step failed")
			break
		}

		if pub := drv.publishSurplus(); pub != nil {
			queue.push(pub)
		}
	}

	if drv.Halted() {
		log.Error().Err(drv.HaltErr()).Int("worker", id).Msg("wmc: exploration halted by a hard error")
		halted.Store(true)
		queue.halt()
	}
}

// execQueue is the global work queue of spec.md §5: whole Execution
// snapshots, immutable from the pool's view once published, guarded by
// one mutex and a condition variable plus an outstanding-task counter —
// "a worker finishes when the counter reaches zero and the global queue
// is empty."
type execQueue struct {
	mu          sync.Mutex
	cond        *sync.Cond
	items       []*graph.Execution
	outstanding int
	closed      bool
}

func newExecQueue() *execQueue {
	q := &execQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push publishes snap: a new root task now exists that no worker has
// finished yet, so outstanding is incremented before waking one waiter.
func (q *execQueue) push(snap *graph.Execution) {
	q.mu.Lock()
	q.items = append(q.items, snap)
	q.outstanding++
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until a snapshot is available, returning ok=false once the
// queue is closed or every outstanding task is accounted for with nothing
// left to hand out (the whole run is done).
func (q *execQueue) pop() (*graph.Execution, bool) {
	q.mu.Lock()
	for len(q.items) == 0 {
		if q.closed || q.outstanding == 0 {
			q.mu.Unlock()
			return nil, false
		}
		q.cond.Wait()
	}
	snap := q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	q.mu.Unlock()
	return snap, true
}

// done records that one popped task has been fully explored (it produced
// no further nested frames the caller kept private, or those frames have
// all themselves finished). Wakes every waiter once the run might be over
// so they can re-check the termination condition.
func (q *execQueue) done() {
	q.mu.Lock()
	q.outstanding--
	empty := q.outstanding == 0 && len(q.items) == 0
	q.mu.Unlock()
	if empty {
		q.cond.Broadcast()
	} else {
		q.cond.Signal()
	}
}

// halt marks the queue closed, per spec.md §5 "discovering a hard error
// anywhere sets a shared flag and wakes all workers."
func (q *execQueue) halt() { q.closeAll() }

// closeAll marks the queue permanently closed and wakes every blocked
// pop().
func (q *execQueue) closeAll() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
