package wmc

import (
	"fmt"

	"github.com/ygrebnov/wmc/bound"
	"github.com/ygrebnov/wmc/consistency"
	"github.com/ygrebnov/wmc/graph"
	"github.com/ygrebnov/wmc/metrics"
	"github.com/ygrebnov/wmc/pool"
	"github.com/ygrebnov/wmc/scheduler"
	"github.com/ygrebnov/wmc/symmetry"
)

// Driver ties the execution graph, consistency checker, scheduler,
// symmetry checker and bound decider together: it is the handler surface
// named in spec.md §4.4, implementing the Driver interface of
// interpreter.go. One Driver belongs to exactly one worker (spec.md §5 "no
// shared mutable state on the fast path"); cross-worker handoff happens
// only by publishing a cloned *graph.Execution, never by sharing a Driver.
type Driver struct {
	cfg     Config
	program Program

	checker consistency.Checker
	sched   *scheduler.Scheduler
	sym     *symmetry.Checker
	decider *bound.Decider    // nil unless cfg.Bounded
	estim   *bound.Estimator  // nil unless cfg.Estimation

	metrics metrics.Provider

	// bufPool recycles the []int scratch buffers used by replay-schedule
	// linearization (revisit.go's linearize); shared across every worker's
	// Driver so the backing arrays churn less than one-per-revisit
	// allocation would (spec.md §5 "thread pool").
	bufPool pool.Pool

	// frames is the stack of spec.md §4.4 "Execution frames"; frames[len-1]
	// is the current one.
	frames []*graph.Execution

	halted  bool
	haltErr error

	result *Result
}

// NewDriver returns a Driver ready to drive one exploration, starting from
// a single empty Execution frame. bufPool may be nil, in which case a
// private pool is created (standalone, non-Engine use).
func NewDriver(cfg Config, program Program, result *Result, mp metrics.Provider, bufPool pool.Pool) *Driver {
	if mp == nil {
		mp = metrics.NewNoopProvider()
	}
	if bufPool == nil {
		bufPool = pool.NewDynamic(func() interface{} { s := make([]int, 0, 64); return &s })
	}
	d := &Driver{
		cfg:     cfg,
		program: program,
		checker: consistency.New(cfg.Model, consistency.Options{
			RaceDetection:     cfg.RaceDetection,
			IPR:               cfg.IPR,
			SymmetryReduction: cfg.SymmetryReduction,
		}),
		sched:   scheduler.New(cfg.SchedulingPolicy, cfg.Seed),
		sym:     symmetry.New(),
		metrics: mp,
		bufPool: bufPool,
		frames:  []*graph.Execution{graph.NewExecution()},
		result:  result,
	}
	if cfg.Bounded {
		d.decider = bound.New(cfg.BoundMetric, cfg.Bound)
	}
	if cfg.Estimation {
		d.estim = bound.NewEstimator(cfg.EstimationBudget)
	}
	return d
}

// resumeFrom returns a Driver exploring from an externally supplied frame
// (engine.go uses this to resume a published backward-revisit snapshot on
// whatever worker popped it from the global queue).
func resumeFrom(cfg Config, program Program, result *Result, mp metrics.Provider, bufPool pool.Pool, frame *graph.Execution) *Driver {
	d := NewDriver(cfg, program, result, mp, bufPool)
	d.frames = []*graph.Execution{frame}
	return d
}

func (d *Driver) current() *graph.Execution { return d.frames[len(d.frames)-1] }

// Halted reports whether a hard error has stopped this Driver's
// exploration (spec.md §7). Checked by engine.go between executions to
// decide whether to set the shared halt flag.
func (d *Driver) Halted() bool { return d.halted }

// HaltErr returns the hard error that halted this Driver, or nil.
func (d *Driver) HaltErr() error { return d.haltErr }

// Scheduler exposes the driver's scheduler so the interpreter's calling
// loop can ask it which thread to step next (spec.md §4.3's schedule
// callback, kept out of the Driver interface itself since it is not
// per-event).
func (d *Driver) Scheduler() *scheduler.Scheduler { return d.sched }

// Done reports whether every frame has been popped: the whole exploration
// rooted at this Driver's starting frame is finished.
func (d *Driver) Done() bool { return d.halted || len(d.frames) == 0 }

// debugValidate runs the execution graph's invariant validator when
// Config.Debug is set (spec.md §4.1's debug-only validator), hard-halting
// if it finds a violation rather than silently continuing to drive a
// corrupt graph. Returns the traced halt error and true if it halted.
func (d *Driver) debugValidate(at graph.Event) (error, bool) {
	if !d.cfg.Debug {
		return nil, false
	}
	if err := d.current().Graph.Validate(); err != nil {
		_, _, traced, _ := d.hardHalt(at, err)
		return traced, true
	}
	return nil, false
}

// positionFor returns the position a freshly requested event on thread
// would occupy: either an existing label (we're replaying a primed
// schedule) or the next free slot (we're extending the graph for real).
func (d *Driver) positionFor(thread int) graph.Event {
	e := d.current()
	return graph.Event{ThreadID: thread, Index: e.Graph.ThreadLen(thread)}
}

// --- Reads -------------------------------------------------------------

// Load implements interpreter.go's Driver.Load: spec.md §4.4 "Commit of a
// read".
func (d *Driver) Load(thread int, req AccessRequest) (Outcome, graph.Value, error) {
	if d.halted {
		return OutcomeError, 0, ErrHalted
	}
	e := d.current()
	pos := d.positionFor(thread)

	// Step 1: replaying an already-committed label at this position.
	if existing := e.Graph.Label(pos); existing != nil {
		if existing.Annotation != nil {
			w := e.Graph.Label(existing.RF)
			if w != nil && !existing.Annotation.Satisfied(w.Value) {
				return OutcomeReset, 0, nil
			}
		}
		v := graph.Value(0)
		if w := e.Graph.Label(existing.RF); w != nil {
			v = w.Value
		}
		return OutcomeValue, v, nil
	}

	// Step 2: append a tentative read label.
	lbl := &graph.Label{
		Kind:       req.Kind,
		Ordering:   req.Ordering,
		Address:    req.Address,
		Size:       req.Size,
		Annotation: req.Annotation,
		RF:         graph.Bottom,
		AddrDeps:   req.AddrDeps,
		DataDeps:   req.DataDeps,
		CtrlDeps:   req.CtrlDeps,
	}
	pos = e.Graph.Append(thread, lbl)

	if !d.program.SkipUninitCheck(req.Ordering) {
		if err := d.checkInitialized(e, lbl); err != nil {
			out, v, herr, _ := d.hardHalt(pos, err)
			return out, v, herr
		}
	}

	// Consult the consistency checker for candidate rf-sources.
	candidates := d.checker.CoherentRFs(e.Graph, pos)
	if len(candidates) == 0 {
		out, v, herr, _ := d.hardHalt(pos, fmt.Errorf("no coherent rf-source for read at %s", pos))
		return out, v, herr
	}

	// Step 3: filters.
	if d.cfg.SymmetryReduction {
		candidates = d.sym.FilterCandidates(e.Graph, pos, candidates)
	}
	if req.Annotation != nil {
		candidates = filterByAnnotation(e.Graph, req.Annotation, candidates)
		if len(candidates) == 0 {
			// Every candidate fails the annotation: block rather than commit
			// a read no continuation can satisfy.
			return d.blockAssume(thread, e, pos)
		}
	}

	// Step 4: pick the maximal candidate as primary, push ForwardRead for
	// the rest.
	primary := candidates[len(candidates)-1]
	e.Choices.Record(pos, candidates)
	for _, c := range candidates[:len(candidates)-1] {
		e.Work.Push(graph.NewForwardRead(pos, c))
	}
	e.Graph.SetRF(pos, primary)
	lbl.AddedMaximal = true
	lbl.Revisitable = true

	if errs := d.checker.CheckErrors(e.Graph, pos); len(errs) > 0 {
		if out, v, err, halted := d.reportErrors(e, errs); halted {
			return out, v, err
		}
	}

	d.metrics.Counter("wmc_reads_committed_total").Add(1)

	w := e.Graph.Label(primary)
	value := graph.Value(0)
	if w != nil {
		value = w.Value
	}

	// Step 5: annotation evaluation on the bound value.
	if req.Annotation != nil && !req.Annotation.Satisfied(value) {
		return d.blockAssume(thread, e, pos)
	}

	lbl.Value = value
	e.Last = pos
	if err, halted := d.debugValidate(pos); halted {
		return OutcomeError, 0, err
	}
	return OutcomeValue, value, nil
}

func (d *Driver) blockAssume(thread int, e *graph.Execution, readPos graph.Event) (Outcome, graph.Value, error) {
	blk := &graph.Label{Kind: graph.KindBlockAssume}
	bp := e.Graph.Append(thread, blk)
	e.Last = bp
	e.Blocked = "assume"
	return OutcomeReset, 0, nil
}

func filterByAnnotation(g *graph.ExecutionGraph, ann *graph.Annotation, candidates []graph.Event) []graph.Event {
	out := candidates[:0:0]
	for _, c := range candidates {
		if c.IsInit() {
			out = append(out, c)
			continue
		}
		w := g.Label(c)
		if w == nil || ann.Satisfied(w.Value) {
			out = append(out, c)
		}
	}
	return out
}

func (d *Driver) checkInitialized(e *graph.Execution, lbl *graph.Label) error {
	if d.program.IsStaticallyAllocated(lbl.Address) {
		return nil
	}
	// Dynamic (stack/heap) addresses must have at least one write (possibly
	// the allocation's own zero-fill) before being read; the consistency
	// checker's candidate list already excludes writes to other addresses,
	// so an empty coherence order here means nothing has ever written this
	// location.
	if len(e.Graph.CoherenceOrder(lbl.Address)) == 0 {
		return fmt.Errorf("uninitialized read of %v", lbl.Address)
	}
	return nil
}

// --- Writes --------------------------------------------------------------

// Store implements interpreter.go's Driver.Store: spec.md §4.4 "Commit of
// a write".
func (d *Driver) Store(thread int, req AccessRequest) (Outcome, error) {
	if d.halted {
		return OutcomeError, ErrHalted
	}
	e := d.current()
	pos := d.positionFor(thread)

	if existing := e.Graph.Label(pos); existing != nil {
		// Step 1: replaying — nothing to do.
		return OutcomeOK, nil
	}

	lbl := &graph.Label{
		Kind:     req.Kind,
		Ordering: req.Ordering,
		Address:  req.Address,
		Value:    req.Value,
		Size:     req.Size,
		AddrDeps: req.AddrDeps,
		DataDeps: req.DataDeps,
		CtrlDeps: req.CtrlDeps,
	}
	pos = e.Graph.Append(thread, lbl)

	placements := d.checker.CoherentPlacements(e.Graph, pos)
	if len(placements) == 0 {
		out, err := d.hardHaltStore(pos, fmt.Errorf("no coherent placement for write at %s", pos))
		return out, err
	}

	primary := placements[len(placements)-1]
	e.Choices.Record(pos, placements)
	e.Graph.InsertCoherence(lbl.Address, pos, primary)
	lbl.AddedMaximal = true
	prevCoPred := primary
	for _, p := range placements[:len(placements)-1] {
		e.Work.Push(graph.NewForwardWrite(pos, p, prevCoPred))
	}

	if errs := d.checker.CheckErrors(e.Graph, pos); len(errs) > 0 {
		if out, err, halted := d.reportErrorsStore(e, errs); halted {
			return out, err
		}
	}

	d.metrics.Counter("wmc_writes_committed_total").Add(1)

	// Step 4: revisitable loads and backward revisits.
	d.calcRevisits(e, pos)

	// In-place revisit: unblock any assume-blocked thread this write
	// satisfies, without pushing a frame (spec.md §4.4 "IPR").
	if d.cfg.IPR {
		d.tryInPlaceRevisit(e, pos)
	}

	e.Last = pos
	if err, halted := d.debugValidate(pos); halted {
		return OutcomeError, err
	}
	return OutcomeOK, nil
}

func (d *Driver) hardHaltStore(pos graph.Event, err error) (Outcome, error) {
	out, _, err, _ := d.hardHalt(pos, err)
	return out, err
}

// --- Fences, frees, allocation, thread lifecycle -------------------------

func (d *Driver) Fence(thread int, req AccessRequest) (Outcome, error) {
	if d.halted {
		return OutcomeError, ErrHalted
	}
	e := d.current()
	pos := d.positionFor(thread)
	if e.Graph.Label(pos) != nil {
		return OutcomeOK, nil
	}
	lbl := &graph.Label{Kind: graph.KindFence, Ordering: req.Ordering}
	pos = e.Graph.Append(thread, lbl)
	e.Last = pos
	return OutcomeOK, nil
}

func (d *Driver) Free(thread int, req AccessRequest) (Outcome, error) {
	if d.halted {
		return OutcomeError, ErrHalted
	}
	e := d.current()
	pos := d.positionFor(thread)
	if e.Graph.Label(pos) != nil {
		return OutcomeOK, nil
	}
	if d.program.IsStaticallyAllocated(req.Address) {
		out, err := d.hardHaltStore(pos, fmt.Errorf("free of statically allocated address %v", req.Address))
		return out, err
	}
	lbl := &graph.Label{Kind: graph.KindHazptrRetire, Address: req.Address}
	pos = e.Graph.Append(thread, lbl)
	if !d.checker.HazptrSafe(e.Graph, pos) {
		out, err := d.hardHaltStore(pos, fmt.Errorf("free of %v races a live hazard-protected read", req.Address))
		return out, err
	}
	e.Last = pos
	return OutcomeOK, nil
}

func (d *Driver) Malloc(thread int, size int, alignment int) (Outcome, graph.Address, error) {
	if d.halted {
		return OutcomeError, 0, ErrHalted
	}
	e := d.current()
	pos := d.positionFor(thread)
	if existing := e.Graph.Label(pos); existing != nil {
		return OutcomeValue, existing.Address, nil
	}
	addr := e.Allocator.AllocHeap(uint64(size), uint64(alignment))
	lbl := &graph.Label{Kind: graph.KindMalloc, Address: addr, Size: size}
	pos = e.Graph.Append(thread, lbl)
	e.Last = pos
	d.metrics.Counter("wmc_allocations_total").Add(1)
	return OutcomeValue, addr, nil
}

func (d *Driver) ThreadCreate(thread int, req AccessRequest) (Outcome, int, error) {
	if d.halted {
		return OutcomeError, 0, ErrHalted
	}
	e := d.current()
	pos := d.positionFor(thread)
	if existing := e.Graph.Label(pos); existing != nil {
		return OutcomeValue, existing.ThreadCreateID, nil
	}
	newThread := e.Graph.NewThread()
	lbl := &graph.Label{Kind: graph.KindThreadCreate, ThreadCreateID: newThread}
	pos = e.Graph.Append(thread, lbl)
	startLbl := &graph.Label{Kind: graph.KindThreadStart}
	e.Graph.Append(newThread, startLbl)

	predecessor, _ := d.sym.MostRecentSpawn(req.ThreadCreateID, req.Value)
	d.sym.RecordSpawn(newThread, symmetry.Spawn{
		FunctionID:  req.ThreadCreateID,
		Arg:         req.Value,
		Predecessor: predecessor,
	})

	e.Last = pos
	return OutcomeValue, newThread, nil
}

func (d *Driver) ThreadJoin(thread int, target int) (Outcome, graph.Value, error) {
	if d.halted {
		return OutcomeError, 0, ErrHalted
	}
	e := d.current()
	pos := d.positionFor(thread)
	if existing := e.Graph.Label(pos); existing != nil {
		return OutcomeValue, existing.Value, nil
	}
	finishLbl := d.threadFinishLabel(e, target)
	if finishLbl == nil {
		blk := &graph.Label{Kind: graph.KindBlockJoin, ThreadCreateID: target}
		bp := e.Graph.Append(thread, blk)
		e.Last = bp
		e.Blocked = "join"
		return OutcomeReset, 0, nil
	}
	lbl := &graph.Label{Kind: graph.KindThreadJoin, ThreadCreateID: target, Value: finishLbl.Value}
	pos = e.Graph.Append(thread, lbl)
	e.Last = pos
	return OutcomeValue, finishLbl.Value, nil
}

func (d *Driver) threadFinishLabel(e *graph.Execution, target int) *graph.Label {
	labels := e.Graph.ThreadLabels(target)
	if len(labels) == 0 {
		return nil
	}
	last := labels[len(labels)-1]
	if last.Kind == graph.KindThreadFinish {
		return last
	}
	return nil
}

func (d *Driver) ThreadFinish(thread int, exitCode graph.Value) (Outcome, error) {
	if d.halted {
		return OutcomeError, ErrHalted
	}
	e := d.current()
	pos := d.positionFor(thread)
	if e.Graph.Label(pos) != nil {
		return OutcomeOK, nil
	}
	lbl := &graph.Label{Kind: graph.KindThreadFinish, Value: exitCode}
	pos = e.Graph.Append(thread, lbl)
	e.Last = pos
	return OutcomeOK, nil
}

// --- Error reporting -----------------------------------------------------

func (d *Driver) hardHalt(at graph.Event, err error) (Outcome, graph.Value, error, bool) {
	d.halted = true
	d.haltErr = err
	traced := newTracedError(err, d.replayTrace(at), d.current().ID.String())
	if d.result != nil {
		d.result.recordError(traced)
	}
	return OutcomeError, 0, traced, true
}

// reportErrors classifies and dispatches a batch of CheckErrors raised by
// committing at: hard errors halt; soft errors are recorded once per code
// per execution (spec.md §7).
func (d *Driver) reportErrors(e *graph.Execution, errs []graph.CheckError) (Outcome, graph.Value, error, bool) {
	for _, ce := range errs {
		if ce.Severity() == graph.SeverityHard {
			return d.hardHalt(ce.At(), ce)
		}
		if e.WarnOnce(ce.Code()) && d.result != nil {
			d.result.recordWarning(e.ID.String(), ce)
		}
	}
	return OutcomeOK, 0, nil, false
}

func (d *Driver) reportErrorsStore(e *graph.Execution, errs []graph.CheckError) (Outcome, error, bool) {
	out, _, err, halted := d.reportErrors(e, errs)
	return out, err, halted
}

// replayTrace reconstructs the stamp-ordered sequence of events leading to
// at, for a hard error's trace (spec.md §7 "a hard error triggers a graph
// replay to reconstruct the interpreter's instruction-level trace").
func (d *Driver) replayTrace(at graph.Event) []graph.Event {
	g := d.current().Graph
	view := g.PrefixView(at)
	var out []graph.Event
	for _, l := range g.AllLabels() {
		if view.Contains(l.Pos) || l.Pos == at {
			out = append(out, l.Pos)
		}
	}
	return out
}
