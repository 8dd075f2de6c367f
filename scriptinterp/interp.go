package scriptinterp

import (
	"fmt"

	wmc "github.com/ygrebnov/wmc"
	"github.com/ygrebnov/wmc/graph"
)

// threadState is one script's cursor: which instruction it is on, its
// scalar register (the last value it loaded, joined, or spawned), its
// address register (the result of its last OpMalloc), and the runtime
// thread id the driver assigned it (-1 until spawned).
type threadState struct {
	pc        int
	reg       graph.Value
	addrReg   graph.Address
	runtimeID int
	done      bool

	// loads is every value this thread has observed via OpLoad, in order;
	// OpAssert checks against it (program.go's Assert doc comment).
	loads []graph.Value
}

// Interp implements wmc.Interpreter over a fixed Program. Not safe for
// concurrent use by more than one Driver at a time; Clone gives each
// worker its own copy, matching every other per-worker piece of state
// described in engine.go.
type Interp struct {
	prog      *Program
	state     []*threadState
	byRuntime map[int]int // runtime thread id -> script index

	// Violations collects OpAssert failures. It is not consulted by
	// Step's control flow (an assertion failure is a local, not a driver,
	// event) — tests read it back once a run completes.
	Violations []string
}

// New returns an Interp ready to run prog from the start.
func New(prog *Program) *Interp {
	ip := &Interp{prog: prog}
	ip.reset()
	return ip
}

func (ip *Interp) reset() {
	ip.state = make([]*threadState, len(ip.prog.Threads))
	for i := range ip.state {
		ip.state[i] = &threadState{runtimeID: -1}
	}
	ip.state[0].runtimeID = 0
	ip.byRuntime = map[int]int{0: 0}
}

// --- Program (Driver -> Interpreter callbacks) --------------------------

func (ip *Interp) InitialValueOf(addr graph.Address) graph.Value { return ip.prog.Inits[addr] }

func (ip *Interp) IsStaticallyAllocated(addr graph.Address) bool {
	_, ok := ip.prog.Inits[addr]
	return ok
}

func (ip *Interp) StaticNameOf(addr graph.Address) (string, bool) {
	name, ok := ip.prog.Names[addr]
	return name, ok
}

// SkipUninitCheck never skips the check: every scripted address is either
// statically initialized via WithInit or allocated via OpMalloc before
// use, so a genuine uninitialized read is always a scripting bug worth
// catching.
func (ip *Interp) SkipUninitCheck(graph.Ordering) bool { return false }

// --- Interpreter ---------------------------------------------------------

// Runnable reports one entry per spawned, unfinished thread, naming the
// action its next instruction performs.
//
// A thread whose next instruction is OpThreadJoin is reported runnable
// only once its target has already finished. This script interpreter has
// no other way to represent "blocked" (there is no Annotation-driven
// assume-block in any scripted program, so Driver.Load never returns
// OutcomeReset here): gating Runnable on the join target instead of
// calling Driver.ThreadJoin speculatively avoids ever receiving
// OutcomeReset from it, which would otherwise append an unbounded run of
// KindBlockJoin labels every time this same thread is (incorrectly)
// reported runnable again before its target is done.
func (ip *Interp) Runnable() []wmc.RunnableThread {
	var out []wmc.RunnableThread
	for idx, st := range ip.state {
		if st.runtimeID < 0 || st.done {
			continue
		}
		action := wmc.ActionOther
		if st.pc < len(ip.prog.Threads[idx]) {
			in := ip.prog.Threads[idx][st.pc]
			if in.Op == OpThreadJoin {
				target := ip.state[in.JoinTarget]
				if target.runtimeID < 0 || !target.done {
					continue
				}
				action = wmc.ActionLoad
			} else {
				switch in.Op {
				case OpLoad:
					action = wmc.ActionLoad
				case OpStore:
					action = wmc.ActionStore
				}
			}
		}
		out = append(out, wmc.RunnableThread{Thread: st.runtimeID, Action: action})
	}
	return out
}

// Rewind resets every thread's cursor to the start. The driver always
// re-primes the scheduler's replay queue from the full, possibly-restricted
// graph after a revisit (revisit.go's primeReplayTo/linearize), so Step is
// guaranteed to be called once per surviving committed event, in order,
// before reaching the frontier; each such call hits the Driver's own
// "already committed at this position" short-circuit and returns the
// recorded value, which is how pc and reg get rebuilt. v itself carries no
// information this reconstruction needs.
func (ip *Interp) Rewind(graph.Prefix) error {
	ip.reset()
	return nil
}

// Clone returns an independent copy of ip's cursor state, sharing the
// (read-only) underlying Program.
func (ip *Interp) Clone() wmc.Interpreter {
	nip := &Interp{prog: ip.prog, byRuntime: make(map[int]int, len(ip.byRuntime))}
	nip.state = make([]*threadState, len(ip.state))
	for i, st := range ip.state {
		cp := *st
		cp.loads = append([]graph.Value(nil), st.loads...)
		nip.state[i] = &cp
	}
	for k, v := range ip.byRuntime {
		nip.byRuntime[k] = v
	}
	return nip
}

// Step advances thread by its next instruction, issuing at most one
// request to drv.
func (ip *Interp) Step(thread int, drv wmc.Driver) (bool, error) {
	idx, ok := ip.byRuntime[thread]
	if !ok {
		return false, fmt.Errorf("scriptinterp: unknown runtime thread %d", thread)
	}
	st := ip.state[idx]
	instrs := ip.prog.Threads[idx]

	if st.pc >= len(instrs) {
		if _, err := drv.ThreadFinish(thread, 0); err != nil {
			return false, err
		}
		st.done = true
		return false, nil
	}

	in := instrs[st.pc]
	switch in.Op {
	case OpLoad:
		outcome, v, err := drv.Load(thread, wmc.AccessRequest{
			Kind: graph.KindRead, Ordering: in.Ordering, Address: in.Addr,
		})
		if err != nil {
			return false, err
		}
		if outcome == wmc.OutcomeValue {
			st.reg = v
			st.loads = append(st.loads, v)
			st.pc++
		}
		return true, nil

	case OpStore:
		addr := in.Addr
		if in.UseAddrReg {
			addr = st.addrReg
		}
		outcome, err := drv.Store(thread, wmc.AccessRequest{
			Kind: graph.KindWrite, Ordering: in.Ordering, Address: addr, Value: in.Value,
		})
		if err != nil {
			return false, err
		}
		if outcome == wmc.OutcomeOK {
			st.pc++
		}
		return true, nil

	case OpFence:
		outcome, err := drv.Fence(thread, wmc.AccessRequest{Kind: graph.KindFence, Ordering: in.Ordering})
		if err != nil {
			return false, err
		}
		if outcome == wmc.OutcomeOK {
			st.pc++
		}
		return true, nil

	case OpThreadCreate:
		outcome, newID, err := drv.ThreadCreate(thread, wmc.AccessRequest{
			Kind: graph.KindThreadCreate, ThreadCreateID: in.Spawn,
		})
		if err != nil {
			return false, err
		}
		if outcome == wmc.OutcomeValue {
			ip.byRuntime[newID] = in.Spawn
			ip.state[in.Spawn].runtimeID = newID
			st.reg = graph.Value(newID)
			st.pc++
		}
		return true, nil

	case OpThreadJoin:
		// Runnable only reports this thread once its target has finished,
		// so target.runtimeID is always valid here.
		target := ip.state[in.JoinTarget].runtimeID
		outcome, v, err := drv.ThreadJoin(thread, target)
		if err != nil {
			return false, err
		}
		if outcome == wmc.OutcomeValue {
			st.reg = v
			st.pc++
		}
		return true, nil

	case OpMalloc:
		outcome, addr, err := drv.Malloc(thread, in.Size, 8)
		if err != nil {
			return false, err
		}
		if outcome == wmc.OutcomeValue {
			st.addrReg = addr
			st.pc++
		}
		return true, nil

	case OpFree:
		addr := in.Addr
		if in.UseAddrReg {
			addr = st.addrReg
		}
		outcome, err := drv.Free(thread, wmc.AccessRequest{Kind: graph.KindFree, Address: addr})
		if err != nil {
			return false, err
		}
		if outcome == wmc.OutcomeOK {
			st.pc++
		}
		return true, nil

	case OpAssert:
		if in.Check != nil && !in.Check(st.loads) {
			ip.Violations = append(ip.Violations, fmt.Sprintf("%s: loads=%v", in.Label, st.loads))
		}
		st.pc++
		return true, nil

	default:
		return false, fmt.Errorf("scriptinterp: unknown op %d", in.Op)
	}
}
