package scriptinterp

import "github.com/ygrebnov/wmc/graph"

// Op is one scripted instruction kind. There is no CAS or barrier op: the
// worked examples that need them are out of scope for this harness (see
// DESIGN.md).
type Op int

const (
	// OpLoad issues a Load and stores the observed value in the thread's
	// register.
	OpLoad Op = iota
	// OpStore issues a Store of Value to Addr.
	OpStore
	// OpFence issues a standalone Fence.
	OpFence
	// OpThreadCreate spawns the script named by Spawn and stores the new
	// runtime thread id in the thread's register.
	OpThreadCreate
	// OpThreadJoin joins the script named by JoinTarget and stores its exit
	// value in the thread's register.
	OpThreadJoin
	// OpMalloc allocates Size bytes and stores the address in the thread's
	// address register.
	OpMalloc
	// OpFree frees the address most recently returned by OpMalloc on this
	// thread.
	OpFree
	// OpAssert checks Check against the thread's load history and, on failure,
	// appends Label to the Interp's Violations.
	OpAssert
)

// Instr is one instruction of a scripted thread.
type Instr struct {
	Op       Op
	Addr     graph.Address
	Value    graph.Value
	Ordering graph.Ordering
	Size     int

	// Spawn names the script index OpThreadCreate starts running.
	Spawn int
	// JoinTarget names the script index OpThreadJoin waits for.
	JoinTarget int

	// UseAddrReg, when set, makes OpStore/OpFree operate on the thread's
	// address register (the result of a prior OpMalloc) instead of Addr.
	UseAddrReg bool

	// Check is consulted by OpAssert against the thread's full load history
	// so far (index 0 = first OpLoad this thread issued, and so on) — this
	// is what lets an assertion express an implication across two loads
	// (spec.md §8's message-passing example: "if the flag read 1, the
	// payload must read 1").
	Check func(loads []graph.Value) bool
	// Label names the assertion, used in the violation message.
	Label string
}

// Load returns a plain-read instruction.
func Load(addr graph.Address, ord graph.Ordering) Instr {
	return Instr{Op: OpLoad, Addr: addr, Ordering: ord}
}

// Store returns a plain-write instruction.
func Store(addr graph.Address, v graph.Value, ord graph.Ordering) Instr {
	return Instr{Op: OpStore, Addr: addr, Value: v, Ordering: ord}
}

// Fence returns a fence instruction.
func Fence(ord graph.Ordering) Instr { return Instr{Op: OpFence, Ordering: ord} }

// CreateThread returns an instruction spawning script index spawn.
func CreateThread(spawn int) Instr { return Instr{Op: OpThreadCreate, Spawn: spawn} }

// JoinThread returns an instruction joining script index target.
func JoinThread(target int) Instr { return Instr{Op: OpThreadJoin, JoinTarget: target} }

// Malloc returns an allocation instruction.
func Malloc(size int) Instr { return Instr{Op: OpMalloc, Size: size} }

// Free returns an instruction freeing the thread's most recent allocation.
func Free() Instr { return Instr{Op: OpFree, UseAddrReg: true} }

// Assert returns an instruction checking check against the thread's load
// history, reporting as label on failure.
func Assert(label string, check func(loads []graph.Value) bool) Instr {
	return Instr{Op: OpAssert, Check: check, Label: label}
}

// Program is a fixed set of per-thread scripts plus the statically
// initialized values of whatever addresses the scripts touch.
type Program struct {
	Threads [][]Instr
	Inits   map[graph.Address]graph.Value
	Names   map[graph.Address]string
}

// NewProgram returns a Program with threads as its per-thread scripts.
// Thread 0 must be present; it is the main thread.
func NewProgram(threads [][]Instr) *Program {
	return &Program{
		Threads: threads,
		Inits:   make(map[graph.Address]graph.Value),
		Names:   make(map[graph.Address]string),
	}
}

// WithInit records addr's statically-initialized value and, optionally, a
// diagnostic name. Returns p so calls can be chained.
func (p *Program) WithInit(addr graph.Address, v graph.Value, name string) *Program {
	p.Inits[addr] = v
	if name != "" {
		p.Names[addr] = name
	}
	return p
}
