package graph

// MemoryModel selects which consistency checker the driver consults, per
// spec.md §1. Defined alongside the graph/view types rather than in the
// top-level engine package so that the consistency, scheduler, symmetry and
// bound packages — which all need to switch on it — can depend on graph
// without importing back up to the engine package that depends on them.
type MemoryModel int

const (
	ModelSC MemoryModel = iota
	ModelRA
	ModelRC11
	ModelIMM
)

func (m MemoryModel) String() string {
	switch m {
	case ModelSC:
		return "SC"
	case ModelRA:
		return "RA"
	case ModelRC11:
		return "RC11"
	case ModelIMM:
		return "IMM"
	default:
		return "unknown"
	}
}

// IsDependencyTracking reports whether m requires the DepView-based prefix
// computation (graph_dep.go) instead of the plain View.
func (m MemoryModel) IsDependencyTracking() bool { return m == ModelIMM }

// SchedulingPolicy selects how the scheduler picks the next runnable
// thread, per spec.md §4.3.
type SchedulingPolicy int

const (
	PolicyLeftToRight SchedulingPolicy = iota
	PolicyWriteFirst
	PolicyWriteFirstRandom
	PolicyArbitrary
)

// BoundMetric selects what the bound decider counts, per spec.md §4.5.
type BoundMetric int

const (
	BoundContextSwitches BoundMetric = iota
	BoundRounds
)

// RunnableAction classifies what a thread would do if scheduled next,
// consulted by the scheduler package to implement write-first policies.
type RunnableAction int

const (
	ActionOther RunnableAction = iota
	ActionLoad
	ActionStore
)

// RunnableThread pairs a thread id with its next action kind, the input
// the scheduler package's Next consumes (spec.md §4.3).
type RunnableThread struct {
	Thread int
	Action RunnableAction
}
