package graph

// Kind is the closed set of event label kinds named in spec.md §3. A single
// tagged-variant Label struct carries one Kind and only the payload fields
// valid for it, per spec.md §9's guidance to prefer a Go enum + struct over
// a class hierarchy (the teacher's codebase makes the same call throughout:
// e.g. task.go's three task shapes are dispatched on a type switch rather
// than a virtual-method hierarchy).
type Kind int

const (
	KindEmpty Kind = iota
	KindThreadStart
	KindThreadFinish
	KindThreadCreate
	KindThreadJoin
	KindThreadKill

	KindRead
	KindReadAcquire
	KindCASRead
	KindFAIRead
	KindLockRead
	KindBarrierWait
	KindHelpedCAS
	KindHelpingCAS
	KindSpeculativeRead
	KindConfirmingRead
	KindHazardProtect

	KindWrite
	KindWriteRelease
	KindRMWWrite
	KindCASWrite
	KindFAIWrite
	KindUnlock
	KindInitWrite
	KindFinalWrite
	KindLocalWrite

	KindFence
	KindMalloc
	KindFree
	KindHazptrRetire

	KindBlockAssume
	KindBlockSpinloop
	KindBlockLockNotAcquired
	KindBlockBarrier
	KindBlockHelpedCAS
	KindBlockReadOpt
	KindBlockJoin

	KindOptional
	KindLoopBegin
	KindSpinStart
	KindFaiZNESpinEnd
	KindLockZNESpinEnd
	KindMethodBegin
	KindMethodEnd
)

// IsRead reports whether k is one of the read-family kinds. RMW reads
// (CAS/FAI) and helped/speculative/confirming reads are all reads for the
// purposes of rf-binding.
func (k Kind) IsRead() bool {
	switch k {
	case KindRead, KindReadAcquire, KindCASRead, KindFAIRead, KindLockRead,
		KindBarrierWait, KindHelpedCAS, KindHelpingCAS, KindSpeculativeRead,
		KindConfirmingRead, KindHazardProtect:
		return true
	default:
		return false
	}
}

// IsWrite reports whether k is one of the write-family kinds.
func (k Kind) IsWrite() bool {
	switch k {
	case KindWrite, KindWriteRelease, KindRMWWrite, KindCASWrite, KindFAIWrite,
		KindUnlock, KindInitWrite, KindFinalWrite, KindLocalWrite:
		return true
	default:
		return false
	}
}

// IsRMW reports whether k participates in a read-modify-write pair. The
// read half and write half are separate labels (spec.md §3 invariant 5);
// this tags the kinds that pair up, not any single label.
func (k Kind) IsRMW() bool {
	switch k {
	case KindCASRead, KindFAIRead, KindCASWrite, KindFAIWrite:
		return true
	default:
		return false
	}
}

// IsBlock reports whether k is one of the block-family kinds.
func (k Kind) IsBlock() bool {
	switch k {
	case KindBlockAssume, KindBlockSpinloop, KindBlockLockNotAcquired,
		KindBlockBarrier, KindBlockHelpedCAS, KindBlockReadOpt, KindBlockJoin:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindThreadStart:
		return "ThreadStart"
	case KindThreadFinish:
		return "ThreadFinish"
	case KindThreadCreate:
		return "ThreadCreate"
	case KindThreadJoin:
		return "ThreadJoin"
	case KindThreadKill:
		return "ThreadKill"
	case KindRead:
		return "Read"
	case KindReadAcquire:
		return "ReadAcquire"
	case KindCASRead:
		return "CASRead"
	case KindFAIRead:
		return "FAIRead"
	case KindLockRead:
		return "LockRead"
	case KindBarrierWait:
		return "BarrierWait"
	case KindHelpedCAS:
		return "HelpedCAS"
	case KindHelpingCAS:
		return "HelpingCAS"
	case KindSpeculativeRead:
		return "SpeculativeRead"
	case KindConfirmingRead:
		return "ConfirmingRead"
	case KindHazardProtect:
		return "HazardProtect"
	case KindWrite:
		return "Write"
	case KindWriteRelease:
		return "WriteRelease"
	case KindRMWWrite:
		return "RMWWrite"
	case KindCASWrite:
		return "CASWrite"
	case KindFAIWrite:
		return "FAIWrite"
	case KindUnlock:
		return "Unlock"
	case KindInitWrite:
		return "InitWrite"
	case KindFinalWrite:
		return "FinalWrite"
	case KindLocalWrite:
		return "LocalWrite"
	case KindFence:
		return "Fence"
	case KindMalloc:
		return "Malloc"
	case KindFree:
		return "Free"
	case KindHazptrRetire:
		return "HazptrRetire"
	case KindOptional:
		return "Optional"
	case KindLoopBegin:
		return "LoopBegin"
	case KindSpinStart:
		return "SpinStart"
	case KindFaiZNESpinEnd:
		return "FaiZNESpinEnd"
	case KindLockZNESpinEnd:
		return "LockZNESpinEnd"
	case KindMethodBegin:
		return "MethodBegin"
	case KindMethodEnd:
		return "MethodEnd"
	default:
		return "Block"
	}
}

// Ordering is the memory ordering annotation carried by every label.
type Ordering int

const (
	NotAtomic Ordering = iota
	Relaxed
	Acquire
	Release
	AcquireRelease
	SeqCst
)

func (o Ordering) String() string {
	switch o {
	case NotAtomic:
		return "na"
	case Relaxed:
		return "rlx"
	case Acquire:
		return "acq"
	case Release:
		return "rel"
	case AcquireRelease:
		return "acq_rel"
	case SeqCst:
		return "sc"
	default:
		return "?"
	}
}

// AtLeastAcquire reports whether o synchronizes on the read side.
func (o Ordering) AtLeastAcquire() bool { return o == Acquire || o == AcquireRelease || o == SeqCst }

// AtLeastRelease reports whether o synchronizes on the write side.
func (o Ordering) AtLeastRelease() bool { return o == Release || o == AcquireRelease || o == SeqCst }

// Annotation is a symbolic predicate over a read's return value, used by
// the annotation-based value filter (SAVER, spec.md §4.4 step 3) and by
// in-place revisit (IPR, spec.md §4.4) to decide whether a newly bound
// value unblocks a previously assume-blocked read.
type Annotation struct {
	// Predicate reports whether v satisfies the annotation. A nil
	// Predicate is always satisfied (no filtering).
	Predicate func(v Value) bool
}

// Satisfied reports whether v satisfies a (possibly nil) annotation.
func (a *Annotation) Satisfied(v Value) bool {
	if a == nil || a.Predicate == nil {
		return true
	}
	return a.Predicate(v)
}

// Label is the payload attached to a committed (or tentatively appended)
// event. Fields below are grouped by which Kind family populates them;
// reading a field outside its family is a bug in the caller, not a graph
// invariant (mirrors the original's single EventLabel class with typed
// accessor methods, collapsed here into one Go struct plus Kind-gated
// helper methods).
type Label struct {
	Pos      Event
	Kind     Kind
	Ordering Ordering
	Stamp    int64

	Address Address
	Value   Value
	Size    int

	// RF is set on reads: the position of the write this read observed.
	// It is Init for a read of static initial state, Bottom only
	// transiently during error reporting.
	RF Event

	// Readers is set on writes: every read currently bound to this write.
	Readers []Event

	// CoPosition is not maintained by the graph and stays 0; a write's
	// place in its address's coherence order is read through
	// ExecutionGraph.CoherenceOrder.
	CoPosition int

	// ThreadCreateID names the thread spawned by a ThreadCreate label.
	ThreadCreateID int

	// Annotation, when non-nil, is the symbolic predicate attached to a
	// read by the translation front-end (out of scope here, but the field
	// is part of the committed label per spec.md §3).
	Annotation *Annotation

	// Revisitable is cleared once a label has been the target of a
	// backward revisit, or is in the prefix saved by one, so it cannot be
	// revisited again by something already in its past (spec.md §4.4.3).
	Revisitable bool

	// AddedMaximal records whether, at the moment this label was
	// committed, its rf (for a read) or co-placement (for a write) was the
	// co-maximum candidate. Required by the maximal-extension gate on
	// backward revisits (spec.md §4.4 step 4).
	AddedMaximal bool

	// Dependency sets, populated only under a dependency-tracking model
	// (IMM). Nil under SC/RA/RC11.
	AddrDeps []Event
	DataDeps []Event
	CtrlDeps []Event

	prefix *View
	hb     *View
}

// IsRead, IsWrite, IsRMW, IsBlock delegate to the Kind classification.
func (l *Label) IsRead() bool  { return l.Kind.IsRead() }
func (l *Label) IsWrite() bool { return l.Kind.IsWrite() }
func (l *Label) IsRMW() bool   { return l.Kind.IsRMW() }
func (l *Label) IsBlock() bool { return l.Kind.IsBlock() }

// IsSC reports whether the label's ordering is sequentially consistent.
func (l *Label) IsSC() bool { return l.Ordering == SeqCst }

// HB returns the label's cached happens-before view, or nil if not yet
// computed. The view's contents are model-specific (consistency.Checker
// populates it via SetHB); the graph itself never computes hb.
func (l *Label) HB() *View { return l.hb }

// SetHB caches v as the label's happens-before view.
func (l *Label) SetHB(v *View) { l.hb = v }

// InvalidatePrefix clears cached views. Per spec.md §9, invalidation is
// otherwise never needed because labels past a restricted stamp are
// deleted whole; this exists solely for the rare case a label's RF is
// rebound in place (a forward revisit) without removing it.
func (l *Label) InvalidatePrefix() {
	l.prefix = nil
	l.hb = nil
}
