// Package scheduler picks the next runnable thread per a policy, and
// supports replay, thread prioritization, and prefix caching, per spec.md
// §4.3. Grounded on the teacher's dispatcher loop shape (channel/select
// idiom translated to a plain Next() call here, since there is exactly one
// consumer — the driver — rather than a fan-out of worker goroutines) and
// original_source/src/Verification/Scheduler.{hpp,cpp}.
package scheduler

import (
	"math/rand"

	"github.com/ygrebnov/wmc/graph"
)

// Scheduler implements spec.md §4.3's policy/replay/prioritization/prefix
// cache behaviors. Not safe for concurrent use: each worker owns one
// (spec.md §5 "no shared mutable state on the fast path").
type Scheduler struct {
	policy graph.SchedulingPolicy
	rng    *rand.Rand

	// replay holds a primed linearization to return in order before
	// consulting the policy at all (spec.md §4.3 "Replay mode").
	replay []int

	// priority, when >= 0, names a thread Next must prefer over the policy
	// if it is runnable (spec.md §4.3 "Prioritization").
	priority int

	cache *PrefixCache
}

// New returns a Scheduler following policy, seeded for its randomized
// variants.
func New(policy graph.SchedulingPolicy, seed int64) *Scheduler {
	return &Scheduler{
		policy:   policy,
		rng:      rand.New(rand.NewSource(seed)),
		priority: -1,
		cache:    NewPrefixCache(),
	}
}

// PrimeReplay installs a sequence of thread ids to return, in order,
// before Next consults anything else. Used when resuming a restricted or
// cloned frame to reconstruct its prefix (spec.md §4.3 "Replay mode").
func (s *Scheduler) PrimeReplay(schedule []int) {
	s.replay = append([]int(nil), schedule...)
}

// Replaying reports whether a primed replay sequence is still pending.
func (s *Scheduler) Replaying() bool { return len(s.replay) > 0 }

// Prioritize marks thread as the next thread Next should return, if it is
// runnable, ahead of the configured policy. Used when a lock acquirer
// blocks on a mutex held by thread, or to resume a speculative/confirming
// read's partner (spec.md §4.3 "Prioritization").
func (s *Scheduler) Prioritize(thread int) { s.priority = thread }

// Cache returns the scheduler's prefix cache (spec.md §4.3 "Prefix
// cache").
func (s *Scheduler) Cache() *PrefixCache { return s.cache }

// Next returns the thread to step next given runnable, or ok=false if none
// is runnable. Deterministic given policy, seed, and any primed replay
// (spec.md §4.3 "Ordering guarantee").
func (s *Scheduler) Next(runnable []graph.RunnableThread) (int, bool) {
	if len(runnable) == 0 {
		return 0, false
	}
	if len(s.replay) > 0 {
		next := s.replay[0]
		for _, r := range runnable {
			if r.Thread == next {
				s.replay = s.replay[1:]
				return next, true
			}
		}
		// The replayed thread isn't runnable yet (blocked); fall through to
		// the policy so forward progress isn't stalled, but keep the replay
		// queue intact so it resumes once that thread becomes runnable.
	}
	if s.priority >= 0 {
		for _, r := range runnable {
			if r.Thread == s.priority {
				s.priority = -1
				return r.Thread, true
			}
		}
	}
	return s.byPolicy(runnable)
}

func (s *Scheduler) byPolicy(runnable []graph.RunnableThread) (int, bool) {
	switch s.policy {
	case graph.PolicyLeftToRight:
		best := runnable[0]
		for _, r := range runnable[1:] {
			if r.Thread < best.Thread {
				best = r
			}
		}
		return best.Thread, true

	case graph.PolicyWriteFirst, graph.PolicyWriteFirstRandom:
		writes := filterAction(runnable, graph.ActionStore)
		pool := writes
		if len(pool) == 0 {
			pool = runnable
		}
		if s.policy == graph.PolicyWriteFirstRandom {
			return pool[s.rng.Intn(len(pool))].Thread, true
		}
		best := pool[0]
		for _, r := range pool[1:] {
			if r.Thread < best.Thread {
				best = r
			}
		}
		return best.Thread, true

	case graph.PolicyArbitrary:
		return runnable[s.rng.Intn(len(runnable))].Thread, true

	default:
		return runnable[0].Thread, true
	}
}

func filterAction(runnable []graph.RunnableThread, action graph.RunnableAction) []graph.RunnableThread {
	var out []graph.RunnableThread
	for _, r := range runnable {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}

// RescheduleBlockedRead implements spec.md §4.3's "Blocked-read
// rescheduling": given the threads blocked on a read whose condition could
// still become consistent (e.g. a CAS whose expected value hasn't
// appeared yet), picks exactly one to unblock and retry — the
// lowest-numbered thread, for determinism.
func RescheduleBlockedRead(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c < best {
			best = c
		}
	}
	return best, true
}
