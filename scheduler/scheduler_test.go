package scheduler

import (
	"testing"

	"github.com/ygrebnov/wmc/graph"
)

func runnable(threads ...int) []graph.RunnableThread {
	out := make([]graph.RunnableThread, len(threads))
	for i, t := range threads {
		out[i] = graph.RunnableThread{Thread: t, Action: graph.ActionOther}
	}
	return out
}

func TestScheduler_Next_NoneRunnable(t *testing.T) {
	s := New(graph.PolicyLeftToRight, 1)
	if _, ok := s.Next(nil); ok {
		t.Fatalf("expected ok=false when nothing is runnable")
	}
}

func TestScheduler_Next_LeftToRight_PicksLowest(t *testing.T) {
	s := New(graph.PolicyLeftToRight, 1)
	got, ok := s.Next(runnable(3, 1, 2))
	if !ok || got != 1 {
		t.Fatalf("Next() = (%d, %v); want (1, true)", got, ok)
	}
}

func TestScheduler_Next_WriteFirst_PrefersStores(t *testing.T) {
	s := New(graph.PolicyWriteFirst, 1)
	in := []graph.RunnableThread{
		{Thread: 0, Action: graph.ActionLoad},
		{Thread: 2, Action: graph.ActionStore},
		{Thread: 1, Action: graph.ActionStore},
	}
	got, ok := s.Next(in)
	if !ok || got != 1 {
		t.Fatalf("Next() = (%d, %v); want (1, true) — lowest among the stores", got, ok)
	}
}

func TestScheduler_Next_WriteFirst_FallsBackWhenNoStores(t *testing.T) {
	s := New(graph.PolicyWriteFirst, 1)
	in := []graph.RunnableThread{
		{Thread: 2, Action: graph.ActionLoad},
		{Thread: 0, Action: graph.ActionOther},
	}
	got, ok := s.Next(in)
	if !ok || got != 0 {
		t.Fatalf("Next() = (%d, %v); want (0, true) — no stores, fall back to lowest overall", got, ok)
	}
}

func TestScheduler_Next_Arbitrary_AlwaysPicksRunnable(t *testing.T) {
	s := New(graph.PolicyArbitrary, 42)
	in := runnable(5, 7, 9)
	for i := 0; i < 20; i++ {
		got, ok := s.Next(in)
		if !ok {
			t.Fatalf("Next() ok=false; want true")
		}
		found := false
		for _, r := range in {
			if r.Thread == got {
				found = true
			}
		}
		if !found {
			t.Fatalf("Next() returned %d, not among runnable threads", got)
		}
	}
}

func TestScheduler_PrimeReplay_ReturnsInOrderThenFallsBackToPolicy(t *testing.T) {
	s := New(graph.PolicyLeftToRight, 1)
	s.PrimeReplay([]int{2, 0, 1})

	for _, want := range []int{2, 0, 1} {
		if !s.Replaying() {
			t.Fatalf("expected Replaying() true before replay queue drains")
		}
		got, ok := s.Next(runnable(0, 1, 2))
		if !ok || got != want {
			t.Fatalf("Next() = (%d,%v); want (%d,true)", got, ok, want)
		}
	}
	if s.Replaying() {
		t.Fatalf("expected Replaying() false once the primed sequence is exhausted")
	}
	// Replay queue drained: falls back to policy (lowest thread id).
	got, ok := s.Next(runnable(2, 1))
	if !ok || got != 1 {
		t.Fatalf("Next() after replay drained = (%d,%v); want (1,true)", got, ok)
	}
}

func TestScheduler_PrimeReplay_SkipsNotYetRunnableThread(t *testing.T) {
	s := New(graph.PolicyLeftToRight, 1)
	s.PrimeReplay([]int{5})

	// Thread 5 isn't runnable yet; Next must fall through to the policy
	// without consuming the primed entry, so it can still be replayed once
	// thread 5 becomes runnable.
	got, ok := s.Next(runnable(3, 1))
	if !ok || got != 1 {
		t.Fatalf("Next() = (%d,%v); want (1,true) via policy fallback", got, ok)
	}
	if !s.Replaying() {
		t.Fatalf("expected the primed entry for thread 5 to survive the fallback")
	}

	got, ok = s.Next(runnable(3, 5))
	if !ok || got != 5 {
		t.Fatalf("Next() = (%d,%v); want (5,true) once thread 5 is runnable", got, ok)
	}
	if s.Replaying() {
		t.Fatalf("expected replay queue empty after the primed thread is consumed")
	}
}

func TestScheduler_Prioritize_PreferredOverPolicyOnce(t *testing.T) {
	s := New(graph.PolicyLeftToRight, 1)
	s.Prioritize(2)

	got, ok := s.Next(runnable(0, 1, 2))
	if !ok || got != 2 {
		t.Fatalf("Next() = (%d,%v); want (2,true)", got, ok)
	}
	// Priority consumed; next call falls back to the policy.
	got, ok = s.Next(runnable(0, 1, 2))
	if !ok || got != 0 {
		t.Fatalf("Next() after priority consumed = (%d,%v); want (0,true)", got, ok)
	}
}

func TestScheduler_Prioritize_IgnoredWhenNotRunnable(t *testing.T) {
	s := New(graph.PolicyLeftToRight, 1)
	s.Prioritize(9)

	got, ok := s.Next(runnable(3, 1))
	if !ok || got != 1 {
		t.Fatalf("Next() = (%d,%v); want (1,true) — prioritized thread absent, policy decides", got, ok)
	}
}

func TestScheduler_ReplayOutranksPriority(t *testing.T) {
	s := New(graph.PolicyLeftToRight, 1)
	s.PrimeReplay([]int{2})
	s.Prioritize(1)

	got, ok := s.Next(runnable(0, 1, 2))
	if !ok || got != 2 {
		t.Fatalf("Next() = (%d,%v); want (2,true) — replay consulted before priority", got, ok)
	}
}

func TestScheduler_Cache_ReturnsSamePrefixCache(t *testing.T) {
	s := New(graph.PolicyLeftToRight, 1)
	c1 := s.Cache()
	c1.Record(1, 0, []graph.Value{1, 2}, nil)
	c2 := s.Cache()
	if _, ok := c2.Lookup(1, 0, []graph.Value{1, 2}); !ok {
		t.Fatalf("expected Cache() to return the same underlying PrefixCache across calls")
	}
}

func TestRescheduleBlockedRead(t *testing.T) {
	tests := []struct {
		name       string
		candidates []int
		want       int
		wantOK     bool
	}{
		{name: "empty", candidates: nil, want: 0, wantOK: false},
		{name: "single", candidates: []int{4}, want: 4, wantOK: true},
		{name: "picks lowest", candidates: []int{5, 1, 3}, want: 1, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RescheduleBlockedRead(tt.candidates)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("RescheduleBlockedRead(%v) = (%d,%v); want (%d,%v)", tt.candidates, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
