package scheduler

import (
	"testing"

	"github.com/ygrebnov/wmc/graph"
)

func TestPrefixCache_LookupMiss(t *testing.T) {
	c := NewPrefixCache()
	if _, ok := c.Lookup(1, 0, []graph.Value{1}); ok {
		t.Fatalf("expected miss on empty cache")
	}
}

func TestPrefixCache_RecordThenLookup(t *testing.T) {
	c := NewPrefixCache()
	labels := []*graph.Label{{}, {}}
	c.Record(1, 0, []graph.Value{1, 2}, labels)

	got, ok := c.Lookup(1, 0, []graph.Value{1, 2})
	if !ok {
		t.Fatalf("expected hit after Record")
	}
	if len(got) != len(labels) {
		t.Fatalf("Lookup returned %d labels; want %d", len(got), len(labels))
	}
}

func TestPrefixCache_KeyedByFunctionThreadAndValues(t *testing.T) {
	c := NewPrefixCache()
	l1 := []*graph.Label{{}}
	l2 := []*graph.Label{{}, {}}
	c.Record(1, 0, []graph.Value{1}, l1)
	c.Record(2, 0, []graph.Value{1}, l2)

	got1, ok := c.Lookup(1, 0, []graph.Value{1})
	if !ok || len(got1) != 1 {
		t.Fatalf("Lookup(1,0,[1]) = (%v,%v); want len 1", got1, ok)
	}
	got2, ok := c.Lookup(2, 0, []graph.Value{1})
	if !ok || len(got2) != 2 {
		t.Fatalf("Lookup(2,0,[1]) = (%v,%v); want len 2", got2, ok)
	}

	if _, ok := c.Lookup(1, 1, []graph.Value{1}); ok {
		t.Fatalf("expected miss for a different thread id")
	}
	if _, ok := c.Lookup(1, 0, []graph.Value{1, 1}); ok {
		t.Fatalf("expected miss for a different value sequence")
	}
}

func TestPrefixCache_RecordOverwrites(t *testing.T) {
	c := NewPrefixCache()
	c.Record(1, 0, []graph.Value{1}, []*graph.Label{{}})
	c.Record(1, 0, []graph.Value{1}, []*graph.Label{{}, {}, {}})

	got, ok := c.Lookup(1, 0, []graph.Value{1})
	if !ok || len(got) != 3 {
		t.Fatalf("Lookup after overwrite = (%v,%v); want len 3", got, ok)
	}
}
