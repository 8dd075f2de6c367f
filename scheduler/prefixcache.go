package scheduler

import (
	"fmt"
	"strings"

	"github.com/ygrebnov/wmc/graph"
)

// PrefixCache caches, per (function id, thread id), the labels that
// previously followed a given sequence of return values observed so far —
// spec.md §4.3's "trie keyed by the sequence of return values". A plain
// map keyed by the joined value sequence stands in for the trie: lookups
// are still O(sequence length) to build the key, and the cache is only
// ever consulted with a sequence built incrementally in the same order it
// was recorded, so no prefix-sharing behavior is lost by flattening the
// trie into map keys.
type PrefixCache struct {
	entries map[cacheKey][]*graph.Label
}

type cacheKey struct {
	functionID int
	thread     int
	values     string
}

// NewPrefixCache returns an empty cache.
func NewPrefixCache() *PrefixCache {
	return &PrefixCache{entries: make(map[cacheKey][]*graph.Label)}
}

func joinValues(values []graph.Value) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", v)
	}
	return b.String()
}

// Lookup returns the labels previously recorded to follow (functionID,
// thread, values), if any.
func (c *PrefixCache) Lookup(functionID, thread int, values []graph.Value) ([]*graph.Label, bool) {
	labels, ok := c.entries[cacheKey{functionID, thread, joinValues(values)}]
	return labels, ok
}

// Record stores labels as what follows (functionID, thread, values), so a
// future run with the same prefix can replay them in bulk without
// re-invoking the consistency checker or the interpreter's slow path.
func (c *PrefixCache) Record(functionID, thread int, values []graph.Value, labels []*graph.Label) {
	c.entries[cacheKey{functionID, thread, joinValues(values)}] = labels
}
