package graph

// ChoiceMap records, per event position, the set of alternative positions
// that were offered to it at commit time: rf-source candidates for a read,
// co-predecessor candidates for a write. It exists to reconstruct
// alternative executions in estimation mode (see bound/estimate.go) and to
// cut dead entries on backtrack, per spec.md §3.
//
// Grounded on original_source/src/Verification/ChoiceMap.cpp.
type ChoiceMap struct {
	choices map[Event][]Event
}

// NewChoiceMap returns an empty choice map.
func NewChoiceMap() *ChoiceMap {
	return &ChoiceMap{choices: make(map[Event][]Event)}
}

// Record stores the full candidate set offered to pos (the primary choice
// included).
func (c *ChoiceMap) Record(pos Event, candidates []Event) {
	c.choices[pos] = append([]Event(nil), candidates...)
}

// Alternatives returns the candidates previously recorded for pos, minus
// chosen (the one that was actually picked as primary).
func (c *ChoiceMap) Alternatives(pos, chosen Event) []Event {
	all := c.choices[pos]
	out := make([]Event, 0, len(all))
	for _, e := range all {
		if e != chosen {
			out = append(out, e)
		}
	}
	return out
}

// Candidates returns every candidate recorded for pos, including the
// chosen one. Used by the estimator (bound/estimate.go) to reconstruct the
// full branching factor at pos.
func (c *ChoiceMap) Candidates(pos Event) []Event {
	return c.choices[pos]
}

// CutToStamp drops every recorded entry whose key or whose candidates
// reference a stamp beyond s, keeping the map consistent with a graph that
// has just been restricted to that stamp. stampOf resolves an Event to its
// label's stamp (Init is stamp 0, always kept).
func (c *ChoiceMap) CutToStamp(s int64, stampOf func(Event) int64) {
	for pos, candidates := range c.choices {
		if stampOf(pos) > s {
			delete(c.choices, pos)
			continue
		}
		kept := candidates[:0:0]
		for _, cand := range candidates {
			if stampOf(cand) <= s {
				kept = append(kept, cand)
			}
		}
		c.choices[pos] = kept
	}
}

// Clone returns an independent deep copy.
func (c *ChoiceMap) Clone() *ChoiceMap {
	nc := NewChoiceMap()
	for pos, candidates := range c.choices {
		nc.choices[pos] = append([]Event(nil), candidates...)
	}
	return nc
}
