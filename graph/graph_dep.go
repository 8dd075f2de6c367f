package graph

// Dependency-tracking prefix computation for IMM, grounded on
// original_source/src/DepExecutionGraph.cpp. Under a dependency-tracking
// model, an access's "prefix" is not its whole program-order past, only
// the events it actually depends on (address/data/control dependencies)
// transitively closed with rf — everything else in program order is a
// retained "hole" (spec.md §9, view.go's DepView).

// PrefixDepView computes e's dependency-closed prefix view. Events in
// e's program-order past that are not reachable via e's own recorded
// dependency edges (AddrDeps/DataDeps/CtrlDeps), or via such edges of
// events already included, are punched out as holes.
func (g *ExecutionGraph) PrefixDepView(e Event) *DepView {
	if e.IsInit() {
		return NewDepView()
	}
	l := g.Label(e)
	if l == nil {
		return NewDepView()
	}

	v := NewDepView()
	v.Set(e.ThreadID, e.Index)

	included := map[Event]bool{e: true}
	frontier := []Event{e}
	deps := func(ev Event) []Event {
		lab := g.Label(ev)
		if lab == nil {
			return nil
		}
		out := make([]Event, 0, len(lab.AddrDeps)+len(lab.DataDeps)+len(lab.CtrlDeps))
		out = append(out, lab.AddrDeps...)
		out = append(out, lab.DataDeps...)
		out = append(out, lab.CtrlDeps...)
		return out
	}

	for len(frontier) > 0 {
		cur := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		curLab := g.Label(cur)
		if curLab != nil && curLab.IsRead() && !curLab.RF.IsInit() && !included[curLab.RF] {
			included[curLab.RF] = true
			v.Set(curLab.RF.ThreadID, curLab.RF.Index)
			frontier = append(frontier, curLab.RF)
		}
		for _, d := range deps(cur) {
			if included[d] {
				continue
			}
			included[d] = true
			v.Set(d.ThreadID, d.Index)
			frontier = append(frontier, d)
		}
	}

	for t := 0; t < g.NumThreads(); t++ {
		cut := v.Get(t)
		for i := 0; i <= cut; i++ {
			ev := Event{t, i}
			if !included[ev] && !ev.IsInit() {
				v.PunchHole(t, i)
			}
		}
	}
	return v
}
