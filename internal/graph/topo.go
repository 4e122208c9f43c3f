package graph

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Topo is a Kahn ordering. Importers come before the modules they import.
type Topo struct {
	Order   []ModuleID
	Batches [][]ModuleID // waves of independent modules
	Cyclic  bool
	Cycles  []ModuleID // modules left with incoming edges
}

// ToposortKahn orders the present modules of e. ES modules may import each
// other cyclically; such modules end up in Cycles instead of Order.
func ToposortKahn(e Edges) *Topo {
	n := len(e.Out)
	indeg := slices.Clone(e.Indeg)
	topo := &Topo{Order: make([]ModuleID, 0, n)}

	active := 0
	current := make([]ModuleID, 0, n)
	for i := range n {
		if !e.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, toID(i))
		}
	}

	visited := 0
	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)

		var next []ModuleID
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, to := range e.Out[id] {
				indeg[to]--
				if indeg[to] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := range n {
			if e.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, toID(i))
			}
		}
	}
	return topo
}

func toID(i int) ModuleID {
	id, err := safecast.Conv[ModuleID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return id
}
