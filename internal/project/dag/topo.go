package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Topo is the load plan for a module graph. Only present modules take part;
// edges to modules that were named but never declared are ignored.
type Topo struct {
	Order  []ModuleID   // every module after the modules it depends on
	Waves  [][]ModuleID // Waves[i] depends only on modules in earlier waves
	Cyclic bool
	Cycles []ModuleID // modules on or between cycles, sorted
}

func moduleID(i int) ModuleID {
	id, err := safecast.Conv[ModuleID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return id
}

// Sort orders g so that dependencies load first. Each wave is the set of
// modules whose dependencies all sit in earlier waves, sorted by id.
func Sort(g Graph) *Topo {
	n := len(g.Edges)
	pending := make([]int, n)           // unloaded dependencies of each module
	dependents := make([][]ModuleID, n) // reverse edges
	for from, deps := range g.Edges {
		if !g.Present[from] {
			continue
		}
		for _, to := range deps {
			if !g.Present[int(to)] {
				continue
			}
			pending[from]++
			dependents[int(to)] = append(dependents[int(to)], moduleID(from))
		}
	}

	t := &Topo{Order: make([]ModuleID, 0, n)}
	var wave []ModuleID
	for i := range n {
		if g.Present[i] && pending[i] == 0 {
			wave = append(wave, moduleID(i))
		}
	}
	for len(wave) > 0 {
		t.Waves = append(t.Waves, wave)
		t.Order = append(t.Order, wave...)
		var next []ModuleID
		for _, id := range wave {
			for _, user := range dependents[int(id)] {
				if pending[int(user)]--; pending[int(user)] == 0 {
					next = append(next, user)
				}
			}
		}
		slices.Sort(next)
		wave = next
	}

	var stuck []bool
	for i := range n {
		if g.Present[i] && pending[i] > 0 {
			if stuck == nil {
				stuck = make([]bool, n)
			}
			stuck[i] = true
		}
	}
	if stuck != nil {
		t.Cyclic = true
		t.Cycles = cycleMembers(g, stuck)
	}
	return t
}

// cycleMembers narrows the modules the sort could not place down to those on
// a cycle. A stuck module that no other stuck module depends on only waits on
// a cycle, so it is peeled off until every survivor has a stuck dependent.
func cycleMembers(g Graph, stuck []bool) []ModuleID {
	users := make([]int, len(stuck)) // stuck dependents of each stuck module
	for from, deps := range g.Edges {
		if !stuck[from] {
			continue
		}
		for _, to := range deps {
			if stuck[int(to)] {
				users[int(to)]++
			}
		}
	}
	var queue []int
	for i, s := range stuck {
		if s && users[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		stuck[i] = false
		for _, to := range g.Edges[i] {
			if !stuck[int(to)] {
				continue
			}
			if users[int(to)]--; users[int(to)] == 0 {
				queue = append(queue, int(to))
			}
		}
	}

	var out []ModuleID
	for i, s := range stuck {
		if s {
			out = append(out, moduleID(i))
		}
	}
	return out
}
