// Package cycles detects circular dependencies using Tarjan's
// strongly-connected-components algorithm.
package cycles

import (
	"sort"

	"girder/internal/graph"
)

// Cycle is an ordered witness path evidencing one circular dependency. The
// closing edge back to the first module is implied, not repeated.
type Cycle []string

// Detect reports one witness cycle per strongly connected component with more
// than one member. Output is deterministic: traversal follows sorted module
// ids, each witness starts at the lexicographically smallest id in its
// component, and cycles are sorted by their starting module.
func Detect(g *graph.Graph) []Cycle {
	sccs := stronglyConnected(g)

	var out []Cycle
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue // self-loops are dropped at ingestion, size-1 SCCs never cycle
		}
		out = append(out, witness(g, scc))
	}

	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// stronglyConnected runs Tarjan's algorithm in a single O(V+E) pass.
func stronglyConnected(g *graph.Graph) [][]string {
	var (
		index   = 0
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		stack   []string
		sccs    [][]string
	)

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Neighbors(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, m := range g.Modules() {
		if _, visited := indices[m.ID]; !visited {
			strongConnect(m.ID)
		}
	}
	return sccs
}

// witness produces one representative cycle path through the component by
// depth-first walk from its smallest module id, restricted to members of the
// component.
func witness(g *graph.Graph, scc []string) Cycle {
	members := make(map[string]bool, len(scc))
	start := scc[0]
	for _, id := range scc {
		members[id] = true
		if id < start {
			start = id
		}
	}

	visited := make(map[string]bool, len(scc))
	var path []string

	var walk func(v string) bool
	walk = func(v string) bool {
		visited[v] = true
		path = append(path, v)
		for _, w := range g.Neighbors(v) {
			if w == start && len(path) > 1 {
				return true // closed the loop
			}
			if members[w] && !visited[w] {
				if walk(w) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		return false
	}

	walk(start)
	out := make(Cycle, len(path))
	copy(out, path)
	return out
}
