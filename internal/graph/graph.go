// Package graph holds the directed module dependency graph at the center of
// every analysis. A Graph is built once from input facts, validated during
// construction, and never mutated afterwards; all analyses are pure reads.
package graph

import (
	"sort"

	"girder/internal/facts"
)

// Module is a node in the dependency graph.
type Module struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Layer       string `json:"layer,omitempty"`
}

// Edge is a directed dependency: From depends on To. The graph is simple, so
// at most one edge exists per (From, To) pair; Kind is preserved from the
// first fact that introduced the pair.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind,omitempty"`
}

// Graph is the immutable dependency graph.
type Graph struct {
	modules map[string]Module
	out     map[string][]string
	in      map[string][]string
	edges   []Edge
}

// Build constructs a graph from input facts.
//
// Module ids must be unique; duplicates fail with DuplicateModuleError.
// Every edge endpoint must name a known module; unknown references fail with
// DanglingReferenceError listing all offending edges. Self-loops are dropped
// silently and duplicate (from, to) pairs collapse to a single edge.
func Build(modules []facts.ModuleFact, edges []facts.EdgeFact) (*Graph, error) {
	g := &Graph{
		modules: make(map[string]Module, len(modules)),
		out:     make(map[string][]string),
		in:      make(map[string][]string),
	}

	seen := make(map[string]facts.ModuleFact, len(modules))
	var dup *DuplicateModuleError
	for _, m := range modules {
		if first, ok := seen[m.ID]; ok {
			if dup == nil {
				dup = &DuplicateModuleError{}
			}
			dup.Duplicates = append(dup.Duplicates, Duplicate{First: first, Second: m})
			continue
		}
		seen[m.ID] = m

		name := m.DisplayName
		if name == "" {
			name = m.ID
		}
		g.modules[m.ID] = Module{ID: m.ID, DisplayName: name, Layer: m.Layer}
	}
	if dup != nil {
		return nil, dup
	}

	var dangling *DanglingReferenceError
	edgeSet := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		if e.From == e.To {
			continue // a module trivially depends on itself
		}
		_, okFrom := g.modules[e.From]
		_, okTo := g.modules[e.To]
		if !okFrom || !okTo {
			if dangling == nil {
				dangling = &DanglingReferenceError{}
			}
			dangling.Edges = append(dangling.Edges, e)
			continue
		}
		key := [2]string{e.From, e.To}
		if edgeSet[key] {
			continue
		}
		edgeSet[key] = true
		g.edges = append(g.edges, Edge{From: e.From, To: e.To, Kind: e.Kind})
		g.out[e.From] = append(g.out[e.From], e.To)
		g.in[e.To] = append(g.in[e.To], e.From)
	}
	if dangling != nil {
		return nil, dangling
	}

	// Freeze with deterministic ordering.
	sort.Slice(g.edges, func(i, j int) bool {
		if g.edges[i].From != g.edges[j].From {
			return g.edges[i].From < g.edges[j].From
		}
		return g.edges[i].To < g.edges[j].To
	})
	for _, adj := range []map[string][]string{g.out, g.in} {
		for _, ids := range adj {
			sort.Strings(ids)
		}
	}

	return g, nil
}

// Neighbors returns the ids of modules that id depends on, sorted.
func (g *Graph) Neighbors(id string) []string {
	return copyIDs(g.out[id])
}

// Incoming returns the ids of modules that depend on id, sorted.
func (g *Graph) Incoming(id string) []string {
	return copyIDs(g.in[id])
}

// Module returns the module with the given id.
func (g *Graph) Module(id string) (Module, bool) {
	m, ok := g.modules[id]
	return m, ok
}

// Modules returns all modules sorted by id.
func (g *Graph) Modules() []Module {
	out := make([]Module, 0, len(g.modules))
	for _, m := range g.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns all edges sorted by (from, to).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// ModuleCount returns the number of modules.
func (g *Graph) ModuleCount() int { return len(g.modules) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

func copyIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
