package graph

import (
	"errors"
	"reflect"
	"testing"

	"girder/internal/facts"
)

func mods(ids ...string) []facts.ModuleFact {
	out := make([]facts.ModuleFact, 0, len(ids))
	for _, id := range ids {
		out = append(out, facts.ModuleFact{ID: id})
	}
	return out
}

func edge(from, to string) facts.EdgeFact {
	return facts.EdgeFact{From: from, To: to}
}

func TestBuild_Basic(t *testing.T) {
	g, err := Build(mods("a", "b", "c"), []facts.EdgeFact{edge("a", "b"), edge("b", "c")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.ModuleCount() != 3 {
		t.Fatalf("expected 3 modules, got %d", g.ModuleCount())
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestBuild_DuplicateModules(t *testing.T) {
	input := []facts.ModuleFact{
		{ID: "a", DisplayName: "first"},
		{ID: "b"},
		{ID: "a", DisplayName: "second"},
	}
	_, err := Build(input, nil)

	var dup *DuplicateModuleError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateModuleError, got %v", err)
	}
	if len(dup.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(dup.Duplicates))
	}
	d := dup.Duplicates[0]
	if d.First.DisplayName != "first" || d.Second.DisplayName != "second" {
		t.Fatalf("duplicate should carry both facts, got %+v", d)
	}
}

func TestBuild_DanglingEdgesListsAllOffenders(t *testing.T) {
	_, err := Build(mods("a"), []facts.EdgeFact{
		edge("a", "ghost"),
		edge("phantom", "a"),
		edge("x", "y"),
	})

	var dangling *DanglingReferenceError
	if !errors.As(err, &dangling) {
		t.Fatalf("expected DanglingReferenceError, got %v", err)
	}
	if len(dangling.Edges) != 3 {
		t.Fatalf("expected all 3 dangling edges reported, got %d", len(dangling.Edges))
	}
}

func TestBuild_SelfLoopDropped(t *testing.T) {
	g, err := Build(mods("a", "b"), []facts.EdgeFact{edge("a", "a"), edge("a", "b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("self-loop should be dropped, got %d edges", g.EdgeCount())
	}
}

func TestBuild_SelfLoopOnUnknownModuleDropped(t *testing.T) {
	// A self-loop on an unknown module is dropped before dangling checks.
	g, err := Build(mods("a"), []facts.EdgeFact{{From: "ghost", To: "ghost"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.EdgeCount() != 0 {
		t.Fatalf("expected 0 edges, got %d", g.EdgeCount())
	}
}

func TestBuild_DuplicateEdgesCollapseFirstKindWins(t *testing.T) {
	g, err := Build(mods("a", "b"), []facts.EdgeFact{
		{From: "a", To: "b", Kind: "static"},
		{From: "a", To: "b", Kind: "dynamic"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	edges := g.Edges()
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].Kind != "static" {
		t.Fatalf("first kind should win, got %q", edges[0].Kind)
	}
}

func TestBuild_DisplayNameDefaultsToID(t *testing.T) {
	g, err := Build([]facts.ModuleFact{{ID: "core"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := g.Module("core")
	if !ok {
		t.Fatal("module not found")
	}
	if m.DisplayName != "core" {
		t.Fatalf("expected display name %q, got %q", "core", m.DisplayName)
	}
}

func TestGraph_DeterministicOrdering(t *testing.T) {
	g, err := Build(mods("c", "a", "b"), []facts.EdgeFact{
		edge("c", "a"),
		edge("b", "a"),
		edge("b", "c"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, m := range g.Modules() {
		ids = append(ids, m.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Fatalf("modules not sorted: %v", ids)
	}

	edges := g.Edges()
	want := []Edge{{From: "b", To: "a"}, {From: "b", To: "c"}, {From: "c", To: "a"}}
	if !reflect.DeepEqual(edges, want) {
		t.Fatalf("edges not sorted: %v", edges)
	}
}

func TestGraph_NeighborsAndIncoming(t *testing.T) {
	g, err := Build(mods("a", "b", "c"), []facts.EdgeFact{
		edge("a", "c"),
		edge("a", "b"),
		edge("b", "c"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := g.Neighbors("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("neighbors of a: %v", got)
	}
	if got := g.Incoming("c"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("incoming of c: %v", got)
	}
	if got := g.Neighbors("c"); got != nil {
		t.Fatalf("expected no neighbors for c, got %v", got)
	}
}

func TestGraph_AccessorsReturnCopies(t *testing.T) {
	g, err := Build(mods("a", "b"), []facts.EdgeFact{edge("a", "b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := g.Neighbors("a")
	n[0] = "mutated"
	if got := g.Neighbors("a"); got[0] != "b" {
		t.Fatalf("graph mutated through accessor: %v", got)
	}

	e := g.Edges()
	e[0].To = "mutated"
	if got := g.Edges(); got[0].To != "b" {
		t.Fatalf("graph mutated through Edges: %v", got)
	}
}
