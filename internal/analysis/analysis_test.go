package analysis

import (
	"context"
	"errors"
	"testing"

	"girder/internal/facts"
	"girder/internal/graph"
	"girder/internal/layers"
)

func testFacts() *facts.FactSet {
	return &facts.FactSet{
		Modules: []facts.ModuleFact{
			{ID: "core", Layer: "domain"},
			{ID: "api", Layer: "application"},
			{ID: "web", Layer: "interface"},
		},
		Edges: []facts.EdgeFact{
			{From: "api", To: "core"},
			{From: "web", To: "api"},
		},
	}
}

func newAnalyzer(t *testing.T, policy *layers.Policy) *Analyzer {
	t.Helper()
	a, err := New(Config{Policy: policy})
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	return a
}

func TestAnalyze_CleanGraph(t *testing.T) {
	p, _ := layers.NewPolicy("domain", "application", "interface")
	a := newAnalyzer(t, p)

	rep, err := a.Analyze(context.Background(), testFacts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.ModuleCount != 3 || rep.EdgeCount != 2 {
		t.Fatalf("counts: %+v", rep)
	}
	if rep.CycleCount != 0 || rep.ViolationCount != 0 {
		t.Fatalf("clean graph should have no findings: %+v", rep)
	}
	if len(rep.Coupling) != 3 {
		t.Fatalf("expected coupling for every module, got %d", len(rep.Coupling))
	}
}

func TestAnalyze_FindsCyclesAndViolations(t *testing.T) {
	p, _ := layers.NewPolicy("domain", "application")
	a := newAnalyzer(t, p)

	fs := &facts.FactSet{
		Modules: []facts.ModuleFact{
			{ID: "core", Layer: "domain"},
			{ID: "api", Layer: "application"},
		},
		Edges: []facts.EdgeFact{
			{From: "api", To: "core"},
			{From: "core", To: "api"},
		},
	}

	rep, err := a.Analyze(context.Background(), fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.CycleCount != 1 {
		t.Fatalf("expected 1 cycle, got %d", rep.CycleCount)
	}
	if rep.ViolationCount != 1 {
		t.Fatalf("expected 1 violation, got %d", rep.ViolationCount)
	}
	if rep.Violations[0].From != "core" {
		t.Fatalf("violation should be the outward edge: %+v", rep.Violations[0])
	}
}

func TestAnalyze_NilPolicySkipsLayerValidation(t *testing.T) {
	a := newAnalyzer(t, nil)

	fs := &facts.FactSet{
		Modules: []facts.ModuleFact{
			{ID: "core", Layer: "domain"},
			{ID: "api", Layer: "application"},
		},
		Edges: []facts.EdgeFact{{From: "core", To: "api"}},
	}

	rep, err := a.Analyze(context.Background(), fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.ViolationCount != 0 {
		t.Fatalf("no policy means no violations, got %d", rep.ViolationCount)
	}
}

func TestAnalyze_BuildErrorPropagates(t *testing.T) {
	a := newAnalyzer(t, nil)

	fs := &facts.FactSet{
		Modules: []facts.ModuleFact{{ID: "a"}},
		Edges:   []facts.EdgeFact{{From: "a", To: "ghost"}},
	}

	_, err := a.Analyze(context.Background(), fs)
	var dangling *graph.DanglingReferenceError
	if !errors.As(err, &dangling) {
		t.Fatalf("expected DanglingReferenceError, got %v", err)
	}
}

func TestAnalyze_CacheReturnsSameReport(t *testing.T) {
	a := newAnalyzer(t, nil)

	first, err := a.Analyze(context.Background(), testFacts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Analyze(context.Background(), testFacts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("identical facts should hit the cache and share the report")
	}
}

func TestAnalyze_CacheDisabled(t *testing.T) {
	a, err := New(Config{CacheSize: -1})
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}

	first, _ := a.Analyze(context.Background(), testFacts())
	second, _ := a.Analyze(context.Background(), testFacts())
	if first == second {
		t.Fatal("disabled cache should recompute")
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a, err := New(Config{CacheSize: -1})
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}

	first, err := a.Analyze(context.Background(), testFacts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstJSON, _ := first.JSON()

	for i := 0; i < 5; i++ {
		rep, err := a.Analyze(context.Background(), testFacts())
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		repJSON, _ := rep.JSON()
		if string(repJSON) != string(firstJSON) {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, repJSON, firstJSON)
		}
	}
}

func TestBuildGraph(t *testing.T) {
	a := newAnalyzer(t, nil)

	g, err := a.BuildGraph(context.Background(), testFacts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.ModuleCount() != 3 || g.EdgeCount() != 2 {
		t.Fatalf("counts: %d modules, %d edges", g.ModuleCount(), g.EdgeCount())
	}
}
