package cycles

import (
	"reflect"
	"testing"

	"girder/internal/facts"
	"girder/internal/graph"
)

func build(t *testing.T, moduleIDs []string, edges [][2]string) *graph.Graph {
	t.Helper()
	var ms []facts.ModuleFact
	for _, id := range moduleIDs {
		ms = append(ms, facts.ModuleFact{ID: id})
	}
	var es []facts.EdgeFact
	for _, e := range edges {
		es = append(es, facts.EdgeFact{From: e[0], To: e[1]})
	}
	g, err := graph.Build(ms, es)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func TestDetect_DAGHasNoCycles(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"}, [][2]string{
		{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"},
	})
	if got := Detect(g); len(got) != 0 {
		t.Fatalf("expected no cycles in a DAG, got %v", got)
	}
}

func TestDetect_TwoCycle(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})

	got := Detect(g)
	want := []Cycle{{"a", "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDetect_RingOfN(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d", "e"}, [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "e"}, {"e", "a"},
	})

	got := Detect(g)
	if len(got) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(got))
	}
	want := Cycle{"a", "b", "c", "d", "e"}
	if !reflect.DeepEqual(got[0], want) {
		t.Fatalf("got %v, want %v", got[0], want)
	}
}

func TestDetect_WitnessStartsAtSmallestID(t *testing.T) {
	g := build(t, []string{"x", "m", "q"}, [][2]string{
		{"x", "m"}, {"m", "q"}, {"q", "x"},
	})

	got := Detect(g)
	if len(got) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(got))
	}
	if got[0][0] != "m" {
		t.Fatalf("witness should start at smallest id, got %v", got[0])
	}
}

func TestDetect_MultipleIndependentCycles(t *testing.T) {
	g := build(t, []string{"a", "b", "p", "q", "z"}, [][2]string{
		{"a", "b"}, {"b", "a"},
		{"p", "q"}, {"q", "p"},
		{"z", "a"}, {"z", "p"},
	})

	got := Detect(g)
	want := []Cycle{{"a", "b"}, {"p", "q"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDetect_SharedModuleBetweenPaths(t *testing.T) {
	// a -> b -> c -> a plus shortcut b -> a: one SCC, one witness.
	g := build(t, []string{"a", "b", "c"}, [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "a"}, {"b", "a"},
	})

	got := Detect(g)
	if len(got) != 1 {
		t.Fatalf("one SCC should yield one witness, got %v", got)
	}
	if got[0][0] != "a" {
		t.Fatalf("witness should start at a, got %v", got[0])
	}
}

func TestDetect_Deterministic(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"}, [][2]string{
		{"a", "b"}, {"b", "a"}, {"c", "d"}, {"d", "c"},
	})

	first := Detect(g)
	for i := 0; i < 10; i++ {
		if got := Detect(g); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestDetect_EmptyGraph(t *testing.T) {
	g := build(t, nil, nil)
	if got := Detect(g); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
