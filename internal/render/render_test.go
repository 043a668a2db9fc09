package render

import (
	"reflect"
	"strings"
	"testing"

	"girder/internal/facts"
	"girder/internal/graph"
)

func build(t *testing.T, ms []facts.ModuleFact, edges [][2]string) *graph.Graph {
	t.Helper()
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

func TestDescribe_ClustersByGroup(t *testing.T) {
	g := build(t, []facts.ModuleFact{
		{ID: "core"}, {ID: "api"}, {ID: "web"},
	}, [][2]string{{"api", "core"}, {"web", "api"}})

	d := Describe(g, map[string]Annotation{
		"core": {Group: "backend"},
		"api":  {Group: "backend"},
	})

	if len(d.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(d.Clusters))
	}
	// Sorted keys: backend before ungrouped.
	if d.Clusters[0].Key != "backend" || d.Clusters[1].Key != DefaultCluster {
		t.Fatalf("unexpected cluster keys: %s, %s", d.Clusters[0].Key, d.Clusters[1].Key)
	}

	var backendIDs []string
	for _, n := range d.Clusters[0].Nodes {
		backendIDs = append(backendIDs, n.ID)
	}
	if !reflect.DeepEqual(backendIDs, []string{"api", "core"}) {
		t.Fatalf("backend nodes not sorted: %v", backendIDs)
	}
}

func TestDescribe_StatusMarkers(t *testing.T) {
	g := build(t, []facts.ModuleFact{
		{ID: "a", DisplayName: "Alpha"},
		{ID: "b", DisplayName: "Beta"},
		{ID: "c", DisplayName: "Gamma"},
	}, nil)

	d := Describe(g, map[string]Annotation{
		"a": {Status: StatusComplete},
		"b": {Status: StatusInProgress},
		"c": {Status: StatusDraft},
	})

	want := map[string]string{
		"a": "Alpha [done]",
		"b": "Beta [wip]",
		"c": "Gamma [draft]",
	}
	for _, n := range d.Clusters[0].Nodes {
		if n.Label != want[n.ID] {
			t.Errorf("node %s: got label %q, want %q", n.ID, n.Label, want[n.ID])
		}
	}
}

func TestDescribe_EdgesFollowGraphOrder(t *testing.T) {
	g := build(t, []facts.ModuleFact{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[][2]string{{"c", "a"}, {"a", "b"}})

	d := Describe(g, nil)
	want := []Edge{{From: "a", To: "b"}, {From: "c", To: "a"}}
	if !reflect.DeepEqual(d.Edges, want) {
		t.Fatalf("got %v, want %v", d.Edges, want)
	}
}

func TestLayerAnnotations(t *testing.T) {
	g := build(t, []facts.ModuleFact{
		{ID: "core", Layer: "domain"},
		{ID: "util"},
	}, nil)

	ann := LayerAnnotations(g)
	if ann["core"].Group != "domain" {
		t.Fatalf("expected domain group, got %+v", ann["core"])
	}
	if _, ok := ann["util"]; ok {
		t.Fatal("unlayered module should have no annotation")
	}
}

func TestExportDOT(t *testing.T) {
	g := build(t, []facts.ModuleFact{
		{ID: "core", Layer: "domain"},
		{ID: "api", Layer: "application"},
	}, [][2]string{{"api", "core"}})

	out := ExportDOT(Describe(g, LayerAnnotations(g)))

	for _, want := range []string{
		"digraph modules {",
		"subgraph cluster_domain {",
		"subgraph cluster_application {",
		`"api" -> "core";`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}

func TestExportMermaid(t *testing.T) {
	g := build(t, []facts.ModuleFact{
		{ID: "core/db", Layer: "domain"},
		{ID: "api"},
	}, [][2]string{{"api", "core/db"}})

	out := ExportMermaid(Describe(g, LayerAnnotations(g)))

	if !strings.HasPrefix(out, "graph LR\n") {
		t.Fatalf("mermaid output should start with graph LR:\n%s", out)
	}
	// Slashes are sanitized out of identifiers but kept in labels.
	if !strings.Contains(out, `core_db["core/db"]`) {
		t.Errorf("mermaid output should sanitize node ids:\n%s", out)
	}
	if !strings.Contains(out, "api --> core_db") {
		t.Errorf("mermaid output missing edge:\n%s", out)
	}
}

func TestExport_Deterministic(t *testing.T) {
	g := build(t, []facts.ModuleFact{
		{ID: "b", Layer: "one"}, {ID: "a", Layer: "two"}, {ID: "c"},
	}, [][2]string{{"a", "b"}, {"c", "a"}})

	d := Describe(g, LayerAnnotations(g))
	first := ExportDOT(d)
	for i := 0; i < 10; i++ {
		if got := ExportDOT(Describe(g, LayerAnnotations(g))); got != first {
			t.Fatalf("run %d differs", i)
		}
	}
}
