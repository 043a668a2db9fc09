// Package render projects a dependency graph into a structured diagram
// description and renders it into concrete markup dialects.
package render

import (
	"sort"

	"girder/internal/graph"
)

// Status annotates how far along a module is; it renders as a suffix marker
// on the node label.
type Status string

const (
	StatusComplete   Status = "complete"
	StatusInProgress Status = "in-progress"
	StatusDraft      Status = "draft"
)

// Annotation carries caller-supplied presentation hints for one module.
type Annotation struct {
	Group  string // visual cluster key, e.g. a layer or phase name
	Status Status
}

// DefaultCluster is the cluster that collects modules without a group.
const DefaultCluster = "ungrouped"

// Node is one renderable module.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Cluster groups nodes under one visual block.
type Cluster struct {
	Key   string `json:"key"`
	Nodes []Node `json:"nodes"`
}

// Edge is one directed diagram edge.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DiagramDescription is the neutral structural description handed to a
// concrete markup renderer.
type DiagramDescription struct {
	Clusters []Cluster `json:"clusters"`
	Edges    []Edge    `json:"edges"`
}

// Describe groups modules into clusters by the annotation group key, with
// ungrouped modules in the default cluster, and emits one edge statement per
// graph edge in (from, to) order. Absent annotations render the bare label.
func Describe(g *graph.Graph, annotations map[string]Annotation) *DiagramDescription {
	byKey := make(map[string][]Node)
	for _, m := range g.Modules() {
		ann := annotations[m.ID]
		key := ann.Group
		if key == "" {
			key = DefaultCluster
		}
		byKey[key] = append(byKey[key], Node{
			ID:    m.ID,
			Label: m.DisplayName + statusMarker(ann.Status),
		})
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := &DiagramDescription{}
	for _, k := range keys {
		nodes := byKey[k]
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
		d.Clusters = append(d.Clusters, Cluster{Key: k, Nodes: nodes})
	}

	for _, e := range g.Edges() {
		d.Edges = append(d.Edges, Edge{From: e.From, To: e.To})
	}
	return d
}

// LayerAnnotations derives annotations grouping modules by their assigned
// layer, the most common way to cluster an architecture diagram.
func LayerAnnotations(g *graph.Graph) map[string]Annotation {
	out := make(map[string]Annotation)
	for _, m := range g.Modules() {
		if m.Layer != "" {
			out[m.ID] = Annotation{Group: m.Layer}
		}
	}
	return out
}

func statusMarker(s Status) string {
	switch s {
	case StatusComplete:
		return " [done]"
	case StatusInProgress:
		return " [wip]"
	case StatusDraft:
		return " [draft]"
	default:
		return ""
	}
}
