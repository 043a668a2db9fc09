// Package layers validates dependency edges against a declared layer-ordering
// policy.
package layers

import (
	"fmt"

	"girder/internal/graph"
)

// Policy is an ordered list of layer names, innermost (most stable,
// depended-upon) first. Layers are a small closed configuration-driven set,
// so ranking is an index lookup rather than any type hierarchy.
type Policy struct {
	order []string
	rank  map[string]int
}

// NewPolicy builds a policy from layer names ordered innermost first.
func NewPolicy(names ...string) (*Policy, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("layer policy requires at least one layer")
	}
	p := &Policy{
		order: append([]string(nil), names...),
		rank:  make(map[string]int, len(names)),
	}
	for i, name := range names {
		if _, ok := p.rank[name]; ok {
			return nil, fmt.Errorf("duplicate layer %q in policy", name)
		}
		p.rank[name] = i
	}
	return p, nil
}

// Rank returns the index of a layer in the policy, innermost first. The
// second result is false for layer names the policy does not know.
func (p *Policy) Rank(layer string) (int, bool) {
	r, ok := p.rank[layer]
	return r, ok
}

// Layers returns the configured ordering, innermost first.
func (p *Policy) Layers() []string {
	return append([]string(nil), p.order...)
}

// Violation is an edge pointing outward: its source layer is more inward
// than its target layer, so a stable layer would come to depend on a less
// stable one.
type Violation struct {
	From      string `json:"from"`
	To        string `json:"to"`
	FromLayer string `json:"from_layer"`
	ToLayer   string `json:"to_layer"`
	Reason    string `json:"reason"`
}

// Validate checks every edge against the policy under the inward-only rule:
// a module may depend on modules in the same layer or in layers strictly
// more inward. Edges with an endpoint that has no layer assignment, or whose
// layer the policy does not know, are exempt. Violations are sorted by
// (from, to) because edges already are.
func Validate(g *graph.Graph, p *Policy) []Violation {
	var out []Violation
	for _, e := range g.Edges() {
		from, _ := g.Module(e.From)
		to, _ := g.Module(e.To)
		if from.Layer == "" || to.Layer == "" {
			continue
		}
		fromRank, ok := p.Rank(from.Layer)
		if !ok {
			continue
		}
		toRank, ok := p.Rank(to.Layer)
		if !ok {
			continue
		}
		if toRank > fromRank {
			out = append(out, Violation{
				From:      e.From,
				To:        e.To,
				FromLayer: from.Layer,
				ToLayer:   to.Layer,
				Reason: fmt.Sprintf("layer %q may only depend on %q or layers more inward, not %q",
					from.Layer, from.Layer, to.Layer),
			})
		}
	}
	return out
}
