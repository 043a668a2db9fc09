// Package coupling computes afferent/efferent coupling and instability per
// module.
package coupling

import "girder/internal/graph"

// Assessment bands an instability value for reporting.
type Assessment string

const (
	AssessStable   Assessment = "stable"
	AssessModerate Assessment = "moderate"
	AssessUnstable Assessment = "unstable"
)

// Record holds the coupling metrics for one module.
type Record struct {
	Afferent    int        `json:"afferent"`    // distinct modules depending on this one
	Efferent    int        `json:"efferent"`    // distinct modules this one depends on
	Instability float64    `json:"instability"` // Ce / (Ca + Ce), 0.0 when isolated
	Assessment  Assessment `json:"assessment"`
}

// Thresholds band instability values. Instability below Stable is "stable",
// above Unstable is "unstable", anything between is "moderate".
type Thresholds struct {
	Stable   float64
	Unstable float64
}

// DefaultThresholds returns the standard 0.3 / 0.7 banding.
func DefaultThresholds() Thresholds {
	return Thresholds{Stable: 0.3, Unstable: 0.7}
}

// Analyze computes a coupling record for every module using default banding.
func Analyze(g *graph.Graph) map[string]Record {
	return AnalyzeWith(g, DefaultThresholds())
}

// AnalyzeWith computes coupling records with caller-supplied banding
// thresholds. Single O(V+E) pass over the adjacency already built in the
// graph; no side effects.
func AnalyzeWith(g *graph.Graph, t Thresholds) map[string]Record {
	out := make(map[string]Record, g.ModuleCount())
	for _, m := range g.Modules() {
		ca := len(g.Incoming(m.ID))
		ce := len(g.Neighbors(m.ID))

		inst := 0.0
		if ca+ce > 0 {
			inst = float64(ce) / float64(ca+ce)
		}

		out[m.ID] = Record{
			Afferent:    ca,
			Efferent:    ce,
			Instability: inst,
			Assessment:  t.assess(inst),
		}
	}
	return out
}

func (t Thresholds) assess(instability float64) Assessment {
	switch {
	case instability < t.Stable:
		return AssessStable
	case instability > t.Unstable:
		return AssessUnstable
	default:
		return AssessModerate
	}
}
