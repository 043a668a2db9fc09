// Package report assembles analysis results into one structured output.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"girder/internal/coupling"
	"girder/internal/cycles"
	"girder/internal/graph"
	"girder/internal/layers"
)

// AnalysisReport combines the outputs of every analysis with summary counts.
type AnalysisReport struct {
	ModuleCount        int                        `json:"module_count"`
	EdgeCount          int                        `json:"edge_count"`
	CycleCount         int                        `json:"cycle_count"`
	ViolationCount     int                        `json:"violation_count"`
	AverageInstability float64                    `json:"average_instability"`
	Cycles             []cycles.Cycle             `json:"cycles,omitempty"`
	Coupling           map[string]coupling.Record `json:"coupling"`
	Violations         []layers.Violation         `json:"violations,omitempty"`
}

// Assemble combines prior analysis outputs. Pure aggregation: nothing is
// recomputed from the graph beyond summary counts.
func Assemble(g *graph.Graph, cyc []cycles.Cycle, coup map[string]coupling.Record, viol []layers.Violation) *AnalysisReport {
	avg := 0.0
	if len(coup) > 0 {
		sum := 0.0
		for _, rec := range coup {
			sum += rec.Instability
		}
		avg = sum / float64(len(coup))
	}

	return &AnalysisReport{
		ModuleCount:        g.ModuleCount(),
		EdgeCount:          g.EdgeCount(),
		CycleCount:         len(cyc),
		ViolationCount:     len(viol),
		AverageInstability: avg,
		Cycles:             cyc,
		Coupling:           coup,
		Violations:         viol,
	}
}

// JSON serializes the report.
func (r *AnalysisReport) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Format returns a human-readable summary of the report.
func Format(r *AnalysisReport) string {
	var b strings.Builder
	b.WriteString("Dependency Analysis Report\n")
	b.WriteString("==========================\n\n")
	b.WriteString(fmt.Sprintf("Modules:     %d\n", r.ModuleCount))
	b.WriteString(fmt.Sprintf("Edges:       %d\n", r.EdgeCount))
	b.WriteString(fmt.Sprintf("Cycles:      %d\n", r.CycleCount))
	b.WriteString(fmt.Sprintf("Violations:  %d\n", r.ViolationCount))
	b.WriteString(fmt.Sprintf("Avg I:       %.3f\n", r.AverageInstability))

	if len(r.Cycles) > 0 {
		b.WriteString("\nCircular Dependencies:\n")
		for i, cycle := range r.Cycles {
			b.WriteString(fmt.Sprintf("  %d: %s\n", i+1, strings.Join(cycle, " -> ")))
		}
	}

	if len(r.Violations) > 0 {
		b.WriteString("\nLayer Violations:\n")
		for _, v := range r.Violations {
			b.WriteString(fmt.Sprintf("  %s (%s) -> %s (%s)\n", v.From, v.FromLayer, v.To, v.ToLayer))
		}
	}

	if len(r.Coupling) > 0 {
		b.WriteString("\nCoupling:\n")
		for _, id := range sortedIDs(r.Coupling) {
			rec := r.Coupling[id]
			b.WriteString(fmt.Sprintf("  %-30s Ca=%-3d Ce=%-3d I=%.3f [%s]\n",
				id, rec.Afferent, rec.Efferent, rec.Instability, rec.Assessment))
		}
	}

	return b.String()
}

func sortedIDs(coup map[string]coupling.Record) []string {
	ids := make([]string, 0, len(coup))
	for id := range coup {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
