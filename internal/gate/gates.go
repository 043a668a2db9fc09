package gate

import (
	"fmt"
	"sort"
	"strings"

	"girder/internal/coupling"
	"girder/internal/report"
)

// CyclesGate fails when the dependency graph contains more cycles than
// allowed. MaxCycles is normally zero: any cycle among modules is a build
// ordering hazard.
type CyclesGate struct {
	MaxCycles int
	severity  GateSeverity
}

func NewCyclesGate(maxCycles int, severity GateSeverity) *CyclesGate {
	return &CyclesGate{MaxCycles: maxCycles, severity: severity}
}

func (g *CyclesGate) Name() string           { return "cycles" }
func (g *CyclesGate) Severity() GateSeverity { return g.severity }
func (g *CyclesGate) Evaluate(rep *report.AnalysisReport) (*GateResult, error) {
	r := &GateResult{
		Name:     g.Name(),
		Severity: g.severity,
	}
	if rep.CycleCount <= g.MaxCycles {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("%d cycles within limit %d", rep.CycleCount, g.MaxCycles)
		return r, nil
	}
	r.Status = GateFailed
	r.Message = fmt.Sprintf("%d cycles exceed limit %d", rep.CycleCount, g.MaxCycles)
	for _, c := range rep.Cycles {
		r.Details = append(r.Details, strings.Join(c, " -> "))
	}
	return r, nil
}

// LayerGate fails when any dependency crosses the layer policy in the wrong
// direction.
type LayerGate struct {
	severity GateSeverity
}

func NewLayerGate(severity GateSeverity) *LayerGate {
	return &LayerGate{severity: severity}
}

func (g *LayerGate) Name() string           { return "layers" }
func (g *LayerGate) Severity() GateSeverity { return g.severity }
func (g *LayerGate) Evaluate(rep *report.AnalysisReport) (*GateResult, error) {
	r := &GateResult{
		Name:     g.Name(),
		Severity: g.severity,
	}
	if rep.ViolationCount == 0 {
		r.Status = GatePassed
		r.Message = "No layer violations"
		return r, nil
	}
	r.Status = GateFailed
	r.Message = fmt.Sprintf("%d layer violations", rep.ViolationCount)
	for _, v := range rep.Violations {
		r.Details = append(r.Details, v.Reason)
	}
	return r, nil
}

// InstabilityGate warns when too large a share of modules sits in the
// unstable band. It never fails the run outright; widespread instability is
// a trend to watch, not a defect in any single change.
type InstabilityGate struct {
	MaxUnstableRatio float64
	severity         GateSeverity
}

func NewInstabilityGate(maxUnstableRatio float64, severity GateSeverity) *InstabilityGate {
	return &InstabilityGate{MaxUnstableRatio: maxUnstableRatio, severity: severity}
}

func (g *InstabilityGate) Name() string           { return "instability" }
func (g *InstabilityGate) Severity() GateSeverity { return g.severity }
func (g *InstabilityGate) Evaluate(rep *report.AnalysisReport) (*GateResult, error) {
	r := &GateResult{
		Name:     g.Name(),
		Severity: g.severity,
	}
	if len(rep.Coupling) == 0 {
		r.Status = GateSkipped
		r.Message = "No modules to assess"
		return r, nil
	}

	ids := make([]string, 0, len(rep.Coupling))
	for id := range rep.Coupling {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	unstable := 0
	for _, id := range ids {
		rec := rep.Coupling[id]
		if rec.Assessment == coupling.AssessUnstable {
			unstable++
			r.Details = append(r.Details, fmt.Sprintf("%s (I=%.2f)", id, rec.Instability))
		}
	}
	ratio := float64(unstable) / float64(len(rep.Coupling))

	if ratio <= g.MaxUnstableRatio {
		r.Status = GatePassed
		r.Details = nil
		r.Message = fmt.Sprintf("Unstable ratio %.1f%% within limit %.1f%%",
			ratio*100, g.MaxUnstableRatio*100)
		return r, nil
	}
	r.Status = GateWarning
	r.Message = fmt.Sprintf("Unstable ratio %.1f%% exceeds limit %.1f%% (%d/%d modules)",
		ratio*100, g.MaxUnstableRatio*100, unstable, len(rep.Coupling))
	return r, nil
}
