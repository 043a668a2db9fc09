package temporal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"girder/internal/analysis"
	"girder/internal/facts"
	"girder/internal/gate"
	"girder/internal/graph"
	"girder/internal/observability"
	"girder/internal/report"
	"girder/internal/store"
)

// IngestResult carries the loaded fact set between activities.
type IngestResult struct {
	FactsJSON string
	Modules   int
	Edges     int
}

// AnalyzeResult carries the finished report between activities.
type AnalyzeResult struct {
	ReportJSON     string
	ModuleCount    int
	EdgeCount      int
	CycleCount     int
	ViolationCount int
}

// GateOutcome is the serializable gate pipeline result.
type GateOutcome struct {
	Passed  bool
	Aborted bool
	Summary string
}

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Analyzer *analysis.Analyzer
	Gates    *gate.Pipeline
	Store    store.Repository // nil disables ExportActivity
	Audit    *observability.AuditLogger
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

func IngestActivity(ctx context.Context, input AnalysisInput) (IngestResult, error) {
	fs, err := facts.Load(input.FactsPath)
	if err != nil {
		return IngestResult{}, err
	}

	data, err := json.Marshal(fs)
	if err != nil {
		return IngestResult{}, fmt.Errorf("marshal facts: %w", err)
	}

	if deps.Audit != nil {
		deps.Audit.LogIngest(input.FactsPath, len(fs.Modules), len(fs.Edges))
	}
	return IngestResult{
		FactsJSON: string(data),
		Modules:   len(fs.Modules),
		Edges:     len(fs.Edges),
	}, nil
}

func AnalyzeActivity(ctx context.Context, input AnalysisInput, factsJSON string) (AnalyzeResult, error) {
	var fs facts.FactSet
	if err := json.Unmarshal([]byte(factsJSON), &fs); err != nil {
		return AnalyzeResult{}, err
	}

	rep, err := deps.Analyzer.Analyze(ctx, &fs)
	if err != nil {
		return AnalyzeResult{}, err
	}

	data, err := rep.JSON()
	if err != nil {
		return AnalyzeResult{}, err
	}

	if input.OutputPath != "" {
		if err := os.WriteFile(input.OutputPath, data, 0o644); err != nil {
			return AnalyzeResult{}, fmt.Errorf("write report: %w", err)
		}
	}

	return AnalyzeResult{
		ReportJSON:     string(data),
		ModuleCount:    rep.ModuleCount,
		EdgeCount:      rep.EdgeCount,
		CycleCount:     rep.CycleCount,
		ViolationCount: rep.ViolationCount,
	}, nil
}

func GateActivity(ctx context.Context, reportJSON string) (GateOutcome, error) {
	var rep report.AnalysisReport
	if err := json.Unmarshal([]byte(reportJSON), &rep); err != nil {
		return GateOutcome{}, err
	}

	result := deps.Gates.Run(&rep)

	if deps.Audit != nil {
		deps.Audit.LogGateRun(result.Status == gate.GatePassed, result.FailedCount, result.Duration)
	}
	return GateOutcome{
		Passed:  result.Status == gate.GatePassed,
		Aborted: result.SkippedCount > 0 && result.Status == gate.GateFailed,
		Summary: result.Summary,
	}, nil
}

func ExportActivity(ctx context.Context, factsJSON string) error {
	if deps.Store == nil {
		return fmt.Errorf("graph store not configured")
	}

	var fs facts.FactSet
	if err := json.Unmarshal([]byte(factsJSON), &fs); err != nil {
		return err
	}

	g, err := graph.Build(fs.Modules, fs.Edges)
	if err != nil {
		return err
	}

	err = deps.Store.StoreGraph(ctx, g)
	if deps.Audit != nil {
		deps.Audit.LogExport("graph-store", g.ModuleCount(), g.EdgeCount(), err)
	}
	return err
}
