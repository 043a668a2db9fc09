package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"
)

// AnalysisInput holds the workflow parameters.
type AnalysisInput struct {
	FactsPath  string // Facts file to ingest (.json, .yaml, .jsonl)
	OutputPath string // Where to write the report JSON ("" skips writing)

	RunGates    bool // Evaluate quality gates after analysis
	ExportGraph bool // Push the graph to the configured graph store
}

// AnalysisOutput holds the workflow result.
type AnalysisOutput struct {
	OutputPath     string
	ModuleCount    int
	EdgeCount      int
	CycleCount     int
	ViolationCount int

	GatesPassed bool
	GateSummary string
}

// AnalysisWorkflow orchestrates ingest, analysis, gate evaluation and graph
// export as separate activities so each step is retried independently.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (*AnalysisOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var ingested IngestResult
	if err := workflow.ExecuteActivity(ctx, IngestActivity, input).Get(ctx, &ingested); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	var analyzed AnalyzeResult
	if err := workflow.ExecuteActivity(ctx, AnalyzeActivity, input, ingested.FactsJSON).Get(ctx, &analyzed); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	output := &AnalysisOutput{
		OutputPath:     input.OutputPath,
		ModuleCount:    analyzed.ModuleCount,
		EdgeCount:      analyzed.EdgeCount,
		CycleCount:     analyzed.CycleCount,
		ViolationCount: analyzed.ViolationCount,
		GatesPassed:    true,
	}

	if input.RunGates {
		var gates GateOutcome
		if err := workflow.ExecuteActivity(ctx, GateActivity, analyzed.ReportJSON).Get(ctx, &gates); err != nil {
			return nil, fmt.Errorf("gates: %w", err)
		}
		output.GatesPassed = gates.Passed
		output.GateSummary = gates.Summary

		// A critical gate failure means the graph is not worth
		// publishing.
		if gates.Aborted {
			return output, nil
		}
	}

	if input.ExportGraph {
		if err := workflow.ExecuteActivity(ctx, ExportActivity, ingested.FactsJSON).Get(ctx, nil); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}

	return output, nil
}
