// Package analysis orchestrates a full dependency analysis run: build the
// graph once, run the independent analyses in parallel over the immutable
// graph, and assemble the report. Results are cached by the content
// fingerprint of the input facts.
package analysis

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"girder/internal/coupling"
	"girder/internal/cycles"
	"girder/internal/facts"
	"girder/internal/graph"
	"girder/internal/layers"
	"girder/internal/observability"
	"girder/internal/report"
)

// DefaultCacheSize bounds the fingerprint-keyed report cache.
const DefaultCacheSize = 64

// Config configures an Analyzer.
type Config struct {
	// Policy enables layer validation; nil skips it.
	Policy *layers.Policy

	// Thresholds band instability values. Zero value means defaults.
	Thresholds coupling.Thresholds

	// CacheSize bounds the report cache. Negative disables caching,
	// zero uses DefaultCacheSize.
	CacheSize int

	// Metrics and Audit are optional observability sinks.
	Metrics *observability.Metrics
	Audit   *observability.AuditLogger
}

// Analyzer runs batch dependency analyses.
type Analyzer struct {
	policy     *layers.Policy
	thresholds coupling.Thresholds
	cache      *lru.Cache[string, *report.AnalysisReport]
	metrics    *observability.Metrics
	audit      *observability.AuditLogger
}

// New creates an analyzer.
func New(cfg Config) (*Analyzer, error) {
	a := &Analyzer{
		policy:     cfg.Policy,
		thresholds: cfg.Thresholds,
		metrics:    cfg.Metrics,
		audit:      cfg.Audit,
	}
	if a.thresholds == (coupling.Thresholds{}) {
		a.thresholds = coupling.DefaultThresholds()
	}

	size := cfg.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[string, *report.AnalysisReport](size)
		if err != nil {
			return nil, err
		}
		a.cache = cache
	}
	return a, nil
}

// BuildGraph constructs the validated graph for a fact set without running
// any analysis. Used by the render and export surfaces.
func (a *Analyzer) BuildGraph(ctx context.Context, fs *facts.FactSet) (*graph.Graph, error) {
	_, span := observability.StartBuildSpan(ctx)
	defer span.End()

	g, err := graph.Build(fs.Modules, fs.Edges)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.RecordBuildResult(span, g.ModuleCount(), g.EdgeCount())
	return g, nil
}

// Analyze runs the full pipeline over one fact set. The returned report is
// shared with the cache and must be treated as read-only.
func (a *Analyzer) Analyze(ctx context.Context, fs *facts.FactSet) (*report.AnalysisReport, error) {
	start := time.Now()
	ctx, span := observability.StartAnalysisSpan(ctx, observability.SpanKindAnalyze)
	defer span.End()

	fp := facts.Fingerprint(fs)
	if a.cache != nil {
		if cached, ok := a.cache.Get(fp); ok {
			if a.metrics != nil {
				a.metrics.CacheHits.Inc()
			}
			if a.audit != nil {
				a.audit.LogAnalysisComplete(fp, time.Since(start), cached.CycleCount, cached.ViolationCount, true)
			}
			return cached, nil
		}
	}
	if a.metrics != nil {
		a.metrics.CacheMisses.Inc()
	}

	g, err := a.BuildGraph(ctx, fs)
	if err != nil {
		if a.metrics != nil {
			a.metrics.AnalysisFailures.Inc()
		}
		if a.audit != nil {
			a.audit.LogAnalysisError(err)
		}
		observability.RecordError(span, err)
		return nil, err
	}

	// The graph is frozen after construction, so the analyses can run
	// concurrently without synchronization.
	var (
		wg   sync.WaitGroup
		cyc  []cycles.Cycle
		coup map[string]coupling.Record
		viol []layers.Violation
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, s := observability.StartAnalysisSpan(ctx, observability.SpanKindCycles)
		defer s.End()
		cyc = cycles.Detect(g)
		observability.RecordCycleResult(s, len(cyc))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, s := observability.StartAnalysisSpan(ctx, observability.SpanKindCoupling)
		defer s.End()
		coup = coupling.AnalyzeWith(g, a.thresholds)
	}()

	if a.policy != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, s := observability.StartAnalysisSpan(ctx, observability.SpanKindLayers)
			defer s.End()
			viol = layers.Validate(g, a.policy)
			observability.RecordLayerResult(s, len(viol))
		}()
	}

	wg.Wait()

	rep := report.Assemble(g, cyc, coup, viol)

	if a.metrics != nil {
		a.metrics.AnalysesTotal.Inc()
		a.metrics.AnalysisSeconds.Observe(time.Since(start).Seconds())
		a.metrics.ObserveReport(rep.ModuleCount, rep.EdgeCount, rep.CycleCount, rep.ViolationCount, rep.AverageInstability)
	}
	if a.audit != nil {
		a.audit.LogAnalysisComplete(fp, time.Since(start), rep.CycleCount, rep.ViolationCount, false)
	}
	if a.cache != nil {
		a.cache.Add(fp, rep)
	}
	return rep, nil
}
