package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the analyzer.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    prometheus.Counter
	AnalysisFailures prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	AnalysisSeconds  prometheus.Histogram

	GraphModules   prometheus.Gauge
	GraphEdges     prometheus.Gauge
	CycleCount     prometheus.Gauge
	ViolationCount prometheus.Gauge
	AvgInstability prometheus.Gauge
}

// NewMetrics creates and registers the analyzer metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "girder_analyses_total",
			Help: "Total number of analysis runs.",
		}),
		AnalysisFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "girder_analysis_failures_total",
			Help: "Analysis runs that failed during graph construction.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "girder_report_cache_hits_total",
			Help: "Analysis runs served from the fingerprint cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "girder_report_cache_misses_total",
			Help: "Analysis runs that missed the fingerprint cache.",
		}),
		AnalysisSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "girder_analysis_duration_seconds",
			Help:    "Wall time of full analysis runs.",
			Buckets: prometheus.DefBuckets,
		}),
		GraphModules: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "girder_graph_modules",
			Help: "Module count of the most recently analyzed graph.",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "girder_graph_edges",
			Help: "Edge count of the most recently analyzed graph.",
		}),
		CycleCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "girder_cycles",
			Help: "Circular dependencies found in the most recent run.",
		}),
		ViolationCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "girder_layer_violations",
			Help: "Layer violations found in the most recent run.",
		}),
		AvgInstability: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "girder_average_instability",
			Help: "Average instability of the most recent run.",
		}),
	}

	reg.MustRegister(
		m.AnalysesTotal, m.AnalysisFailures,
		m.CacheHits, m.CacheMisses, m.AnalysisSeconds,
		m.GraphModules, m.GraphEdges,
		m.CycleCount, m.ViolationCount, m.AvgInstability,
	)
	return m
}

// ObserveReport updates the last-run gauges from a finished analysis.
func (m *Metrics) ObserveReport(moduleCount, edgeCount, cycleCount, violationCount int, avgInstability float64) {
	m.GraphModules.Set(float64(moduleCount))
	m.GraphEdges.Set(float64(edgeCount))
	m.CycleCount.Set(float64(cycleCount))
	m.ViolationCount.Set(float64(violationCount))
	m.AvgInstability.Set(avgInstability)
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
