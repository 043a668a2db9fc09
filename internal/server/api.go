package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"girder/internal/analysis"
	"girder/internal/facts"
	"girder/internal/gate"
	"girder/internal/observability"
	"girder/internal/report"
)

// APIServer exposes the analysis pipeline over HTTP. Facts are posted as
// JSON; the resulting report is kept for later retrieval.
type APIServer struct {
	analyzer *analysis.Analyzer
	gates    *gate.Pipeline
	metrics  *observability.Metrics
	audit    *observability.AuditLogger

	mu   sync.RWMutex
	last *report.AnalysisReport
}

// APIConfig configures the API server. Analyzer is required; the rest is
// optional.
type APIConfig struct {
	Analyzer *analysis.Analyzer
	Gates    *gate.Pipeline
	Metrics  *observability.Metrics
	Audit    *observability.AuditLogger
}

// NewAPIServer creates an API server.
func NewAPIServer(cfg *APIConfig) *APIServer {
	return &APIServer{
		analyzer: cfg.Analyzer,
		gates:    cfg.Gates,
		metrics:  cfg.Metrics,
		audit:    cfg.Audit,
	}
}

// Register mounts the API endpoints on mux.
func (s *APIServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/gates", s.handleGates)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
}

// analyzeResponse wraps the report with gate results when gates are
// configured.
type analyzeResponse struct {
	Report *report.AnalysisReport `json:"report"`
	Gates  *gate.PipelineResult   `json:"gates,omitempty"`
}

func (s *APIServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	start := time.Now()
	var fs facts.FactSet
	if err := json.NewDecoder(r.Body).Decode(&fs); err != nil {
		s.writeError(w, http.StatusBadRequest, "decoding facts: "+err.Error())
		return
	}

	rep, err := s.analyzer.Analyze(r.Context(), &fs)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	s.last = rep
	s.mu.Unlock()

	resp := analyzeResponse{Report: rep}
	if s.gates != nil {
		resp.Gates = s.gates.Run(rep)
	}
	if s.audit != nil {
		s.audit.LogServeRequest(r.Method, r.URL.Path, time.Since(start))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *APIServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		s.writeError(w, http.StatusNotFound, "no analysis has run")
		return
	}
	s.writeJSON(w, http.StatusOK, last)
}

func (s *APIServer) handleGates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	if s.gates == nil {
		s.writeError(w, http.StatusNotFound, "gates not configured")
		return
	}

	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		s.writeError(w, http.StatusNotFound, "no analysis has run")
		return
	}
	s.writeJSON(w, http.StatusOK, s.gates.Run(last))
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *APIServer) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
