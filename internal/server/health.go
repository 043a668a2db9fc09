// Package server provides the HTTP surface: health and readiness probes,
// the analysis API, and graceful shutdown.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

// HealthStatus classifies a component or the whole process.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck is one component's probe result.
type HealthCheck struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse is the body of every probe endpoint.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version,omitempty"`
	Checks    []HealthCheck `json:"checks,omitempty"`
}

// HealthChecker probes one component. The context carries the request
// deadline.
type HealthChecker func(ctx context.Context) HealthCheck

// HealthConfig configures the health server.
type HealthConfig struct {
	Version string
}

// HealthServer serves liveness, readiness, and component health probes.
// It starts not-ready; callers flip readiness once initialization is done.
type HealthServer struct {
	mu      sync.RWMutex
	checks  map[string]HealthChecker
	version string
	ready   bool
	live    bool
}

// NewHealthServer creates a health server.
func NewHealthServer(cfg *HealthConfig) *HealthServer {
	s := &HealthServer{
		checks: make(map[string]HealthChecker),
		live:   true,
	}
	if cfg != nil {
		s.version = cfg.Version
	}
	return s
}

// RegisterCheck adds a component probe under the given name.
func (s *HealthServer) RegisterCheck(name string, checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = checker
}

// SetReady flips the readiness probe.
func (s *HealthServer) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// SetLive flips the liveness probe.
func (s *HealthServer) SetLive(live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = live
}

// Handler returns the probe endpoints, including the Kubernetes-style
// aliases.
func (s *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ready", s.handleFlag(func() bool { return s.ready }))
	mux.HandleFunc("/readyz", s.handleFlag(func() bool { return s.ready }))
	mux.HandleFunc("/live", s.handleFlag(func() bool { return s.live }))
	mux.HandleFunc("/livez", s.handleFlag(func() bool { return s.live }))
	return mux
}

func (s *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]HealthChecker, len(names))
	for i, name := range names {
		checks[i] = s.checks[name]
	}
	version := s.version
	s.mu.RUnlock()

	resp := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   version,
	}
	for i, checker := range checks {
		check := checker(ctx)
		check.Name = names[i]
		resp.Checks = append(resp.Checks, check)

		switch check.Status {
		case HealthStatusUnhealthy:
			resp.Status = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if resp.Status == HealthStatusHealthy {
				resp.Status = HealthStatusDegraded
			}
		}
	}

	code := http.StatusOK
	if resp.Status == HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeProbe(w, code, resp)
}

func (s *HealthServer) handleFlag(flag func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		ok := flag()
		s.mu.RUnlock()

		resp := HealthResponse{Status: HealthStatusHealthy, Timestamp: time.Now().UTC()}
		if !ok {
			resp.Status = HealthStatusUnhealthy
			writeProbe(w, http.StatusServiceUnavailable, resp)
			return
		}
		writeProbe(w, http.StatusOK, resp)
	}
}

func writeProbe(w http.ResponseWriter, code int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

// GraphStoreHealthChecker probes graph store connectivity. A nil checkFn
// reports healthy, for deployments without a configured store. Store
// failures degrade rather than fail the process: analysis works without
// the store.
func GraphStoreHealthChecker(checkFn func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheck {
		if checkFn == nil {
			return HealthCheck{Status: HealthStatusHealthy, Message: "graph store not configured"}
		}
		if err := checkFn(ctx); err != nil {
			return HealthCheck{Status: HealthStatusDegraded, Message: "graph store: " + err.Error()}
		}
		return HealthCheck{Status: HealthStatusHealthy, Message: "graph store ok"}
	}
}

// TemporalHealthChecker probes Temporal connectivity.
func TemporalHealthChecker(checkFn func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheck {
		if err := checkFn(ctx); err != nil {
			return HealthCheck{Status: HealthStatusUnhealthy, Message: "temporal: " + err.Error()}
		}
		return HealthCheck{Status: HealthStatusHealthy, Message: "temporal ok"}
	}
}

// FactsSourceHealthChecker probes that a facts file exists and is statable.
func FactsSourceHealthChecker(path string) HealthChecker {
	return func(ctx context.Context) HealthCheck {
		if path == "" {
			return HealthCheck{Status: HealthStatusHealthy, Message: "no facts source configured"}
		}
		if _, err := os.Stat(path); err != nil {
			return HealthCheck{
				Status:  HealthStatusUnhealthy,
				Message: "facts source: " + err.Error(),
				Details: map[string]string{"path": path},
			}
		}
		return HealthCheck{
			Status:  HealthStatusHealthy,
			Message: "facts source ok",
			Details: map[string]string{"path": path},
		}
	}
}
