package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventIngest        AuditEventType = "facts.ingest"
	AuditEventAnalyzeStart  AuditEventType = "analysis.start"
	AuditEventAnalyzeDone   AuditEventType = "analysis.complete"
	AuditEventAnalyzeError  AuditEventType = "analysis.error"
	AuditEventGateRun       AuditEventType = "gates.run"
	AuditEventExport        AuditEventType = "graph.export"
	AuditEventServeRequest  AuditEventType = "serve.request"
	AuditEventWorkflowStart AuditEventType = "workflow.start"
	AuditEventWorkflowEnd   AuditEventType = "workflow.end"
)

// AuditEvent represents a single audit log entry, written as one JSONL line.
type AuditEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	EventType   AuditEventType `json:"event_type"`
	SessionID   string         `json:"session_id"`
	Success     bool           `json:"success"`
	Duration    time.Duration  `json:"duration_ms,omitempty"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	ErrorDetail string         `json:"error_detail,omitempty"`
}

// AuditLogger handles audit event logging.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	enabled   bool
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // File path or "stdout"/"stderr"
	SessionID  string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:    true,
		OutputPath: "stderr",
	}
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config *AuditConfig) (*AuditLogger, error) {
	if config == nil {
		config = DefaultAuditConfig()
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stdout":
		writer = os.Stdout
	case "stderr", "":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}

	return &AuditLogger{
		writer:    writer,
		sessionID: sessionID,
		enabled:   config.Enabled,
	}, nil
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogIngest logs a fact-set ingestion.
func (l *AuditLogger) LogIngest(source string, moduleFacts, edgeFacts int) {
	l.Log(&AuditEvent{
		EventType: AuditEventIngest,
		Success:   true,
		Message:   fmt.Sprintf("Ingested %d module and %d edge facts", moduleFacts, edgeFacts),
		Details: map[string]any{
			"source":  source,
			"modules": moduleFacts,
			"edges":   edgeFacts,
		},
	})
}

// LogAnalysisComplete logs a finished analysis run.
func (l *AuditLogger) LogAnalysisComplete(fingerprint string, duration time.Duration, cycleCount, violationCount int, cached bool) {
	l.Log(&AuditEvent{
		EventType: AuditEventAnalyzeDone,
		Success:   true,
		Duration:  duration,
		Message:   "Analysis complete",
		Details: map[string]any{
			"fingerprint": fingerprint,
			"cycles":      cycleCount,
			"violations":  violationCount,
			"cached":      cached,
		},
	})
}

// LogAnalysisError logs a failed analysis run.
func (l *AuditLogger) LogAnalysisError(err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventAnalyzeError,
		Success:     false,
		Message:     "Analysis failed",
		ErrorDetail: err.Error(),
	})
}

// LogGateRun logs a quality gate evaluation.
func (l *AuditLogger) LogGateRun(passed bool, failedCount int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventGateRun,
		Success:   passed,
		Duration:  duration,
		Message:   fmt.Sprintf("Gates evaluated: %d failed", failedCount),
	})
}

// LogExport logs a graph store export.
func (l *AuditLogger) LogExport(target string, moduleCount, edgeCount int, err error) {
	event := &AuditEvent{
		EventType: AuditEventExport,
		Success:   err == nil,
		Message:   fmt.Sprintf("Exported graph to %s", target),
		Details: map[string]any{
			"target":  target,
			"modules": moduleCount,
			"edges":   edgeCount,
		},
	}
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	l.Log(event)
}

// LogServeRequest logs a handled API request.
func (l *AuditLogger) LogServeRequest(method, path string, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventServeRequest,
		Success:   true,
		Duration:  duration,
		Message:   fmt.Sprintf("%s %s", method, path),
	})
}

// Close closes the audit logger (if using a file).
func (l *AuditLogger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}
