package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

// DefaultShutdownTimeout bounds how long hooks may run once shutdown begins.
const DefaultShutdownTimeout = 30 * time.Second

// ShutdownHook is one cleanup step. Lower priority runs first, so resources
// that stop accepting work (HTTP listeners) go before the sinks they feed
// (audit log, tracing).
type ShutdownHook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// ShutdownConfig configures the shutdown handler.
type ShutdownConfig struct {
	Timeout time.Duration
	Signals []os.Signal
}

// ShutdownHandler runs registered hooks in priority order when a signal
// arrives or Shutdown is called.
type ShutdownHandler struct {
	mu      sync.Mutex
	hooks   []ShutdownHook
	timeout time.Duration
	signals []os.Signal
	started bool

	triggerOnce sync.Once
	triggerCh   chan struct{}
	doneOnce    sync.Once
	doneCh      chan struct{}
}

// NewShutdownHandler creates a shutdown handler. A nil config listens for
// SIGTERM and SIGINT with the default timeout.
func NewShutdownHandler(cfg *ShutdownConfig) *ShutdownHandler {
	h := &ShutdownHandler{
		timeout:   DefaultShutdownTimeout,
		signals:   []os.Signal{syscall.SIGTERM, syscall.SIGINT},
		triggerCh: make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	if cfg != nil {
		if cfg.Timeout > 0 {
			h.timeout = cfg.Timeout
		}
		if len(cfg.Signals) > 0 {
			h.signals = cfg.Signals
		}
	}
	return h
}

// RegisterHook adds a cleanup step. Hooks registered after shutdown has
// started are not run.
func (h *ShutdownHandler) RegisterHook(name string, priority int, fn func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, ShutdownHook{Name: name, Priority: priority, Fn: fn})
}

// Start begins listening for shutdown signals.
func (h *ShutdownHandler) Start() {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.signals...)

	go func() {
		select {
		case <-sigCh:
		case <-h.triggerCh:
		}
		signal.Stop(sigCh)
		h.runHooks()
	}()
}

// Shutdown triggers shutdown without a signal. Safe to call more than once.
func (h *ShutdownHandler) Shutdown() {
	h.triggerOnce.Do(func() { close(h.triggerCh) })
}

// Wait blocks until every hook has run.
func (h *ShutdownHandler) Wait() {
	<-h.doneCh
}

// Done closes once every hook has run.
func (h *ShutdownHandler) Done() <-chan struct{} {
	return h.doneCh
}

// ShutdownCh closes when shutdown begins, before any hook runs. Used to flip
// readiness off while the hooks drain.
func (h *ShutdownHandler) ShutdownCh() <-chan struct{} {
	return h.triggerCh
}

func (h *ShutdownHandler) runHooks() {
	h.triggerOnce.Do(func() { close(h.triggerCh) })

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]ShutdownHook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].Priority < hooks[j].Priority })

	for _, hook := range hooks {
		if err := hook.Fn(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown hook %s: %v\n", hook.Name, err)
		}
	}

	h.doneOnce.Do(func() { close(h.doneCh) })
}
