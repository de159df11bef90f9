package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/k8s-pilot/k8s-pilot/internal/dispatch"
	"github.com/k8s-pilot/k8s-pilot/internal/instrumentation"
	"github.com/k8s-pilot/k8s-pilot/internal/k8s"
	"github.com/k8s-pilot/k8s-pilot/internal/kubecontext"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

// Validation errors for required ServerContext dependencies.
var (
	ErrMissingDispatcher = errors.New("dispatcher is required")
	ErrMissingContexts   = errors.New("context registry is required")
)

// ServerContext bundles the dependencies of the MCP server and manages
// their lifecycle.
type ServerContext struct {
	name    string
	version string

	contexts   *kubecontext.Registry
	pool       *k8s.Pool
	gate       *policy.Gate
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	metrics    *instrumentation.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext) error

// WithServerInfo sets the advertised server name and version.
func WithServerInfo(name, version string) Option {
	return func(sc *ServerContext) error {
		sc.name = name
		sc.version = version
		return nil
	}
}

// WithContexts sets the context registry.
func WithContexts(contexts *kubecontext.Registry) Option {
	return func(sc *ServerContext) error {
		if contexts == nil {
			return ErrMissingContexts
		}
		sc.contexts = contexts
		return nil
	}
}

// WithPool sets the per-context client pool.
func WithPool(pool *k8s.Pool) Option {
	return func(sc *ServerContext) error {
		sc.pool = pool
		return nil
	}
}

// WithGate sets the policy gate.
func WithGate(gate *policy.Gate) Option {
	return func(sc *ServerContext) error {
		sc.gate = gate
		return nil
	}
}

// WithDispatcher sets the operation dispatcher.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(sc *ServerContext) error {
		if d == nil {
			return ErrMissingDispatcher
		}
		sc.dispatcher = d
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) error {
		if logger != nil {
			sc.logger = logger
		}
		return nil
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) error {
		sc.metrics = m
		return nil
	}
}

// NewServerContext creates a ServerContext and applies the given options.
// A dispatcher and a context registry are required.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		name:    "k8s-pilot",
		version: "dev",
		logger:  slog.Default(),
		ctx:     serverCtx,
		cancel:  cancel,
	}

	for _, opt := range opts {
		if err := opt(sc); err != nil {
			cancel()
			return nil, err
		}
	}

	if sc.dispatcher == nil {
		cancel()
		return nil, ErrMissingDispatcher
	}
	if sc.contexts == nil {
		cancel()
		return nil, ErrMissingContexts
	}

	return sc, nil
}

// Name returns the advertised server name.
func (sc *ServerContext) Name() string { return sc.name }

// Version returns the advertised server version.
func (sc *ServerContext) Version() string { return sc.version }

// Contexts returns the context registry.
func (sc *ServerContext) Contexts() *kubecontext.Registry { return sc.contexts }

// Pool returns the per-context client pool.
func (sc *ServerContext) Pool() *k8s.Pool { return sc.pool }

// Gate returns the policy gate.
func (sc *ServerContext) Gate() *policy.Gate { return sc.gate }

// Dispatcher returns the operation dispatcher.
func (sc *ServerContext) Dispatcher() *dispatch.Dispatcher { return sc.dispatcher }

// Logger returns the structured logger.
func (sc *ServerContext) Logger() *slog.Logger { return sc.logger }

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics { return sc.metrics }

// Context returns the lifecycle context; it is cancelled by Shutdown.
func (sc *ServerContext) Context() context.Context {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ctx
}

// Shutdown cancels the lifecycle context. It is safe to call more than
// once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}
