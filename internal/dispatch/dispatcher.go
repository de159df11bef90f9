package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/k8s-pilot/k8s-pilot/internal/k8s"
	"github.com/k8s-pilot/k8s-pilot/internal/kubecontext"
	"github.com/k8s-pilot/k8s-pilot/internal/logging"
	"github.com/k8s-pilot/k8s-pilot/internal/policy"
)

// tracerName identifies the dispatcher's tracer.
const tracerName = "github.com/k8s-pilot/k8s-pilot/internal/dispatch"

// Outcome labels reported to metrics and logs.
const (
	OutcomeSuccess          = "success"
	OutcomeUnknownOperation = "unknown_operation"
	OutcomeUnknownContext   = "unknown_context"
	OutcomeDenied           = "denied"
	OutcomeClientError      = "client_error"
	OutcomeInvalidArgument  = "invalid_argument"
	OutcomeUpstreamError    = "upstream_error"
)

// Metrics receives dispatch outcomes. Implementations must be safe for
// concurrent use. A nil Metrics disables reporting.
type Metrics interface {
	ObserveDispatch(operation, class, outcome string, duration time.Duration)
	OnReadOnlyDenial(operation string)
	OnInFlightChange(delta int)
}

// clientPool is the slice of the k8s.Pool surface the dispatcher needs.
// Narrowed to an interface so tests can observe acquisition without building
// real clients.
type clientPool interface {
	Get(ctx context.Context, desc *kubecontext.Descriptor) (*k8s.ClientSet, error)
}

// Config carries the dispatcher's construction-time settings. The policy
// mode lives in the injected gate and is immutable for the process lifetime.
type Config struct {
	// Timeout bounds client acquisition plus one handler invocation. Zero
	// means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds client acquisition and a single handler invocation
// when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Dispatcher routes one operation call through the table, the context
// registry, the policy gate and the client pool, in that order. It is safe
// for concurrent use; concurrent calls share no mutable state beyond the
// client pool.
type Dispatcher struct {
	registry *Registry
	contexts *kubecontext.Registry
	pool     clientPool
	gate     *policy.Gate
	logger   *slog.Logger
	metrics  Metrics
	tracer   trace.Tracer
	timeout  time.Duration
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// New creates a Dispatcher over the given collaborators.
func New(registry *Registry, contexts *kubecontext.Registry, pool clientPool, gate *policy.Gate, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		contexts: contexts,
		pool:     pool,
		gate:     gate,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
		timeout:  cfg.Timeout,
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the operation table the dispatcher serves.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Contexts returns the context registry the dispatcher resolves against.
func (d *Dispatcher) Contexts() *kubecontext.Registry {
	return d.contexts
}

// Dispatch executes one operation. The steps run strictly in order; each
// failure short-circuits without touching later collaborators:
//
//  1. operation lookup        → *UnknownOperationError
//  2. context resolution      → *kubecontext.UnknownContextError
//  3. policy check            → *policy.ReadOnlyViolationError
//  4. client acquisition      → *k8s.ConstructionError
//  5. handler invocation      → *UpstreamError (wrapping the cause)
//  6. result normalization    → plain structured value
//
// Errors are returned as values; a failing operation never affects other
// in-flight operations. Write failures are never retried here.
func (d *Dispatcher) Dispatch(ctx context.Context, operation, contextName string, args Args) (any, error) {
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("context", contextName),
		))
	defer span.End()

	if d.metrics != nil {
		d.metrics.OnInFlightChange(1)
		defer d.metrics.OnInFlightChange(-1)
	}

	op, err := d.registry.Lookup(operation)
	if err != nil {
		return nil, d.finish(span, start, operation, "", OutcomeUnknownOperation, err)
	}
	span.SetAttributes(attribute.String("class", op.Class.String()))

	desc, err := d.contexts.Resolve(contextName)
	if err != nil {
		return nil, d.finish(span, start, operation, op.Class.String(), OutcomeUnknownContext, err)
	}

	if err := d.gate.Authorize(op.Name, op.Class); err != nil {
		if d.metrics != nil {
			d.metrics.OnReadOnlyDenial(op.Name)
		}
		return nil, d.finish(span, start, operation, op.Class.String(), OutcomeDenied, err)
	}

	opCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	clients, err := d.pool.Get(opCtx, desc)
	if err != nil {
		return nil, d.finish(span, start, operation, op.Class.String(), OutcomeClientError, err)
	}

	result, err := op.Handler(opCtx, &Invocation{
		Clients:  clients,
		Context:  desc,
		Contexts: d.contexts,
		Args:     args,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return nil, d.finish(span, start, operation, op.Class.String(), OutcomeInvalidArgument, err)
		}
		wrapped := wrapUpstream(op.Name, desc.Name, err)
		return nil, d.finish(span, start, operation, op.Class.String(), OutcomeUpstreamError, wrapped)
	}

	d.logger.Debug("operation dispatched",
		logging.Operation(operation),
		logging.Context(desc.Name),
		logging.Duration(time.Since(start)),
		logging.Status(logging.StatusSuccess),
	)
	if d.metrics != nil {
		d.metrics.ObserveDispatch(operation, op.Class.String(), OutcomeSuccess, time.Since(start))
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// finish records one failed dispatch on the logger, metrics and span, and
// returns the error unchanged.
func (d *Dispatcher) finish(span trace.Span, start time.Time, operation, class, outcome string, err error) error {
	d.logger.Debug("operation failed",
		logging.Operation(operation),
		logging.Status(outcome),
		logging.Error(err),
	)
	if d.metrics != nil {
		d.metrics.ObserveDispatch(operation, class, outcome, time.Since(start))
	}
	span.SetStatus(codes.Error, outcome)
	span.RecordError(err)
	return err
}
