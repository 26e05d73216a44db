package observe

import (
	"context"
	"encoding/json"
	"time"
)

// ExecuteFunc is the signature of a command invocation.
type ExecuteFunc func(ctx context.Context, meta CommandMeta, args map[string]any) (json.RawMessage, error)

// Middleware wraps command invocation with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: the wrapped function runs inside the invocation span.
//   - Errors: errors from the wrapped function are recorded and propagated
//     unchanged. They are not logged here; the caller logs each failure once
//     after classifying it.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NopMiddleware returns a middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// Wrap wraps an ExecuteFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta CommandMeta, args map[string]any) (json.RawMessage, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta, args)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordInvocation(ctx, meta, duration, err)

		if err == nil {
			m.logger.WithCommand(meta).Debug(ctx, "command completed",
				Field{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
			)
		}

		return result, err
	}
}

// RecordCacheHit counts a cache hit for meta.
func (m *Middleware) RecordCacheHit(ctx context.Context, meta CommandMeta) {
	m.metrics.RecordCacheHit(ctx, meta)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
