package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/cmdbridge/errclass"
)

// Metric instrument names.
const (
	MetricCalls     = "invoke.calls.total"
	MetricErrors    = "invoke.errors.total"
	MetricDuration  = "invoke.duration_ms"
	MetricCacheHits = "invoke.cache.hits"
)

// Metrics records invocation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordInvocation records one invocation with duration and error status.
	RecordInvocation(ctx context.Context, meta CommandMeta, duration time.Duration, err error)

	// RecordCacheHit counts an invocation served from the cache.
	RecordCacheHit(ctx context.Context, meta CommandMeta)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	cacheHits    metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the invocation instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		MetricCalls,
		metric.WithDescription("Total number of command invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricErrors,
		metric.WithDescription("Total number of failed command invocations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		MetricCacheHits,
		metric.WithDescription("Invocations served from the invocation cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricDuration,
		metric.WithDescription("Command invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		cacheHits:    cacheHits,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordInvocation(ctx context.Context, meta CommandMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.totalCount.Add(ctx, 1, opt)

	if err != nil {
		attrs := append(meta.attributes(), attribute.String("error.category", errclass.CategoryOf(err).String()))
		m.errorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordCacheHit(ctx context.Context, meta CommandMeta) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("command.name", meta.Name)))
}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics {
	return &noopMetrics{}
}

type noopMetrics struct{}

func (m *noopMetrics) RecordInvocation(ctx context.Context, meta CommandMeta, duration time.Duration, err error) {
}

func (m *noopMetrics) RecordCacheHit(ctx context.Context, meta CommandMeta) {}
