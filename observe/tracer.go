package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/cmdbridge/errclass"
)

// CommandMeta describes one backend command for telemetry purposes.
type CommandMeta struct {
	Name      string // Command name (required)
	Class     string // Duration class: default, long, very_long
	Cacheable bool
}

// SpanName returns the deterministic span name: invoke.<command>.
func (m CommandMeta) SpanName() string {
	return "invoke." + m.Name
}

func (m CommandMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("command.name", m.Name),
	}
	if m.Class != "" {
		attrs = append(attrs, attribute.String("command.class", m.Class))
	}
	if m.Cacheable {
		attrs = append(attrs, attribute.Bool("command.cacheable", true))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with command span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a command invocation.
	StartSpan(ctx context.Context, meta CommandMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

type tracerImpl struct {
	tracer trace.Tracer
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta CommandMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("command.error", false))

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span. Failures carry their error category.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.Bool("command.error", true),
			attribute.String("error.category", errclass.CategoryOf(err).String()),
		)
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AnnotateSpan sets a string attribute on the span in ctx, if any.
func AnnotateSpan(ctx context.Context, key, value string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.String(key, value))
}

type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a tracer that records nothing.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CommandMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
