// Package observability carries the metrics and tracing hooks the importer
// reports through, with no-op defaults for callers that configure neither.
package observability

import (
	"context"
	"time"
)

// MetricsRecorder captures operation level metrics.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around importer operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, Span)
}

// Span represents an in-flight operation.
type Span interface {
	End(err error)
}

// NopMetrics returns a recorder that drops every observation.
func NopMetrics() MetricsRecorder { return noopMetrics{} }

// NopTracer returns a tracer whose spans do nothing.
func NopTracer() Tracer { return noopTracer{} }

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// Track starts a span for operation and returns a finish func that ends the
// span and records the outcome in metrics.
func Track(ctx context.Context, metrics MetricsRecorder, tracer Tracer, operation string) (context.Context, func(error)) {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if tracer == nil {
		tracer = noopTracer{}
	}
	started := time.Now()
	ctx, span := tracer.Start(ctx, operation)
	return ctx, func(err error) {
		span.End(err)
		metrics.Observe(ctx, operation, err == nil, time.Since(started))
	}
}
