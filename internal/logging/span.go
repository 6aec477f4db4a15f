package logging

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vidtube/backend"

// Span represents a logical unit of work tied to a request trace.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	inner  trace.Span
}

// StartSpan opens an OpenTelemetry span as a child of ctx and enriches the
// request logger with its identifiers.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, inner := otel.Tracer(tracerName).Start(ctx, name)

	logger := FromContext(ctx).With(slog.String("span_name", name))
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		logger = logger.With(
			slog.String("trace_id", traceID),
			slog.String("span_id", SpanIDFromContext(ctx)),
		)
	}
	ctx = WithLogger(ctx, logger)

	return ctx, &Span{
		name:   name,
		logger: logger,
		start:  time.Now(),
		inner:  inner,
	}
}

// RecordError marks the span as failed.
func (s *Span) RecordError(err error) {
	if s == nil || err == nil {
		return
	}
	s.inner.RecordError(err)
	s.inner.SetStatus(codes.Error, err.Error())
}

// End finalizes the span and emits a completion log entry.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.inner.End()
	s.logger.Debug("span completed", slog.Duration("duration", time.Since(s.start)))
}
