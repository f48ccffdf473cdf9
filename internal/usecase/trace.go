package usecase

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fotmob-etl/internal/usecase"

// etlSpan is the usecase span handle. Without a traced parent it wraps the
// no-op span, so stages can always call it.
type etlSpan struct {
	trace.Span
}

// startETLSpan opens a child span for one ETL stage carrying attrs, from the
// parent's tracer provider. A context with no valid parent span is returned
// untouched.
func startETLSpan(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, etlSpan) {
	parent := trace.SpanFromContext(ctx)
	if strings.TrimSpace(stage) == "" || !parent.SpanContext().IsValid() {
		return ctx, etlSpan{Span: trace.SpanFromContext(context.Background())}
	}
	ctx, span := parent.TracerProvider().Tracer(tracerName).Start(ctx, "usecase.ETLService."+stage, trace.WithAttributes(attrs...))
	return ctx, etlSpan{Span: span}
}

// finish records err on the span, when there is one, and ends it.
func (s etlSpan) finish(err error) {
	if err != nil {
		s.RecordError(err)
		s.SetStatus(codes.Error, err.Error())
	}
	s.End()
}
