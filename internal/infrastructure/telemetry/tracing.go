package telemetry

import (
	"context"

	"github.com/installments/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names spans opened by application services
const TracerName = "installments-backend"

// StartServiceSpan opens an internal span named service.method.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "installment", "pay",
//		attribute.String("installment_id", id.String()))
//	defer func() { telemetry.EndSpan(span, err) }()
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err on span, if any, and ends it. Domain errors are
// caller mistakes and leave the span status unset.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if de, ok := shared.AsDomainError(err); ok {
			span.SetAttributes(attribute.String("error.code", de.Code))
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
