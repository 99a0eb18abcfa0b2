package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/installments/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestStartServiceSpan(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartServiceSpan(context.Background(), "installment", "pay", attribute.String("installment_id", "abc"))
	EndSpan(span, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "installment.pay", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("installment_id", "abc"))
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
}

func TestEndSpan_Errors(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartServiceSpan(context.Background(), "installment", "pay")
	EndSpan(span, shared.NewDomainError("ALREADY_PAID", "Installment is already paid"))

	_, span = StartServiceSpan(context.Background(), "contract", "create")
	EndSpan(span, errors.New("connection reset"))

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("error.code", "ALREADY_PAID"))
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "connection reset", ended[1].Status().Description)
}
