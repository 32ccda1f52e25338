package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/erp/receivables/internal/infrastructure/telemetry"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	cfg := telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		SamplingRatio:     1.0,
		ServiceName:       "ar-ledger-test",
	}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, logger)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.False(t, tp.SpanProfilesEnabled())

	_, span := tp.Tracer("test").Start(ctx, "noop")
	span.End()

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.NoError(t, tp.Shutdown(cancelled))
}

func TestNewTracerProvider_SpanProfiles(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:4317",
		SamplingRatio:     1.0,
		ServiceName:       "ar-ledger-test",
		Insecure:          true,
		SpanProfiles:      true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, tp.SpanProfilesEnabled())

	_, span := tp.Tracer("test").Start(ctx, "invoice.evaluate")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_ = tp.Shutdown(cancelled)
}

func TestStartServiceSpan_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx, span := provider.Tracer(telemetry.TracerName).Start(context.Background(), "payment_ledger.record")
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, "inv-1", telemetry.SpanAttrAmount, 10)
	telemetry.RecordError(span, errors.New("boom"))
	span.End()

	assert.NotEmpty(t, telemetry.GetTraceID(ctx))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "payment_ledger.record", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Attributes(), 2)
}

func TestAddEvent(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	_, span := provider.Tracer(telemetry.TracerName).Start(context.Background(), "reminder.dispatch")
	telemetry.AddEvent(span, "reminder.attempted",
		telemetry.SpanAttrEmailType, "OVERDUE_1",
		telemetry.SpanAttrStatus, "SENT",
		42, "ignored non-string key",
	)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "reminder.attempted", events[0].Name)
	assert.Len(t, events[0].Attributes, 2)
	assert.NotPanics(t, func() { telemetry.AddEvent(nil, "noop") })
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
}

func TestLedgerMetrics(t *testing.T) {
	t.Run("nil meter", func(t *testing.T) {
		_, err := telemetry.NewLedgerMetrics(nil)
		assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	})

	t.Run("records on noop meter", func(t *testing.T) {
		lm, err := telemetry.NewLedgerMetrics(noop.NewMeterProvider().Meter("test"))
		require.NoError(t, err)
		ctx := context.Background()
		lm.RecordPayment(ctx, "CASH", telemetry.OutcomeSuccess)
		lm.RecordReversal(ctx, telemetry.OutcomeRejected)
		lm.RecordCreditCheck(ctx, telemetry.OutcomeRejected, "CREDIT_LIMIT_EXCEEDED")
		lm.RecordOverdueMarked(ctx, 3)
		lm.RecordReminder(ctx, "OVERDUE_1", "SENT")
		lm.ObserveTransaction(ctx, "record", 15*time.Millisecond)
	})

	t.Run("nil receiver is a no-op", func(t *testing.T) {
		var lm *telemetry.LedgerMetrics
		assert.NotPanics(t, func() {
			lm.RecordPayment(context.Background(), "CASH", telemetry.OutcomeSuccess)
			lm.ObserveTransaction(context.Background(), "record", time.Second)
		})
	})
}
