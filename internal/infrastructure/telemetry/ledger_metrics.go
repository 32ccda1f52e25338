package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// LedgerMetrics counts ledger activity. A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	payments      *Counter
	reversals     *Counter
	creditChecks  *Counter
	overdueMarked *Counter
	reminders     *Counter
	txDuration    *Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var (
		lm  LedgerMetrics
		err error
	)
	if lm.payments, err = NewCounter(meter, "ar_payments_total", "Payments recorded against invoices", "{payments}"); err != nil {
		return nil, err
	}
	if lm.reversals, err = NewCounter(meter, "ar_payment_reversals_total", "Payment reversals recorded", "{reversals}"); err != nil {
		return nil, err
	}
	if lm.creditChecks, err = NewCounter(meter, "ar_credit_checks_total", "Credit exposure evaluations", "{checks}"); err != nil {
		return nil, err
	}
	if lm.overdueMarked, err = NewCounter(meter, "ar_invoices_marked_overdue_total", "Invoices moved to OVERDUE", "{invoices}"); err != nil {
		return nil, err
	}
	if lm.reminders, err = NewCounter(meter, "ar_reminders_total", "Reminder emails attempted", "{emails}"); err != nil {
		return nil, err
	}
	lm.txDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "ar_ledger_transaction_duration_seconds",
		Description: "Duration of ledger transactions including lock wait",
		Unit:        "s",
		Boundaries:  []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
	if err != nil {
		return nil, err
	}
	return &lm, nil
}

// RecordPayment counts a record-payment attempt.
func (lm *LedgerMetrics) RecordPayment(ctx context.Context, method, outcome string) {
	if lm == nil {
		return
	}
	lm.payments.Inc(ctx, AttrPaymentMethod.String(method), AttrOutcome.String(outcome))
}

// RecordReversal counts a reversal attempt.
func (lm *LedgerMetrics) RecordReversal(ctx context.Context, outcome string) {
	if lm == nil {
		return
	}
	lm.reversals.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordCreditCheck counts a credit evaluation; reason is the error code on rejection.
func (lm *LedgerMetrics) RecordCreditCheck(ctx context.Context, outcome, reason string) {
	if lm == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrOutcome.String(outcome)}
	if reason != "" {
		attrs = append(attrs, AttrReason.String(reason))
	}
	lm.creditChecks.Inc(ctx, attrs...)
}

// RecordOverdueMarked adds n invoices moved to OVERDUE.
func (lm *LedgerMetrics) RecordOverdueMarked(ctx context.Context, n int) {
	if lm == nil || n == 0 {
		return
	}
	lm.overdueMarked.Add(ctx, int64(n))
}

// RecordReminder counts a reminder attempt by type and SENT/FAILED status.
func (lm *LedgerMetrics) RecordReminder(ctx context.Context, emailType, status string) {
	if lm == nil {
		return
	}
	lm.reminders.Inc(ctx, AttrEmailType.String(emailType), AttrOutcome.String(status))
}

// ObserveTransaction records how long a ledger transaction took.
func (lm *LedgerMetrics) ObserveTransaction(ctx context.Context, operation string, d time.Duration) {
	if lm == nil {
		return
	}
	lm.txDuration.RecordDuration(ctx, d, attribute.String("operation", operation))
}
