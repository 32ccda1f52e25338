package receivable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
)

// PaymentLedgerService is the only writer of invoice balances. Each call is
// one transaction holding an exclusive lock on the invoice row, so concurrent
// payments and reversals against the same invoice are serialised.
type PaymentLedgerService struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
	logger    *zap.Logger
}

// NewPaymentLedgerService creates a new PaymentLedgerService
func NewPaymentLedgerService(
	scope TransactionScope,
	publisher shared.EventPublisher,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *PaymentLedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentLedgerService{
		scope:     scope,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// RecordPaymentRequest describes money received against one invoice
type RecordPaymentRequest struct {
	InvoiceID   uuid.UUID
	Amount      decimal.Decimal
	Currency    valueobject.Currency // optional, defaults to the invoice currency
	Method      receivable.PaymentMethod
	PaymentDate time.Time
	Reference   string
	RecordedBy  uuid.UUID
}

// ReversePaymentRequest identifies a payment to negate
type ReversePaymentRequest struct {
	PaymentID    uuid.UUID
	Reason       string
	ReversalDate time.Time
	RecordedBy   uuid.UUID
}

// LedgerResult is the committed state after a ledger transaction
type LedgerResult struct {
	Payment *receivable.Payment
	Invoice *receivable.Invoice
}

// RecordPayment locks the invoice, applies the payment and persists both
// the payment row and the updated invoice in one transaction.
func (s *PaymentLedgerService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*LedgerResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_ledger", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, req.InvoiceID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	start := time.Now()
	var result LedgerResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := lockInvoice(ctx, repos.Invoices(), req.InvoiceID)
		if err != nil {
			return err
		}
		if !inv.Status.CanApplyPayment() {
			return shared.NewBusinessRuleError(receivable.ErrCannotApplyPayment.Code,
				fmt.Sprintf("Invoice %s is %s and does not accept payments", inv.InvoiceNumber, inv.Status))
		}

		currency := req.Currency
		if currency == "" {
			currency = inv.Currency()
		}
		amount, err := valueobject.NewMoney(req.Amount, currency)
		if err != nil {
			return err
		}
		paymentDate := req.PaymentDate
		if paymentDate.IsZero() {
			paymentDate = time.Now()
		}
		payment, err := receivable.NewPayment(inv.ID, amount, req.Method, paymentDate, req.Reference, req.RecordedBy)
		if err != nil {
			return err
		}
		if err := inv.ApplyPayment(payment.Amount()); err != nil {
			return err
		}

		if err := repos.Payments().Save(ctx, payment); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		result = LedgerResult{Payment: payment, Invoice: inv}
		return nil
	})
	s.metrics.ObserveTransaction(ctx, "record_payment", time.Since(start))

	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordPayment(ctx, string(req.Method), outcomeOf(err))
		s.logger.Info("Payment rejected",
			zap.String("invoice_id", req.InvoiceID.String()),
			zap.String("amount", req.Amount.String()),
			zap.String("code", shared.CodeOf(err)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordPayment(ctx, string(req.Method), telemetry.OutcomeSuccess)
	telemetry.AddEvent(span, "payment.applied",
		telemetry.SpanAttrPaymentID, result.Payment.ID().String(),
		telemetry.SpanAttrStatus, result.Invoice.Status.String(),
	)
	s.logger.Info("Payment recorded",
		zap.String("invoice_id", result.Invoice.ID.String()),
		zap.String("payment_id", result.Payment.ID().String()),
		zap.String("amount", result.Payment.Amount().String()),
		zap.String("balance", result.Invoice.BalanceAmount.String()),
		zap.String("status", string(result.Invoice.Status)),
	)
	publishAfterCommit(ctx, s.publisher, s.logger, result.Invoice)
	return &result, nil
}

// ReversePayment appends a REVERSAL row for a payment and recomputes the
// invoice's paid amount from the full payment ledger. The original payment
// row is never modified.
func (s *PaymentLedgerService) ReversePayment(ctx context.Context, req ReversePaymentRequest) (*LedgerResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_ledger", "reverse")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, req.PaymentID.String())

	start := time.Now()
	var result LedgerResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		original, err := repos.Payments().FindByID(ctx, req.PaymentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return receivable.ErrPaymentNotFound
			}
			return fmt.Errorf("find payment: %w", err)
		}

		inv, err := lockInvoice(ctx, repos.Invoices(), original.InvoiceID())
		if err != nil {
			return err
		}
		if !inv.Status.CanApplyPayment() {
			return shared.NewBusinessRuleError(receivable.ErrCannotApplyPayment.Code,
				fmt.Sprintf("Invoice %s is %s and does not accept reversals", inv.InvoiceNumber, inv.Status))
		}

		if !original.IsReversal() {
			existing, err := repos.Payments().FindReversalOf(ctx, original.ID())
			if err != nil {
				return fmt.Errorf("find reversal: %w", err)
			}
			if existing != nil {
				return receivable.ErrPaymentAlreadyReversed
			}
		}
		reversal, err := receivable.NewReversal(original, req.ReversalDate, req.Reason, req.RecordedBy)
		if err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, reversal); err != nil {
			return fmt.Errorf("save reversal: %w", err)
		}

		totalPaid, err := repos.Payments().SumByInvoiceID(ctx, inv.ID, inv.Currency())
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		if err := inv.RecalculatePayment(totalPaid); err != nil {
			return err
		}
		inv.AddDomainEvent(receivable.NewPaymentReversedEvent(reversal))
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		result = LedgerResult{Payment: reversal, Invoice: inv}
		return nil
	})
	s.metrics.ObserveTransaction(ctx, "reverse_payment", time.Since(start))

	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordReversal(ctx, outcomeOf(err))
		s.logger.Info("Payment reversal rejected",
			zap.String("payment_id", req.PaymentID.String()),
			zap.String("code", shared.CodeOf(err)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordReversal(ctx, telemetry.OutcomeSuccess)
	telemetry.AddEvent(span, "payment.reversed",
		telemetry.SpanAttrPaymentID, result.Payment.ID().String(),
		telemetry.SpanAttrStatus, result.Invoice.Status.String(),
	)
	s.logger.Info("Payment reversed",
		zap.String("payment_id", req.PaymentID.String()),
		zap.String("reversal_id", result.Payment.ID().String()),
		zap.String("invoice_id", result.Invoice.ID.String()),
		zap.String("paid", result.Invoice.PaidAmount.String()),
		zap.String("balance", result.Invoice.BalanceAmount.String()),
	)
	publishAfterCommit(ctx, s.publisher, s.logger, result.Invoice)
	return &result, nil
}

// ListPayments returns an invoice's payments in ledger order
func (s *PaymentLedgerService) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*receivable.Payment, error) {
	var payments []*receivable.Payment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Invoices().FindByID(ctx, invoiceID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return receivable.ErrInvoiceNotFound
			}
			return err
		}
		var err error
		payments, err = repos.Payments().FindByInvoice(ctx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	receivable.SortPayments(payments)
	return payments, nil
}

func lockInvoice(ctx context.Context, invoices receivable.InvoiceRepository, id uuid.UUID) (*receivable.Invoice, error) {
	inv, err := invoices.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, receivable.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("lock invoice: %w", err)
	}
	return inv, nil
}

func outcomeOf(err error) string {
	switch shared.KindOf(err) {
	case shared.KindValidation, shared.KindBusinessRule:
		return telemetry.OutcomeRejected
	default:
		return telemetry.OutcomeFailed
	}
}
