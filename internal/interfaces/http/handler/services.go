package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appar "github.com/erp/receivables/internal/application/receivable"
	"github.com/erp/receivables/internal/domain/receivable"
)

// InvoiceCommands is the invoice lifecycle the API exposes
type InvoiceCommands interface {
	Create(ctx context.Context, req appar.CreateInvoiceRequest) (*receivable.Invoice, error)
	AmendTotal(ctx context.Context, invoiceID uuid.UUID, newTotal decimal.Decimal) (*receivable.Invoice, error)
	Cancel(ctx context.Context, invoiceID uuid.UUID, reason string) (*receivable.Invoice, error)
	Get(ctx context.Context, invoiceID uuid.UUID) (*receivable.Invoice, error)
}

// PaymentLedger records and reverses payments
type PaymentLedger interface {
	RecordPayment(ctx context.Context, req appar.RecordPaymentRequest) (*appar.LedgerResult, error)
	ReversePayment(ctx context.Context, req appar.ReversePaymentRequest) (*appar.LedgerResult, error)
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*receivable.Payment, error)
}

// CreditQueries reads a customer's credit position
type CreditQueries interface {
	Evaluate(ctx context.Context, req appar.CreditCheckRequest) (*receivable.CreditExposure, error)
	Aging(ctx context.Context, customerID uuid.UUID, today time.Time) (*receivable.AgingReport, error)
}

var (
	_ InvoiceCommands = (*appar.InvoiceService)(nil)
	_ PaymentLedger   = (*appar.PaymentLedgerService)(nil)
	_ CreditQueries   = (*appar.CreditExposureEngine)(nil)
)
