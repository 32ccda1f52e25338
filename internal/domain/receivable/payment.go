package receivable

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// PaymentMethod is how money moved against an invoice
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodReversal     PaymentMethod = "REVERSAL"
)

// PaymentKind is the ledger variant of a payment
type PaymentKind int

const (
	PaymentKindNormal PaymentKind = iota
	PaymentKindReversal
)

// Sign is +1 for normal payments and -1 for reversals
func (k PaymentKind) Sign() int64 {
	if k == PaymentKindReversal {
		return -1
	}
	return 1
}

// IsValid checks if the method is a known value
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodReversal:
		return true
	}
	return false
}

// Kind maps a method to its ledger variant
func (m PaymentMethod) Kind() PaymentKind {
	if m == PaymentMethodReversal {
		return PaymentKindReversal
	}
	return PaymentKindNormal
}

// Payment is an immutable record of money moved against one invoice.
// A reversal is a separate Payment that points at the payment it negates.
type Payment struct {
	id                uuid.UUID
	invoiceID         uuid.UUID
	paymentDate       time.Time
	amount            valueobject.Money
	method            PaymentMethod
	reference         string
	recordedBy        uuid.UUID
	createdAt         time.Time
	reversesPaymentID *uuid.UUID
}

// NewPayment creates a CASH or BANK_TRANSFER payment
func NewPayment(
	invoiceID uuid.UUID,
	amount valueobject.Money,
	method PaymentMethod,
	paymentDate time.Time,
	reference string,
	recordedBy uuid.UUID,
) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if !method.IsValid() || method.Kind() != PaymentKindNormal {
		return nil, shared.NewValidationError("INVALID_PAYMENT_METHOD",
			fmt.Sprintf("Payment method must be CASH or BANK_TRANSFER, got %q", method))
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if paymentDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_PAYMENT_DATE", "Payment date is required")
	}
	if len(reference) > 100 {
		return nil, shared.NewValidationError("INVALID_REFERENCE", "Reference cannot exceed 100 characters")
	}
	return &Payment{
		id:          uuid.New(),
		invoiceID:   invoiceID,
		paymentDate: paymentDate,
		amount:      amount,
		method:      method,
		reference:   strings.TrimSpace(reference),
		recordedBy:  recordedBy,
		createdAt:   time.Now(),
	}, nil
}

// NewReversal creates a REVERSAL of original for the same invoice and amount.
// The original payment is left untouched.
func NewReversal(original *Payment, reversalDate time.Time, reason string, recordedBy uuid.UUID) (*Payment, error) {
	if original == nil {
		return nil, ErrPaymentNotFound
	}
	if original.IsReversal() {
		return nil, ErrCannotReverseReversal
	}
	if reversalDate.IsZero() {
		reversalDate = time.Now()
	}
	originalID := original.id
	return &Payment{
		id:                uuid.New(),
		invoiceID:         original.invoiceID,
		paymentDate:       reversalDate,
		amount:            original.amount,
		method:            PaymentMethodReversal,
		reference:         strings.TrimSpace(reason),
		recordedBy:        recordedBy,
		createdAt:         time.Now(),
		reversesPaymentID: &originalID,
	}, nil
}

// ReconstitutePayment rebuilds a Payment from storage without validation
func ReconstitutePayment(
	id, invoiceID uuid.UUID,
	paymentDate time.Time,
	amount valueobject.Money,
	method PaymentMethod,
	reference string,
	recordedBy uuid.UUID,
	createdAt time.Time,
	reversesPaymentID *uuid.UUID,
) *Payment {
	return &Payment{
		id:                id,
		invoiceID:         invoiceID,
		paymentDate:       paymentDate,
		amount:            amount,
		method:            method,
		reference:         reference,
		recordedBy:        recordedBy,
		createdAt:         createdAt,
		reversesPaymentID: reversesPaymentID,
	}
}

func (p *Payment) ID() uuid.UUID                 { return p.id }
func (p *Payment) InvoiceID() uuid.UUID          { return p.invoiceID }
func (p *Payment) PaymentDate() time.Time        { return p.paymentDate }
func (p *Payment) Amount() valueobject.Money     { return p.amount }
func (p *Payment) Method() PaymentMethod         { return p.method }
func (p *Payment) Reference() string             { return p.reference }
func (p *Payment) RecordedBy() uuid.UUID         { return p.recordedBy }
func (p *Payment) CreatedAt() time.Time          { return p.createdAt }
func (p *Payment) Kind() PaymentKind             { return p.method.Kind() }
func (p *Payment) IsReversal() bool              { return p.Kind() == PaymentKindReversal }
func (p *Payment) ReversesPaymentID() *uuid.UUID { return p.reversesPaymentID }

// SumPaid folds payments into the authoritative paid total for an invoice.
// Normal payments add, reversals subtract. Only the first reversal of a
// given payment is counted, and the result never drops below zero.
func SumPaid(currency valueobject.Currency, payments []*Payment) (valueobject.Money, error) {
	total := decimal.Zero
	reversed := make(map[uuid.UUID]struct{})
	for _, p := range payments {
		if p.amount.Currency() != currency {
			return valueobject.Money{}, shared.NewBusinessRuleError(valueobject.ErrCurrencyMismatch.Code,
				fmt.Sprintf("Payment %s is in %s, expected %s", p.id, p.amount.Currency(), currency))
		}
		if p.IsReversal() && p.reversesPaymentID != nil {
			if _, seen := reversed[*p.reversesPaymentID]; seen {
				continue
			}
			reversed[*p.reversesPaymentID] = struct{}{}
		}
		total = total.Add(p.amount.Amount().Mul(decimal.NewFromInt(p.Kind().Sign())))
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	return valueobject.NewMoney(total, currency)
}

// SortPayments orders payments by payment date, then creation time
func SortPayments(payments []*Payment) {
	sort.SliceStable(payments, func(a, b int) bool {
		pa, pb := payments[a], payments[b]
		if !pa.paymentDate.Equal(pb.paymentDate) {
			return pa.paymentDate.Before(pb.paymentDate)
		}
		return pa.createdAt.Before(pb.createdAt)
	})
}
