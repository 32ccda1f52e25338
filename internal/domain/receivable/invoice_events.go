package receivable

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// Aggregate type constants
const (
	AggregateTypeInvoice = "Invoice"
	AggregateTypePayment = "Payment"
)

// Event type constants
const (
	EventTypeInvoiceCreated             = "InvoiceCreated"
	EventTypeInvoicePaymentApplied      = "InvoicePaymentApplied"
	EventTypeInvoicePaymentRecalculated = "InvoicePaymentRecalculated"
	EventTypeInvoicePaid                = "InvoicePaid"
	EventTypeInvoiceOverdue             = "InvoiceOverdue"
	EventTypeInvoiceTotalAmended        = "InvoiceTotalAmended"
	EventTypeInvoiceCancelled           = "InvoiceCancelled"
	EventTypePaymentReversed            = "PaymentReversed"
)

// InvoiceCreatedEvent is published when a new invoice is issued
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID         `json:"invoice_id"`
	InvoiceNumber string            `json:"invoice_number"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	TotalAmount   valueobject.Money `json:"total_amount"`
	DueDate       time.Time         `json:"due_date"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		TotalAmount:     inv.TotalAmount,
		DueDate:         inv.DueDate,
	}
}

// InvoicePaymentAppliedEvent is published when a payment is applied to an invoice
type InvoicePaymentAppliedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID         `json:"invoice_id"`
	Amount        valueobject.Money `json:"amount"`
	PaidAmount    valueobject.Money `json:"paid_amount"`
	BalanceAmount valueobject.Money `json:"balance_amount"`
	Status        InvoiceStatus     `json:"status"`
}

// NewInvoicePaymentAppliedEvent creates a new InvoicePaymentAppliedEvent
func NewInvoicePaymentAppliedEvent(inv *Invoice, amount valueobject.Money) *InvoicePaymentAppliedEvent {
	return &InvoicePaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentApplied, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		Amount:          amount,
		PaidAmount:      inv.PaidAmount,
		BalanceAmount:   inv.BalanceAmount,
		Status:          inv.Status,
	}
}

// InvoicePaymentRecalculatedEvent is published when the paid amount is reset from the payment ledger
type InvoicePaymentRecalculatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID         `json:"invoice_id"`
	PreviousPaid  valueobject.Money `json:"previous_paid"`
	PaidAmount    valueobject.Money `json:"paid_amount"`
	BalanceAmount valueobject.Money `json:"balance_amount"`
	Status        InvoiceStatus     `json:"status"`
}

// NewInvoicePaymentRecalculatedEvent creates a new InvoicePaymentRecalculatedEvent
func NewInvoicePaymentRecalculatedEvent(inv *Invoice, previous valueobject.Money) *InvoicePaymentRecalculatedEvent {
	return &InvoicePaymentRecalculatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentRecalculated, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		PreviousPaid:    previous,
		PaidAmount:      inv.PaidAmount,
		BalanceAmount:   inv.BalanceAmount,
		Status:          inv.Status,
	}
}

// InvoicePaidEvent is published when the balance reaches zero
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID         `json:"invoice_id"`
	InvoiceNumber string            `json:"invoice_number"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	TotalAmount   valueobject.Money `json:"total_amount"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoiceOverdueEvent is published when an invoice passes its due date unpaid
type InvoiceOverdueEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID         `json:"invoice_id"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	DueDate       time.Time         `json:"due_date"`
	AsOf          time.Time         `json:"as_of"`
	BalanceAmount valueobject.Money `json:"balance_amount"`
}

// NewInvoiceOverdueEvent creates a new InvoiceOverdueEvent
func NewInvoiceOverdueEvent(inv *Invoice, asOf time.Time) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceOverdue, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		CustomerID:      inv.CustomerID,
		DueDate:         inv.DueDate,
		AsOf:            CivilDate(asOf),
		BalanceAmount:   inv.BalanceAmount,
	}
}

// InvoiceTotalAmendedEvent is published when an invoice total changes
type InvoiceTotalAmendedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID         `json:"invoice_id"`
	PreviousTotal valueobject.Money `json:"previous_total"`
	TotalAmount   valueobject.Money `json:"total_amount"`
	BalanceAmount valueobject.Money `json:"balance_amount"`
}

// NewInvoiceTotalAmendedEvent creates a new InvoiceTotalAmendedEvent
func NewInvoiceTotalAmendedEvent(inv *Invoice, previous valueobject.Money) *InvoiceTotalAmendedEvent {
	return &InvoiceTotalAmendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceTotalAmended, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		PreviousTotal:   previous,
		TotalAmount:     inv.TotalAmount,
		BalanceAmount:   inv.BalanceAmount,
	}
}

// InvoiceCancelledEvent is published when an invoice is cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	Reason    string    `json:"reason"`
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		Reason:          inv.CancelReason,
	}
}

// PaymentReversedEvent is published after a reversal row has been recorded
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	InvoiceID         uuid.UUID         `json:"invoice_id"`
	OriginalPaymentID uuid.UUID         `json:"original_payment_id"`
	ReversalID        uuid.UUID         `json:"reversal_id"`
	Amount            valueobject.Money `json:"amount"`
}

// NewPaymentReversedEvent creates a new PaymentReversedEvent
func NewPaymentReversedEvent(reversal *Payment) *PaymentReversedEvent {
	var original uuid.UUID
	if id := reversal.ReversesPaymentID(); id != nil {
		original = *id
	}
	return &PaymentReversedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePaymentReversed, AggregateTypePayment, reversal.ID()),
		InvoiceID:         reversal.InvoiceID(),
		OriginalPaymentID: original,
		ReversalID:        reversal.ID(),
		Amount:            reversal.Amount(),
	}
}
