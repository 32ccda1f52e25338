package receivable

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate finds an invoice and holds an exclusive row lock on it
	// until the surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its invoice number
	FindByNumber(ctx context.Context, number string) (*Invoice, error)

	// ExistsByNumber checks if an invoice number is taken
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// FindOutstandingByCustomer finds a customer's PENDING and OVERDUE invoices
	FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Invoice, error)

	// FindAllOutstanding finds every PENDING and OVERDUE invoice
	FindAllOutstanding(ctx context.Context) ([]*Invoice, error)

	// MarkOverdueInvoices locks PENDING invoices due before asOf, applies
	// Invoice.MarkOverdue to each and saves them. Returns the invoices that changed.
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) ([]*Invoice, error)

	// GenerateInvoiceNumber returns the next free invoice number for issueDate
	GenerateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error
}

// PaymentRepository defines the interface for payment persistence.
// Payments are append-only: there is no update or delete.
type PaymentRepository interface {
	// Save inserts a payment
	Save(ctx context.Context, payment *Payment) error

	// FindByID finds a payment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByInvoice lists an invoice's payments ordered by payment date then creation time
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)

	// FindReversalOf finds the reversal of a payment, if any
	FindReversalOf(ctx context.Context, paymentID uuid.UUID) (*Payment, error)

	// SumByInvoiceID returns the authoritative paid total, with reversals subtracted
	SumByInvoiceID(ctx context.Context, invoiceID uuid.UUID, currency valueobject.Currency) (valueobject.Money, error)
}

// ReminderLogRepository records reminder attempts and answers the once-a-day guard
type ReminderLogRepository interface {
	// HasSentToday reports whether any attempt of emailType was logged for the invoice on day
	HasSentToday(ctx context.Context, invoiceID uuid.UUID, emailType EmailType, day time.Time) (bool, error)

	// Save inserts a log entry
	Save(ctx context.Context, log *ReminderLog) error
}

// EmailSender delivers rendered emails
type EmailSender interface {
	Send(ctx context.Context, email Email) error
}
