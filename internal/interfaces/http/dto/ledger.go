package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date encoded as "YYYY-MM-DD"
type Date struct {
	time.Time
}

// UnmarshalJSON parses a "YYYY-MM-DD" string. null leaves the date zero.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON formats the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// CreateInvoiceRequest is the body of POST /invoices
type CreateInvoiceRequest struct {
	CustomerID    string             `json:"customer_id" binding:"required,uuid"`
	InvoiceNumber string             `json:"invoice_number" binding:"omitempty,max=50"`
	IssueDate     Date               `json:"issue_date"`
	DueDate       Date               `json:"due_date"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Items         []InvoiceItemInput `json:"items" binding:"omitempty,dive"`
}

// InvoiceItemInput is one invoice line in a create request
type InvoiceItemInput struct {
	Description string          `json:"description" binding:"required,max=200"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// AmendTotalRequest is the body of PUT /invoices/:id/total
type AmendTotalRequest struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// CancelInvoiceRequest is the body of POST /invoices/:id/cancel
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RecordPaymentRequest is the body of POST /invoices/:id/payments
type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	Method      string          `json:"method" binding:"required,oneof=CASH BANK_TRANSFER"`
	PaymentDate Date            `json:"payment_date"`
	Reference   string          `json:"reference" binding:"max=100"`
}

// ReversePaymentRequest is the body of POST /payments/:id/reverse
type ReversePaymentRequest struct {
	Reason       string `json:"reason" binding:"required,max=500"`
	ReversalDate Date   `json:"reversal_date"`
}

// InvoiceItemResponse is one invoice line
type InvoiceItemResponse struct {
	ID          uuid.UUID         `json:"id"`
	Description string            `json:"description"`
	Quantity    decimal.Decimal   `json:"quantity"`
	UnitPrice   valueobject.Money `json:"unit_price"`
	Amount      valueobject.Money `json:"amount"`
}

// InvoiceResponse is the ledger view of an invoice
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	InvoiceNumber string                `json:"invoice_number"`
	IssueDate     Date                  `json:"issue_date"`
	DueDate       Date                  `json:"due_date"`
	TotalAmount   valueobject.Money     `json:"total_amount"`
	PaidAmount    valueobject.Money     `json:"paid_amount"`
	BalanceAmount valueobject.Money     `json:"balance_amount"`
	Status        string                `json:"status"`
	Items         []InvoiceItemResponse `json:"items,omitempty"`
	PaidAt        *time.Time            `json:"paid_at,omitempty"`
	CancelledAt   *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason  string                `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// NewInvoiceResponse converts an invoice aggregate
func NewInvoiceResponse(inv *receivable.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		CustomerID:    inv.CustomerID,
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     Date{inv.IssueDate},
		DueDate:       Date{inv.DueDate},
		TotalAmount:   inv.TotalAmount,
		PaidAmount:    inv.PaidAmount,
		BalanceAmount: inv.BalanceAmount,
		Status:        string(inv.Status),
		PaidAt:        inv.PaidAt,
		CancelledAt:   inv.CancelledAt,
		CancelReason:  inv.CancelReason,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, InvoiceItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	return resp
}

// PaymentResponse is one ledger entry
type PaymentResponse struct {
	ID                uuid.UUID         `json:"id"`
	InvoiceID         uuid.UUID         `json:"invoice_id"`
	PaymentDate       Date              `json:"payment_date"`
	Amount            valueobject.Money `json:"amount"`
	Method            string            `json:"method"`
	IsReversal        bool              `json:"is_reversal"`
	Reference         string            `json:"reference,omitempty"`
	ReversesPaymentID *uuid.UUID        `json:"reverses_payment_id,omitempty"`
	RecordedBy        uuid.UUID         `json:"recorded_by"`
	CreatedAt         time.Time         `json:"created_at"`
}

// NewPaymentResponse converts a payment entity
func NewPaymentResponse(p *receivable.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID(),
		InvoiceID:         p.InvoiceID(),
		PaymentDate:       Date{p.PaymentDate()},
		Amount:            p.Amount(),
		Method:            string(p.Method()),
		IsReversal:        p.IsReversal(),
		Reference:         p.Reference(),
		ReversesPaymentID: p.ReversesPaymentID(),
		RecordedBy:        p.RecordedBy(),
		CreatedAt:         p.CreatedAt(),
	}
}

// NewPaymentResponses converts a payment history
func NewPaymentResponses(payments []*receivable.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, NewPaymentResponse(p))
	}
	return out
}

// LedgerResultResponse is returned by payment and reversal endpoints
type LedgerResultResponse struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceResponse `json:"invoice"`
}

// CreditExposureResponse is the result of a credit check
type CreditExposureResponse struct {
	CustomerID uuid.UUID         `json:"customer_id"`
	Limit      valueobject.Money `json:"limit"`
	Exposure   valueobject.Money `json:"exposure"`
	Remaining  valueobject.Money `json:"remaining"`
}
