package receivable

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// InvoiceItem is an optional line on an invoice
type InvoiceItem struct {
	ID          uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   valueobject.Money
	Amount      valueobject.Money
}

// NewInvoiceItem creates a line whose amount is quantity * unit price
func NewInvoiceItem(description string, quantity decimal.Decimal, unitPrice valueobject.Money) (InvoiceItem, error) {
	if strings.TrimSpace(description) == "" {
		return InvoiceItem{}, shared.NewValidationError("INVALID_ITEM", "Item description cannot be empty")
	}
	if !quantity.IsPositive() {
		return InvoiceItem{}, shared.NewValidationError("INVALID_ITEM", "Item quantity must be positive")
	}
	amount, err := unitPrice.Multiply(quantity)
	if err != nil {
		return InvoiceItem{}, err
	}
	return InvoiceItem{
		ID:          uuid.New(),
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      amount,
	}, nil
}

// Invoice is the ledger aggregate. It is the only object allowed to change
// total, paid and balance amounts, and it keeps them consistent:
//
//	BalanceAmount == TotalAmount - PaidAmount
//	PaidAmount <= TotalAmount
//	Status == PAID iff BalanceAmount is zero (unless CANCELLED)
type Invoice struct {
	shared.BaseAggregateRoot
	CustomerID    uuid.UUID
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	TotalAmount   valueobject.Money
	PaidAmount    valueobject.Money
	BalanceAmount valueobject.Money
	Status        InvoiceStatus
	CreatedBy     uuid.UUID
	Items         []InvoiceItem
	PaidAt        *time.Time
	CancelledAt   *time.Time
	CancelReason  string
}

// NewInvoice creates a PENDING invoice with nothing paid
func NewInvoice(
	customerID uuid.UUID,
	invoiceNumber string,
	issueDate, dueDate time.Time,
	total valueobject.Money,
	createdBy uuid.UUID,
	items []InvoiceItem,
) (*Invoice, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, shared.NewValidationError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewValidationError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if CivilDate(dueDate).Before(CivilDate(issueDate)) {
		return nil, shared.NewValidationError("INVALID_DUE_DATE", "Due date cannot be before issue date")
	}
	if !total.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Invoice total must be positive")
	}
	if err := validateItems(total, items); err != nil {
		return nil, err
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		InvoiceNumber:     invoiceNumber,
		IssueDate:         CivilDate(issueDate),
		DueDate:           CivilDate(dueDate),
		TotalAmount:       total,
		PaidAmount:        valueobject.Zero(total.Currency()),
		BalanceAmount:     total,
		Status:            InvoiceStatusPending,
		CreatedBy:         createdBy,
		Items:             items,
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

func validateItems(total valueobject.Money, items []InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	sum := valueobject.Zero(total.Currency())
	for _, item := range items {
		var err error
		if sum, err = sum.Add(item.Amount); err != nil {
			return err
		}
	}
	if !sum.Equals(total) {
		return shared.NewValidationError("ITEMS_TOTAL_MISMATCH",
			fmt.Sprintf("Line items sum to %s but invoice total is %s", sum, total))
	}
	return nil
}

// ApplyPayment adds amount to the paid total
func (i *Invoice) ApplyPayment(amount valueobject.Money) error {
	if !i.Status.CanApplyPayment() {
		return shared.NewBusinessRuleError(ErrCannotApplyPayment.Code,
			fmt.Sprintf("Cannot apply payment to invoice in %s status", i.Status))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	exceeds, err := amount.GreaterThan(i.BalanceAmount)
	if err != nil {
		return err
	}
	if exceeds {
		return shared.NewBusinessRuleError(ErrPaymentExceedsBalance.Code,
			fmt.Sprintf("Payment amount %s exceeds balance %s", amount, i.BalanceAmount))
	}

	paid, err := i.PaidAmount.Add(amount)
	if err != nil {
		return err
	}
	if err := i.setPaid(paid); err != nil {
		return err
	}
	i.AddDomainEvent(NewInvoicePaymentAppliedEvent(i, amount))
	return nil
}

// RecalculatePayment resets the paid total to an authoritative sum of the
// invoice's payments. Calling it twice with the same value is a no-op.
func (i *Invoice) RecalculatePayment(totalPaid valueobject.Money) error {
	if !i.Status.CanApplyPayment() {
		return shared.NewBusinessRuleError(ErrCannotApplyPayment.Code,
			fmt.Sprintf("Cannot recalculate payments of invoice in %s status", i.Status))
	}
	exceeds, err := totalPaid.GreaterThan(i.TotalAmount)
	if err != nil {
		return err
	}
	if exceeds {
		return shared.NewBusinessRuleError(ErrPaidExceedsTotal.Code,
			fmt.Sprintf("Paid amount %s exceeds total %s", totalPaid, i.TotalAmount))
	}
	if totalPaid.Equals(i.PaidAmount) {
		return nil
	}

	previous := i.PaidAmount
	if err := i.setPaid(totalPaid); err != nil {
		return err
	}
	i.AddDomainEvent(NewInvoicePaymentRecalculatedEvent(i, previous))
	return nil
}

// AmendTotal replaces the invoice total, keeping the paid amount.
// Callers must pass the credit exposure gate first when the total increases.
func (i *Invoice) AmendTotal(newTotal valueobject.Money) error {
	if !i.Status.CanApplyPayment() {
		return shared.NewBusinessRuleError(ErrCannotAmendInvoice.Code,
			fmt.Sprintf("Cannot amend invoice in %s status", i.Status))
	}
	if !newTotal.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Invoice total must be positive")
	}
	exceeds, err := i.PaidAmount.GreaterThan(newTotal)
	if err != nil {
		return err
	}
	if exceeds {
		return shared.NewBusinessRuleError(ErrPaidExceedsNewTotal.Code,
			fmt.Sprintf("Paid amount %s exceeds new total %s", i.PaidAmount, newTotal))
	}
	if newTotal.Equals(i.TotalAmount) {
		return nil
	}

	previous := i.TotalAmount
	i.TotalAmount = newTotal
	i.Items = nil
	if err := i.setPaid(i.PaidAmount); err != nil {
		return err
	}
	i.AddDomainEvent(NewInvoiceTotalAmendedEvent(i, previous))
	return nil
}

// setPaid assigns paid and derives balance and status from it
func (i *Invoice) setPaid(paid valueobject.Money) error {
	balance, err := i.TotalAmount.Subtract(paid)
	if err != nil {
		return err
	}
	i.PaidAmount = paid
	i.BalanceAmount = balance

	if balance.IsZero() {
		now := time.Now()
		i.Status = InvoiceStatusPaid
		i.PaidAt = &now
		i.AddDomainEvent(NewInvoicePaidEvent(i))
	}
	i.IncrementVersion()
	return nil
}

// MarkOverdue moves a PENDING invoice to OVERDUE once its due date lies
// strictly before currentDate. Returns whether the status changed.
func (i *Invoice) MarkOverdue(currentDate time.Time) bool {
	if i.Status != InvoiceStatusPending {
		return false
	}
	if !CivilDate(i.DueDate).Before(CivilDate(currentDate)) {
		return false
	}
	i.Status = InvoiceStatusOverdue
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoiceOverdueEvent(i, currentDate))
	return true
}

// Cancel administratively cancels an invoice that has not received any payment
func (i *Invoice) Cancel(reason string) error {
	if !i.Status.CanApplyPayment() {
		return shared.NewBusinessRuleError(ErrCannotCancelInvoice.Code,
			fmt.Sprintf("Cannot cancel invoice in %s status", i.Status))
	}
	if !i.PaidAmount.IsZero() {
		return shared.NewBusinessRuleError(ErrCannotCancelInvoice.Code,
			"Cannot cancel an invoice with payments, reverse them first")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("INVALID_REASON", "Cancel reason is required")
	}
	now := time.Now()
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &now
	i.CancelReason = reason
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoiceCancelledEvent(i))
	return nil
}

// DaysOverdue returns today - due date in whole calendar days.
// Negative means not yet due, zero means due today.
func (i *Invoice) DaysOverdue(today time.Time) int {
	return DaysBetween(i.DueDate, today)
}

// IsOutstanding returns true if the invoice counts towards credit exposure
func (i *Invoice) IsOutstanding() bool {
	return i.Status.IsOutstanding()
}

// Currency returns the invoice currency
func (i *Invoice) Currency() valueobject.Currency {
	return i.TotalAmount.Currency()
}
