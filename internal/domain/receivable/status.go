package receivable

// InvoiceStatus represents the payment lifecycle of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"   // Outstanding, not yet due
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"   // Outstanding, past due date
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // Balance is zero
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // Administratively cancelled
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusOverdue, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no payment or reversal event may change the invoice
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanApplyPayment returns true if payments can be applied in this status
func (s InvoiceStatus) CanApplyPayment() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusOverdue
}

// IsOutstanding returns true if the invoice counts towards credit exposure
func (s InvoiceStatus) IsOutstanding() bool {
	return s.CanApplyPayment()
}

// OutstandingStatuses lists the statuses counted as customer debt
func OutstandingStatuses() []InvoiceStatus {
	return []InvoiceStatus{InvoiceStatusPending, InvoiceStatusOverdue}
}
