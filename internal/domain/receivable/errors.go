package receivable

import "github.com/erp/receivables/internal/domain/shared"

// Ledger errors. Callers match them with errors.Is; the codes are part of the API.
var (
	ErrCannotApplyPayment     = shared.NewBusinessRuleError("CANNOT_APPLY_PAYMENT", "Invoice status does not accept payments")
	ErrPaymentExceedsBalance  = shared.NewBusinessRuleError("PAYMENT_EXCEEDS_BALANCE", "Payment amount exceeds invoice balance")
	ErrPaidExceedsTotal       = shared.NewBusinessRuleError("PAID_EXCEEDS_TOTAL", "Paid amount exceeds invoice total")
	ErrPaidExceedsNewTotal    = shared.NewBusinessRuleError("PAID_EXCEEDS_NEW_TOTAL", "Paid amount exceeds the proposed invoice total")
	ErrCreditLimitExceeded    = shared.NewBusinessRuleError("CREDIT_LIMIT_EXCEEDED", "Customer credit limit exceeded")
	ErrInvoiceNotFound        = shared.NewBusinessRuleError("INVOICE_NOT_FOUND", "Invoice not found")
	ErrPaymentNotFound        = shared.NewBusinessRuleError("PAYMENT_NOT_FOUND", "Payment not found")
	ErrCustomerNotFound       = shared.NewBusinessRuleError("CUSTOMER_NOT_FOUND", "Customer not found")
	ErrPaymentAlreadyReversed = shared.NewBusinessRuleError("PAYMENT_ALREADY_REVERSED", "Payment has already been reversed")
	ErrCannotReverseReversal  = shared.NewBusinessRuleError("CANNOT_REVERSE_REVERSAL", "A reversal cannot itself be reversed")
	ErrCannotAmendInvoice     = shared.NewBusinessRuleError("CANNOT_AMEND_INVOICE", "Invoice status does not allow amendment")
	ErrCannotCancelInvoice    = shared.NewBusinessRuleError("CANNOT_CANCEL_INVOICE", "Invoice cannot be cancelled")
	ErrDuplicateInvoiceNumber = shared.NewBusinessRuleError("DUPLICATE_INVOICE_NUMBER", "Invoice number already exists")
)
