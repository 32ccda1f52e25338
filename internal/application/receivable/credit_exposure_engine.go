package receivable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/receivables/internal/domain/partner"
	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
)

// CreditCheckRequest asks whether a customer can take on more debt.
// InvoiceID set means an existing invoice is being edited; NewTotalAmount is
// the proposed total for that invoice, or the total of a new invoice.
type CreditCheckRequest struct {
	CustomerID     uuid.UUID
	InvoiceID      *uuid.UUID
	NewTotalAmount *decimal.Decimal
}

// CreditExposureEngine computes a customer's exposure against their credit limit
type CreditExposureEngine struct {
	customers partner.CustomerRepository
	invoices  receivable.InvoiceRepository
	metrics   *telemetry.LedgerMetrics
	logger    *zap.Logger
}

// NewCreditExposureEngine creates a new CreditExposureEngine
func NewCreditExposureEngine(
	customers partner.CustomerRepository,
	invoices receivable.InvoiceRepository,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *CreditExposureEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditExposureEngine{
		customers: customers,
		invoices:  invoices,
		metrics:   metrics,
		logger:    logger,
	}
}

// Evaluate runs the credit check as a read-only query. Write paths re-run it
// inside their own transaction through evaluateIn.
func (e *CreditExposureEngine) Evaluate(ctx context.Context, req CreditCheckRequest) (*receivable.CreditExposure, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "credit_exposure", "evaluate")
	defer span.End()

	res, err := e.evaluateIn(ctx, e.customers, e.invoices, req, false)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &res.exposure, nil
}

// Aging buckets a customer's outstanding balance by days past due
func (e *CreditExposureEngine) Aging(ctx context.Context, customerID uuid.UUID, today time.Time) (*receivable.AgingReport, error) {
	customer, err := findCustomer(ctx, e.customers, customerID, false)
	if err != nil {
		return nil, err
	}
	invoices, err := e.invoices.FindOutstandingByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("find outstanding invoices: %w", err)
	}
	return receivable.BuildAgingReport(customerID, customer.CreditLimit.Currency(), invoices, today)
}

type creditResult struct {
	exposure receivable.CreditExposure
	customer *partner.Customer
	invoice  *receivable.Invoice
}

// evaluateIn runs the five-step credit check against the given repositories.
// With lock set, the customer row and then the edited invoice row are locked
// FOR UPDATE, so concurrent creates and amendments for one customer serialise
// on the customer row and the result cannot go stale before commit.
func (e *CreditExposureEngine) evaluateIn(
	ctx context.Context,
	customers partner.CustomerRepository,
	invoices receivable.InvoiceRepository,
	req CreditCheckRequest,
	lock bool,
) (*creditResult, error) {
	res, err := evaluateCredit(ctx, customers, invoices, req, lock)
	if err != nil {
		e.metrics.RecordCreditCheck(ctx, outcomeOf(err), shared.CodeOf(err))
		if errors.Is(err, receivable.ErrCreditLimitExceeded) {
			e.logger.Info("Credit limit exceeded",
				zap.String("customer_id", req.CustomerID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}
	e.metrics.RecordCreditCheck(ctx, telemetry.OutcomeSuccess, "")
	return res, nil
}

func evaluateCredit(
	ctx context.Context,
	customers partner.CustomerRepository,
	invoices receivable.InvoiceRepository,
	req CreditCheckRequest,
	lock bool,
) (*creditResult, error) {
	customer, err := findCustomer(ctx, customers, req.CustomerID, lock)
	if err != nil {
		return nil, err
	}

	var editing *receivable.Invoice
	if req.InvoiceID != nil {
		if lock {
			editing, err = invoices.FindByIDForUpdate(ctx, *req.InvoiceID)
		} else {
			editing, err = invoices.FindByID(ctx, *req.InvoiceID)
		}
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, receivable.ErrInvoiceNotFound
			}
			return nil, fmt.Errorf("find invoice: %w", err)
		}
		if editing.CustomerID != customer.ID {
			return nil, shared.NewValidationError("INVOICE_CUSTOMER_MISMATCH",
				fmt.Sprintf("Invoice %s does not belong to customer %s", editing.InvoiceNumber, customer.Code))
		}
	}

	outstanding, err := invoices.FindOutstandingByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("find outstanding invoices: %w", err)
	}

	var proposed *valueobject.Money
	if req.NewTotalAmount != nil {
		m, err := valueobject.NewMoney(*req.NewTotalAmount, customer.CreditLimit.Currency())
		if err != nil {
			return nil, err
		}
		proposed = &m
	}

	exposure, err := receivable.ComputeExposure(customer.CreditLimit, outstanding, editing, proposed)
	if err != nil {
		return nil, err
	}
	return &creditResult{exposure: exposure, customer: customer, invoice: editing}, nil
}

func findCustomer(ctx context.Context, customers partner.CustomerRepository, id uuid.UUID, lock bool) (*partner.Customer, error) {
	var (
		customer *partner.Customer
		err      error
	)
	if lock {
		customer, err = customers.FindByIDForUpdate(ctx, id)
	} else {
		customer, err = customers.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, receivable.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return customer, nil
}
