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

// InvoiceService issues, amends and cancels invoices behind the credit gate
type InvoiceService struct {
	scope     TransactionScope
	credit    *CreditExposureEngine
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
	logger    *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	scope TransactionScope,
	credit *CreditExposureEngine,
	publisher shared.EventPublisher,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		scope:     scope,
		credit:    credit,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// InvoiceItemInput is one requested invoice line
type InvoiceItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// CreateInvoiceRequest describes a new invoice. An empty InvoiceNumber is generated.
type CreateInvoiceRequest struct {
	CustomerID    uuid.UUID
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	TotalAmount   decimal.Decimal
	Items         []InvoiceItemInput
	CreatedBy     uuid.UUID
}

// Create issues an invoice in the customer's credit currency. The credit
// check runs inside the same transaction with the customer row locked.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*receivable.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrAmount, req.TotalAmount.String(),
	)

	var created *receivable.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		total := req.TotalAmount
		res, err := s.credit.evaluateIn(ctx, repos.Customers(), repos.Invoices(), CreditCheckRequest{
			CustomerID:     req.CustomerID,
			NewTotalAmount: &total,
		}, true)
		if err != nil {
			return err
		}
		currency := res.customer.CreditLimit.Currency()

		number := req.InvoiceNumber
		if number == "" {
			if number, err = repos.Invoices().GenerateInvoiceNumber(ctx, req.IssueDate); err != nil {
				return fmt.Errorf("generate invoice number: %w", err)
			}
		} else {
			exists, err := repos.Invoices().ExistsByNumber(ctx, number)
			if err != nil {
				return fmt.Errorf("check invoice number: %w", err)
			}
			if exists {
				return shared.NewBusinessRuleError(receivable.ErrDuplicateInvoiceNumber.Code,
					fmt.Sprintf("Invoice number %s already exists", number))
			}
		}

		items, err := buildItems(req.Items, currency)
		if err != nil {
			return err
		}
		totalMoney, err := valueobject.NewMoney(req.TotalAmount, currency)
		if err != nil {
			return err
		}
		inv, err := receivable.NewInvoice(res.customer.ID, number, req.IssueDate, req.DueDate, totalMoney, req.CreatedBy, items)
		if err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		created = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Invoice created",
		zap.String("invoice_id", created.ID.String()),
		zap.String("invoice_number", created.InvoiceNumber),
		zap.String("customer_id", created.CustomerID.String()),
		zap.String("total", created.TotalAmount.String()),
	)
	publishAfterCommit(ctx, s.publisher, s.logger, created)
	return created, nil
}

// AmendTotal changes an invoice's total. An increase must pass the credit
// check with the edited invoice's own contribution replaced by the new total.
func (s *InvoiceService) AmendTotal(ctx context.Context, invoiceID uuid.UUID, newTotal decimal.Decimal) (*receivable.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "amend_total")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
		telemetry.SpanAttrAmount, newTotal.String(),
	)

	var amended *receivable.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.Invoices().FindByID(ctx, invoiceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return receivable.ErrInvoiceNotFound
			}
			return fmt.Errorf("find invoice: %w", err)
		}

		var inv *receivable.Invoice
		if newTotal.GreaterThan(current.TotalAmount.Amount()) {
			res, err := s.credit.evaluateIn(ctx, repos.Customers(), repos.Invoices(), CreditCheckRequest{
				CustomerID:     current.CustomerID,
				InvoiceID:      &invoiceID,
				NewTotalAmount: &newTotal,
			}, true)
			if err != nil {
				return err
			}
			inv = res.invoice
		} else {
			if inv, err = lockInvoice(ctx, repos.Invoices(), invoiceID); err != nil {
				return err
			}
		}

		total, err := valueobject.NewMoney(newTotal, inv.Currency())
		if err != nil {
			return err
		}
		before := inv.GetVersion()
		if err := inv.AmendTotal(total); err != nil {
			return err
		}
		if inv.GetVersion() == before {
			amended = inv
			return nil
		}
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		amended = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Invoice total amended",
		zap.String("invoice_id", amended.ID.String()),
		zap.String("total", amended.TotalAmount.String()),
		zap.String("balance", amended.BalanceAmount.String()),
		zap.String("status", string(amended.Status)),
	)
	publishAfterCommit(ctx, s.publisher, s.logger, amended)
	return amended, nil
}

// Cancel cancels an invoice that has received no payments
func (s *InvoiceService) Cancel(ctx context.Context, invoiceID uuid.UUID, reason string) (*receivable.Invoice, error) {
	var cancelled *receivable.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := lockInvoice(ctx, repos.Invoices(), invoiceID)
		if err != nil {
			return err
		}
		if err := inv.Cancel(reason); err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}
		cancelled = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice cancelled",
		zap.String("invoice_id", cancelled.ID.String()),
		zap.String("reason", reason),
	)
	publishAfterCommit(ctx, s.publisher, s.logger, cancelled)
	return cancelled, nil
}

// Get returns an invoice by ID
func (s *InvoiceService) Get(ctx context.Context, invoiceID uuid.UUID) (*receivable.Invoice, error) {
	var inv *receivable.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.Invoices().FindByID(ctx, invoiceID)
		if errors.Is(err, shared.ErrNotFound) {
			return receivable.ErrInvoiceNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func buildItems(inputs []InvoiceItemInput, currency valueobject.Currency) ([]receivable.InvoiceItem, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	items := make([]receivable.InvoiceItem, 0, len(inputs))
	for i, in := range inputs {
		price, err := valueobject.NewMoney(in.UnitPrice, currency)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		item, err := receivable.NewInvoiceItem(in.Description, in.Quantity, price)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}
