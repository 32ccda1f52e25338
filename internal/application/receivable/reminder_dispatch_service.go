package receivable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/receivables/internal/domain/partner"
	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
)

// DispatchSummary counts what one reminder sweep did
type DispatchSummary struct {
	Considered int
	Sent       int
	Failed     int
	Skipped    int
}

// ReminderDispatchService sends the daily payment reminders
type ReminderDispatchService struct {
	invoices  receivable.InvoiceRepository
	customers partner.CustomerRepository
	logs      receivable.ReminderLogRepository
	sender    receivable.EmailSender
	renderer  receivable.ReminderRenderer
	metrics   *telemetry.LedgerMetrics
	logger    *zap.Logger
}

// NewReminderDispatchService creates a new ReminderDispatchService
func NewReminderDispatchService(
	invoices receivable.InvoiceRepository,
	customers partner.CustomerRepository,
	logs receivable.ReminderLogRepository,
	sender receivable.EmailSender,
	renderer receivable.ReminderRenderer,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *ReminderDispatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderDispatchService{
		invoices:  invoices,
		customers: customers,
		logs:      logs,
		sender:    sender,
		renderer:  renderer,
		metrics:   metrics,
		logger:    logger,
	}
}

// Dispatch selects and sends the reminders due today for every outstanding
// invoice. Each (invoice, email type) pair is sent at most once per day; a
// failed attempt also counts, so a broken mailbox is retried the next day
// rather than on every sweep. Delivery failures never abort the sweep.
func (s *ReminderDispatchService) Dispatch(ctx context.Context, today time.Time) (*DispatchSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reminder", "dispatch")
	defer span.End()

	day := receivable.CivilDate(today)
	invoices, err := s.invoices.FindAllOutstanding(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("find outstanding invoices: %w", err)
	}

	summary := &DispatchSummary{}
	customers := make(map[uuid.UUID]*partner.Customer)
	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Considered++

		customer, err := s.customerFor(ctx, customers, inv.CustomerID)
		if err != nil {
			s.logger.Warn("Skipping reminder, customer unavailable",
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err),
			)
			summary.Skipped++
			continue
		}

		days := inv.DaysOverdue(day)
		emailType, due := receivable.SelectReminder(days, customer.RiskLevel)
		if !due || customer.Email == "" {
			summary.Skipped++
			continue
		}

		sent, err := s.logs.HasSentToday(ctx, inv.ID, emailType, day)
		if err != nil {
			s.logger.Warn("Skipping reminder, guard check failed",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("email_type", string(emailType)),
				zap.Error(err),
			)
			summary.Skipped++
			continue
		}
		if sent {
			summary.Skipped++
			continue
		}

		content := receivable.ReminderContent{
			EmailType:     emailType,
			Recipient:     customer.Email,
			CustomerName:  customer.Name,
			InvoiceNumber: inv.InvoiceNumber,
			DueDate:       inv.DueDate,
			Balance:       inv.BalanceAmount,
			DaysOverdue:   days,
		}
		sendErr := s.deliver(ctx, content)

		entry := receivable.NewReminderLog(inv.ID, customer.ID, emailType, customer.Email, day, sendErr)
		if err := s.logs.Save(ctx, entry); err != nil {
			s.logger.Error("Failed to save reminder log",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("email_type", string(emailType)),
				zap.Error(err),
			)
		}
		s.metrics.RecordReminder(ctx, string(emailType), string(entry.Status))
		telemetry.AddEvent(span, "reminder.attempted",
			telemetry.SpanAttrInvoiceID, inv.ID.String(),
			telemetry.SpanAttrEmailType, string(emailType),
			telemetry.SpanAttrStatus, string(entry.Status),
		)

		if sendErr != nil {
			summary.Failed++
			s.logger.Warn("Reminder delivery failed",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.String("email_type", string(emailType)),
				zap.Error(sendErr),
			)
			continue
		}
		summary.Sent++
		s.logger.Info("Reminder sent",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.String("email_type", string(emailType)),
			zap.Int("days_overdue", days),
		)
	}

	s.logger.Info("Reminder sweep completed",
		zap.Time("day", day),
		zap.Int("considered", summary.Considered),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (s *ReminderDispatchService) deliver(ctx context.Context, content receivable.ReminderContent) error {
	email, err := s.renderer.Render(content)
	if err != nil {
		return fmt.Errorf("render reminder: %w", err)
	}
	return s.sender.Send(ctx, email)
}

func (s *ReminderDispatchService) customerFor(ctx context.Context, cache map[uuid.UUID]*partner.Customer, id uuid.UUID) (*partner.Customer, error) {
	if c, ok := cache[id]; ok {
		return c, nil
	}
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, receivable.ErrCustomerNotFound
		}
		return nil, err
	}
	cache[id] = c
	return c, nil
}
