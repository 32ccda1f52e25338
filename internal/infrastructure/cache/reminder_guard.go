package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
)

// reminderClaimTTL outlives the calendar day a claim belongs to
const reminderClaimTTL = 36 * time.Hour

// ReminderGuard decorates a ReminderLogRepository with a claim store.
//
// HasSentToday first consults the durable log. When the log has no attempt
// for the day it claims the (invoice, type, day) slot, and reports the slot
// as taken if another instance claimed it first. A won claim is consumed by
// the Save that follows the delivery attempt, so the once-per-day rule holds
// across instances without a lock spanning the email send.
type ReminderGuard struct {
	logs   receivable.ReminderLogRepository
	claims shared.ClaimStore
	logger *zap.Logger
}

// NewReminderGuard creates a new ReminderGuard
func NewReminderGuard(logs receivable.ReminderLogRepository, claims shared.ClaimStore, logger *zap.Logger) *ReminderGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderGuard{logs: logs, claims: claims, logger: logger}
}

// HasSentToday reports whether the slot is already used, claiming it otherwise
func (g *ReminderGuard) HasSentToday(ctx context.Context, invoiceID uuid.UUID, emailType receivable.EmailType, day time.Time) (bool, error) {
	sent, err := g.logs.HasSentToday(ctx, invoiceID, emailType, day)
	if err != nil || sent {
		return sent, err
	}

	won, err := g.claims.Claim(ctx, reminderKey(invoiceID, emailType, day), reminderClaimTTL)
	if err != nil {
		// The unique index on reminder_logs still rejects a second row
		g.logger.Warn("Reminder claim unavailable, relying on the reminder log",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("email_type", string(emailType)),
			zap.Error(err),
		)
		return false, nil
	}
	if !won {
		g.logger.Debug("Reminder slot claimed by another instance",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("email_type", string(emailType)),
		)
	}
	return !won, nil
}

// Save records the attempt in the durable log
func (g *ReminderGuard) Save(ctx context.Context, log *receivable.ReminderLog) error {
	return g.logs.Save(ctx, log)
}

func reminderKey(invoiceID uuid.UUID, emailType receivable.EmailType, day time.Time) string {
	return fmt.Sprintf("reminder:%s:%s:%s", invoiceID, emailType, receivable.CivilDate(day).Format("2006-01-02"))
}

// Ensure ReminderGuard implements ReminderLogRepository
var _ receivable.ReminderLogRepository = (*ReminderGuard)(nil)
