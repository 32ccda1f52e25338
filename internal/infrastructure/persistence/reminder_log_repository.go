package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/infrastructure/persistence/models"
)

// GormReminderLogRepository implements ReminderLogRepository using GORM
type GormReminderLogRepository struct {
	db *gorm.DB
}

// NewGormReminderLogRepository creates a new GormReminderLogRepository
func NewGormReminderLogRepository(db *gorm.DB) *GormReminderLogRepository {
	return &GormReminderLogRepository{db: db}
}

// HasSentToday reports whether any attempt of emailType was logged for the invoice on day
func (r *GormReminderLogRepository) HasSentToday(ctx context.Context, invoiceID uuid.UUID, emailType receivable.EmailType, day time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ReminderLogModel{}).
		Where("invoice_id = ? AND email_type = ? AND sent_on = ?", invoiceID, emailType, receivable.CivilDate(day)).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// Save inserts a log entry. Losing the race against a concurrent sweep for
// the same (invoice, type, day) is not an error: the other attempt is on record.
func (r *GormReminderLogRepository) Save(ctx context.Context, log *receivable.ReminderLog) error {
	err := r.db.WithContext(ctx).Create(models.ReminderLogModelFromDomain(log)).Error
	if uniqueViolationOn(err, "idx_reminder_logs_once") {
		return nil
	}
	return translateError(err)
}

// Ensure GormReminderLogRepository implements ReminderLogRepository
var _ receivable.ReminderLogRepository = (*GormReminderLogRepository)(nil)
