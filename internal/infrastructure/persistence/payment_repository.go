package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements PaymentRepository using GORM.
// The payments table is append-only.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save inserts a payment. A second reversal of the same payment trips the
// unique index on reverses_payment_id.
func (r *GormPaymentRepository) Save(ctx context.Context, payment *receivable.Payment) error {
	err := r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
	if uniqueViolationOn(err, "idx_payments_reverses") {
		return receivable.ErrPaymentAlreadyReversed
	}
	return translateError(err)
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*receivable.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindByInvoice lists an invoice's payments ordered by payment date then creation time
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*receivable.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("payment_date, created_at, id").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	payments := make([]*receivable.Payment, 0, len(rows))
	for i := range rows {
		p, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// FindReversalOf finds the reversal of a payment. Returns nil, nil when the
// payment has not been reversed.
func (r *GormPaymentRepository) FindReversalOf(ctx context.Context, paymentID uuid.UUID) (*receivable.Payment, error) {
	var model models.PaymentModel
	err := r.db.WithContext(ctx).Where("reverses_payment_id = ?", paymentID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// SumByInvoiceID returns the paid total with reversals subtracted.
// Rows are summed in Go through SumPaid so the sign convention lives in one place.
func (r *GormPaymentRepository) SumByInvoiceID(ctx context.Context, invoiceID uuid.UUID, currency valueobject.Currency) (valueobject.Money, error) {
	payments, err := r.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return valueobject.Money{}, err
	}
	return receivable.SumPaid(currency, payments)
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ receivable.PaymentRepository = (*GormPaymentRepository)(nil)
