package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/persistence/models"
)

var outstandingStatuses = []receivable.InvoiceStatus{
	receivable.InvoiceStatusPending,
	receivable.InvoiceStatusOverdue,
}

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*receivable.Invoice, error) {
	return r.findOne(r.db.WithContext(ctx), "id = ?", id)
}

// FindByIDForUpdate finds an invoice and locks its row until the transaction ends
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*receivable.Invoice, error) {
	return r.findOne(forUpdate(r.db.WithContext(ctx)), "id = ?", id)
}

// FindByNumber finds an invoice by its invoice number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*receivable.Invoice, error) {
	return r.findOne(r.db.WithContext(ctx), "invoice_number = ?", number)
}

func (r *GormInvoiceRepository) findOne(db *gorm.DB, query string, args ...interface{}) (*receivable.Invoice, error) {
	var model models.InvoiceModel
	if err := db.Preload("Items").Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// ExistsByNumber checks if an invoice number is taken
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("invoice_number = ?", number).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// FindOutstandingByCustomer finds a customer's PENDING and OVERDUE invoices
func (r *GormInvoiceRepository) FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]*receivable.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status IN ?", customerID, outstandingStatuses).
		Order("due_date, id").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toInvoices(rows)
}

// FindAllOutstanding finds every PENDING and OVERDUE invoice
func (r *GormInvoiceRepository) FindAllOutstanding(ctx context.Context) ([]*receivable.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", outstandingStatuses).
		Order("due_date, id").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toInvoices(rows)
}

// MarkOverdueInvoices locks PENDING invoices due before asOf in id order,
// applies Invoice.MarkOverdue and writes the new status. Locking in a fixed
// order keeps concurrent sweeps from deadlocking each other.
func (r *GormInvoiceRepository) MarkOverdueInvoices(ctx context.Context, asOf time.Time) ([]*receivable.Invoice, error) {
	var rows []models.InvoiceModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("status = ? AND due_date < ?", receivable.InvoiceStatusPending, receivable.CivilDate(asOf)).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	marked := make([]*receivable.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		if !inv.MarkOverdue(asOf) {
			continue
		}
		if err := r.updateHeader(ctx, inv); err != nil {
			return nil, err
		}
		marked = append(marked, inv)
	}
	return marked, nil
}

// GenerateInvoiceNumber returns INV-YYYYMMDD-NNNN with the next sequence for the day
func (r *GormInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, issueDate time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%s-", issueDate.Format("20060102"))
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", translateError(err)
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// Save inserts a new invoice (version 1) or updates an existing one. Updates
// are guarded by the version column: a row already at or past the incoming
// version means another writer got there first.
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *receivable.Invoice) error {
	if inv.Version <= 1 {
		return r.create(ctx, inv)
	}
	if err := r.updateHeader(ctx, inv); err != nil {
		return err
	}
	return r.syncItems(ctx, inv)
}

func (r *GormInvoiceRepository) create(ctx context.Context, inv *receivable.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error
	if uniqueViolationOn(err, "idx_invoices_number") {
		return shared.NewBusinessRuleError(receivable.ErrDuplicateInvoiceNumber.Code,
			fmt.Sprintf("Invoice number %s already exists", inv.InvoiceNumber))
	}
	if err != nil {
		return translateError(err)
	}
	if len(model.Items) > 0 {
		if err := r.db.WithContext(ctx).Create(&model.Items).Error; err != nil {
			return translateError(err)
		}
	}
	return nil
}

func (r *GormInvoiceRepository) updateHeader(ctx context.Context, inv *receivable.Invoice) error {
	result := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("id = ? AND version < ?", inv.ID, inv.Version).
		Updates(map[string]interface{}{
			"total_amount":   inv.TotalAmount.Amount(),
			"paid_amount":    inv.PaidAmount.Amount(),
			"balance_amount": inv.BalanceAmount.Amount(),
			"status":         inv.Status,
			"paid_at":        inv.PaidAt,
			"cancelled_at":   inv.CancelledAt,
			"cancel_reason":  inv.CancelReason,
			"version":        inv.Version,
			"updated_at":     inv.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// syncItems deletes lines no longer on the invoice. Lines are never edited
// in place, so the remaining ones need no update.
func (r *GormInvoiceRepository) syncItems(ctx context.Context, inv *receivable.Invoice) error {
	del := r.db.WithContext(ctx).Where("invoice_id = ?", inv.ID)
	if len(inv.Items) > 0 {
		ids := make([]uuid.UUID, len(inv.Items))
		for i, item := range inv.Items {
			ids[i] = item.ID
		}
		del = del.Where("id NOT IN ?", ids)
	}
	if err := del.Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func toInvoices(rows []models.InvoiceModel) ([]*receivable.Invoice, error) {
	invoices := make([]*receivable.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ receivable.InvoiceRepository = (*GormInvoiceRepository)(nil)
