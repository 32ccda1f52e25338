package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/receivables/internal/domain/partner"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/infrastructure/persistence/models"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db              *gorm.DB
	defaultCurrency valueobject.Currency
}

// CustomerRepositoryOption configures a GormCustomerRepository
type CustomerRepositoryOption func(*GormCustomerRepository)

// WithDefaultCurrency sets the currency given to customer rows stored without one
func WithDefaultCurrency(currency valueobject.Currency) CustomerRepositoryOption {
	return func(r *GormCustomerRepository) {
		r.defaultCurrency = currency
	}
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB, opts ...CustomerRepositoryOption) *GormCustomerRepository {
	r := &GormCustomerRepository{db: db, defaultCurrency: valueobject.DefaultCurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.findByID(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a customer and locks its row. Credit checks take
// this lock so two invoices for one customer cannot both claim the same headroom.
func (r *GormCustomerRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.findByID(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormCustomerRepository) findByID(db *gorm.DB, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	if model.Currency == "" {
		model.Currency = r.defaultCurrency
	}
	return model.ToDomain()
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
