package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	appar "github.com/erp/receivables/internal/application/receivable"
	"github.com/erp/receivables/internal/domain/partner"
	"github.com/erp/receivables/internal/domain/receivable"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// On Postgres every transaction sets a local lock_timeout so a writer stuck
// behind a held invoice lock fails with LOCK_TIMEOUT instead of waiting forever.
type GormTransactionScope struct {
	db           *gorm.DB
	lockTimeout  time.Duration
	customerOpts []CustomerRepositoryOption
}

// NewGormTransactionScope creates a new GormTransactionScope. customerOpts
// apply to the customer repository handed to every transaction.
func NewGormTransactionScope(db *gorm.DB, lockTimeout time.Duration, customerOpts ...CustomerRepositoryOption) *GormTransactionScope {
	return &GormTransactionScope{db: db, lockTimeout: lockTimeout, customerOpts: customerOpts}
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back, otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appar.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			// SET does not take bind parameters
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&gormTransactionalRepositories{tx: tx, customerOpts: s.customerOpts})
	})
	return translateError(err)
}

// gormTransactionalRepositories provides the ledger repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx           *gorm.DB
	customerOpts []CustomerRepositoryOption
}

// Invoices returns the invoice repository scoped to the current transaction
func (r *gormTransactionalRepositories) Invoices() receivable.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction
func (r *gormTransactionalRepositories) Payments() receivable.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Customers returns the customer repository scoped to the current transaction
func (r *gormTransactionalRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx, r.customerOpts...)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appar.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appar.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
