package receivable

import (
	"context"

	"github.com/erp/receivables/internal/domain/partner"
	"github.com/erp/receivables/internal/domain/receivable"
)

// TransactionScope runs a unit of work atomically. Every repository handed to
// fn shares one database transaction: if fn returns an error nothing it wrote
// is committed, and row locks taken through the FindByIDForUpdate methods are
// held until the transaction ends.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the ledger repositories scoped to one transaction.
type TransactionalRepositories interface {
	Invoices() receivable.InvoiceRepository
	Payments() receivable.PaymentRepository
	Customers() partner.CustomerRepository
}
