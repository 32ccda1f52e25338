package receivable

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/erp/receivables/internal/domain/partner"
	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// =============================================================================
// In-memory transaction scope
//
// Rows are locked with one mutex per ID, held until Execute returns, and
// writes are staged until fn succeeds. That gives the services the same
// isolation they get from SELECT ... FOR UPDATE in Postgres.
// =============================================================================

type memStore struct {
	mu        sync.Mutex
	invoices  map[uuid.UUID]*receivable.Invoice
	payments  map[uuid.UUID]*receivable.Payment
	customers map[uuid.UUID]*partner.Customer
	rowLocks  map[uuid.UUID]*sync.Mutex

	failInvoiceSave error
}

func newMemStore() *memStore {
	return &memStore{
		invoices:  make(map[uuid.UUID]*receivable.Invoice),
		payments:  make(map[uuid.UUID]*receivable.Payment),
		customers: make(map[uuid.UUID]*partner.Customer),
		rowLocks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *memStore) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	tx := s.begin()
	defer tx.release()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// autocommit returns a transaction whose writes are applied immediately.
// It takes no row locks and is used where services get plain repositories.
func (s *memStore) autocommit() *memTx {
	tx := s.begin()
	tx.immediate = true
	return tx
}

func (s *memStore) begin() *memTx {
	return &memTx{
		store:    s,
		held:     make(map[uuid.UUID]*sync.Mutex),
		invoices: make(map[uuid.UUID]*receivable.Invoice),
	}
}

func (s *memStore) rowLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	return l
}

func (s *memStore) putCustomer(c *partner.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = cloneCustomer(c)
}

func (s *memStore) putInvoice(inv *receivable.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = cloneInvoice(inv)
}

func (s *memStore) invoice(id uuid.UUID) *receivable.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil
	}
	return cloneInvoice(inv)
}

func (s *memStore) paymentsOf(invoiceID uuid.UUID) []*receivable.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*receivable.Payment
	for _, p := range s.payments {
		if p.InvoiceID() == invoiceID {
			out = append(out, p)
		}
	}
	receivable.SortPayments(out)
	return out
}

func cloneInvoice(inv *receivable.Invoice) *receivable.Invoice {
	c := *inv
	c.Items = append([]receivable.InvoiceItem(nil), inv.Items...)
	c.ClearDomainEvents()
	return &c
}

func cloneCustomer(cust *partner.Customer) *partner.Customer {
	c := *cust
	c.ClearDomainEvents()
	return &c
}

type memTx struct {
	store     *memStore
	immediate bool
	held      map[uuid.UUID]*sync.Mutex
	invoices  map[uuid.UUID]*receivable.Invoice
	payments  []*receivable.Payment
}

func (tx *memTx) Invoices() receivable.InvoiceRepository { return &memInvoiceRepo{tx: tx} }
func (tx *memTx) Payments() receivable.PaymentRepository { return &memPaymentRepo{tx: tx} }
func (tx *memTx) Customers() partner.CustomerRepository  { return &memCustomerRepo{tx: tx} }

func (tx *memTx) lock(id uuid.UUID) {
	if _, ok := tx.held[id]; ok {
		return
	}
	l := tx.store.rowLock(id)
	l.Lock()
	tx.held[id] = l
}

func (tx *memTx) release() {
	for _, l := range tx.held {
		l.Unlock()
	}
	tx.held = nil
}

func (tx *memTx) commit() {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, inv := range tx.invoices {
		s.invoices[id] = inv
	}
	for _, p := range tx.payments {
		s.payments[p.ID()] = p
	}
}

func (tx *memTx) readInvoice(id uuid.UUID) (*receivable.Invoice, error) {
	if inv, ok := tx.invoices[id]; ok {
		return cloneInvoice(inv), nil
	}
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneInvoice(inv), nil
}

func (tx *memTx) allInvoices() []*receivable.Invoice {
	s := tx.store
	s.mu.Lock()
	merged := make(map[uuid.UUID]*receivable.Invoice, len(s.invoices))
	for id, inv := range s.invoices {
		merged[id] = inv
	}
	s.mu.Unlock()
	for id, inv := range tx.invoices {
		merged[id] = inv
	}
	out := make([]*receivable.Invoice, 0, len(merged))
	for _, inv := range merged {
		out = append(out, cloneInvoice(inv))
	}
	return out
}

func (tx *memTx) allPayments() []*receivable.Payment {
	s := tx.store
	s.mu.Lock()
	out := make([]*receivable.Payment, 0, len(s.payments)+len(tx.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	s.mu.Unlock()
	return append(out, tx.payments...)
}

type memInvoiceRepo struct{ tx *memTx }

func (r *memInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*receivable.Invoice, error) {
	return r.tx.readInvoice(id)
}

func (r *memInvoiceRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*receivable.Invoice, error) {
	r.tx.lock(id)
	return r.tx.readInvoice(id)
}

func (r *memInvoiceRepo) FindByNumber(_ context.Context, number string) (*receivable.Invoice, error) {
	for _, inv := range r.tx.allInvoices() {
		if inv.InvoiceNumber == number {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memInvoiceRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	_, err := r.FindByNumber(ctx, number)
	return err == nil, nil
}

func (r *memInvoiceRepo) FindOutstandingByCustomer(_ context.Context, customerID uuid.UUID) ([]*receivable.Invoice, error) {
	var out []*receivable.Invoice
	for _, inv := range r.tx.allInvoices() {
		if inv.CustomerID == customerID && inv.IsOutstanding() {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) FindAllOutstanding(_ context.Context) ([]*receivable.Invoice, error) {
	var out []*receivable.Invoice
	for _, inv := range r.tx.allInvoices() {
		if inv.IsOutstanding() {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) MarkOverdueInvoices(ctx context.Context, asOf time.Time) ([]*receivable.Invoice, error) {
	var marked []*receivable.Invoice
	for _, candidate := range r.tx.allInvoices() {
		if candidate.Status != receivable.InvoiceStatusPending || !candidate.DueDate.Before(asOf) {
			continue
		}
		inv, err := r.FindByIDForUpdate(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}
		if !inv.MarkOverdue(asOf) {
			continue
		}
		if err := r.Save(ctx, inv); err != nil {
			return nil, err
		}
		marked = append(marked, inv)
	}
	return marked, nil
}

func (r *memInvoiceRepo) GenerateInvoiceNumber(_ context.Context, issueDate time.Time) (string, error) {
	return fmt.Sprintf("INV-%s-%04d", issueDate.Format("20060102"), len(r.tx.allInvoices())+1), nil
}

func (r *memInvoiceRepo) Save(_ context.Context, inv *receivable.Invoice) error {
	if err := r.tx.store.failInvoiceSave; err != nil {
		return err
	}
	stored := cloneInvoice(inv)
	if r.tx.immediate {
		r.tx.store.putInvoice(stored)
		return nil
	}
	r.tx.invoices[inv.ID] = stored
	return nil
}

type memPaymentRepo struct{ tx *memTx }

func (r *memPaymentRepo) Save(_ context.Context, p *receivable.Payment) error {
	r.tx.payments = append(r.tx.payments, p)
	if r.tx.immediate {
		r.tx.commit()
		r.tx.payments = nil
	}
	return nil
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*receivable.Payment, error) {
	for _, p := range r.tx.allPayments() {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memPaymentRepo) FindByInvoice(_ context.Context, invoiceID uuid.UUID) ([]*receivable.Payment, error) {
	var out []*receivable.Payment
	for _, p := range r.tx.allPayments() {
		if p.InvoiceID() == invoiceID {
			out = append(out, p)
		}
	}
	receivable.SortPayments(out)
	return out, nil
}

func (r *memPaymentRepo) FindReversalOf(_ context.Context, paymentID uuid.UUID) (*receivable.Payment, error) {
	for _, p := range r.tx.allPayments() {
		if ref := p.ReversesPaymentID(); ref != nil && *ref == paymentID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memPaymentRepo) SumByInvoiceID(ctx context.Context, invoiceID uuid.UUID, currency valueobject.Currency) (valueobject.Money, error) {
	payments, err := r.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return valueobject.Money{}, err
	}
	return receivable.SumPaid(currency, payments)
}

type memCustomerRepo struct{ tx *memTx }

func (r *memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	s := r.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneCustomer(c), nil
}

func (r *memCustomerRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	r.tx.lock(id)
	return r.FindByID(ctx, id)
}

func (r *memCustomerRepo) Save(_ context.Context, c *partner.Customer) error {
	r.tx.store.putCustomer(c)
	return nil
}

var (
	_ TransactionScope             = (*memStore)(nil)
	_ TransactionalRepositories    = (*memTx)(nil)
	_ receivable.InvoiceRepository = (*memInvoiceRepo)(nil)
	_ receivable.PaymentRepository = (*memPaymentRepo)(nil)
	_ partner.CustomerRepository   = (*memCustomerRepo)(nil)
)

// =============================================================================
// Event recorder
// =============================================================================

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// =============================================================================
// Fixtures
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func vnd(t *testing.T, s string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyFromString(s, valueobject.VND)
	require.NoError(t, err)
	return m
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedCustomer(t *testing.T, store *memStore, limit string, risk partner.RiskLevel) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer("C-"+uuid.NewString()[:6], "Acme Trading", "billing@acme.test", valueobject.VND)
	require.NoError(t, err)
	require.NoError(t, c.SetCreditLimit(vnd(t, limit)))
	require.NoError(t, c.SetRiskLevel(risk))
	store.putCustomer(c)
	return c
}

func seedInvoice(t *testing.T, store *memStore, customerID uuid.UUID, total, due string) *receivable.Invoice {
	t.Helper()
	inv, err := receivable.NewInvoice(customerID, "INV-"+uuid.NewString()[:8], day("2024-01-01"), day(due), vnd(t, total), uuid.New(), nil)
	require.NoError(t, err)
	store.putInvoice(inv)
	return inv
}
