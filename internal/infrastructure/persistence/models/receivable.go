package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	CustomerID    uuid.UUID                `gorm:"type:uuid;not null;index:idx_invoices_customer_status,priority:1"`
	InvoiceNumber string                   `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_number"`
	IssueDate     time.Time                `gorm:"type:date;not null"`
	DueDate       time.Time                `gorm:"type:date;not null;index"`
	Currency      valueobject.Currency     `gorm:"type:varchar(3);not null"`
	TotalAmount   decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	PaidAmount    decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	BalanceAmount decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Status        receivable.InvoiceStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_invoices_customer_status,priority:2"`
	CreatedBy     uuid.UUID                `gorm:"type:uuid"`
	PaidAt        *time.Time
	CancelledAt   *time.Time
	CancelReason  string             `gorm:"type:varchar(500)"`
	Items         []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
// Stored amounts are re-validated through valueobject.NewMoney.
func (m *InvoiceModel) ToDomain() (*receivable.Invoice, error) {
	total, err := valueobject.NewMoney(m.TotalAmount, m.Currency)
	if err != nil {
		return nil, err
	}
	paid, err := valueobject.NewMoney(m.PaidAmount, m.Currency)
	if err != nil {
		return nil, err
	}
	balance, err := valueobject.NewMoney(m.BalanceAmount, m.Currency)
	if err != nil {
		return nil, err
	}

	var items []receivable.InvoiceItem
	if len(m.Items) > 0 {
		items = make([]receivable.InvoiceItem, 0, len(m.Items))
		for i := range m.Items {
			item, err := m.Items[i].ToDomain(m.Currency)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	return &receivable.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CustomerID:        m.CustomerID,
		InvoiceNumber:     m.InvoiceNumber,
		IssueDate:         receivable.CivilDate(m.IssueDate),
		DueDate:           receivable.CivilDate(m.DueDate),
		TotalAmount:       total,
		PaidAmount:        paid,
		BalanceAmount:     balance,
		Status:            m.Status,
		CreatedBy:         m.CreatedBy,
		Items:             items,
		PaidAt:            m.PaidAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}, nil
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *receivable.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.CustomerID = inv.CustomerID
	m.InvoiceNumber = inv.InvoiceNumber
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Currency = inv.Currency()
	m.TotalAmount = inv.TotalAmount.Amount()
	m.PaidAmount = inv.PaidAmount.Amount()
	m.BalanceAmount = inv.BalanceAmount.Amount()
	m.Status = inv.Status
	m.CreatedBy = inv.CreatedBy
	m.PaidAt = inv.PaidAt
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason

	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i, item := range inv.Items {
		m.Items[i] = InvoiceItemModelFromDomain(inv.ID, item)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *receivable.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for an invoice line.
type InvoiceItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain InvoiceItem.
func (m *InvoiceItemModel) ToDomain(currency valueobject.Currency) (receivable.InvoiceItem, error) {
	price, err := valueobject.NewMoney(m.UnitPrice, currency)
	if err != nil {
		return receivable.InvoiceItem{}, err
	}
	amount, err := valueobject.NewMoney(m.Amount, currency)
	if err != nil {
		return receivable.InvoiceItem{}, err
	}
	return receivable.InvoiceItem{
		ID:          m.ID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   price,
		Amount:      amount,
	}, nil
}

// InvoiceItemModelFromDomain creates a persistence model from a domain InvoiceItem.
func InvoiceItemModelFromDomain(invoiceID uuid.UUID, item receivable.InvoiceItem) InvoiceItemModel {
	return InvoiceItemModel{
		ID:          item.ID,
		InvoiceID:   invoiceID,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice.Amount(),
		Amount:      item.Amount.Amount(),
	}
}

// PaymentModel is the persistence model for the append-only payment ledger.
type PaymentModel struct {
	ID                uuid.UUID                `gorm:"type:uuid;primary_key"`
	InvoiceID         uuid.UUID                `gorm:"type:uuid;not null;index:idx_payments_invoice_order,priority:1"`
	PaymentDate       time.Time                `gorm:"not null;index:idx_payments_invoice_order,priority:2"`
	Amount            decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Currency          valueobject.Currency     `gorm:"type:varchar(3);not null"`
	Method            receivable.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference         string                   `gorm:"type:varchar(100)"`
	RecordedBy        uuid.UUID                `gorm:"type:uuid"`
	ReversesPaymentID *uuid.UUID               `gorm:"type:uuid;uniqueIndex:idx_payments_reverses"`
	CreatedAt         time.Time                `gorm:"not null;index:idx_payments_invoice_order,priority:3"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() (*receivable.Payment, error) {
	amount, err := valueobject.NewMoney(m.Amount, m.Currency)
	if err != nil {
		return nil, err
	}
	return receivable.ReconstitutePayment(
		m.ID,
		m.InvoiceID,
		m.PaymentDate,
		amount,
		m.Method,
		m.Reference,
		m.RecordedBy,
		m.CreatedAt,
		m.ReversesPaymentID,
	), nil
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *receivable.Payment) *PaymentModel {
	return &PaymentModel{
		ID:                p.ID(),
		InvoiceID:         p.InvoiceID(),
		PaymentDate:       p.PaymentDate(),
		Amount:            p.Amount().Amount(),
		Currency:          p.Amount().Currency(),
		Method:            p.Method(),
		Reference:         p.Reference(),
		RecordedBy:        p.RecordedBy(),
		ReversesPaymentID: p.ReversesPaymentID(),
		CreatedAt:         p.CreatedAt(),
	}
}

// ReminderLogModel is the persistence model for reminder attempts.
// The unique index on (invoice_id, email_type, sent_on) enforces at most one
// attempt per reminder type per invoice per day.
type ReminderLogModel struct {
	ID           uuid.UUID                 `gorm:"type:uuid;primary_key"`
	InvoiceID    uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_reminder_logs_once,priority:1"`
	CustomerID   uuid.UUID                 `gorm:"type:uuid;not null;index"`
	EmailType    receivable.EmailType      `gorm:"type:varchar(20);not null;uniqueIndex:idx_reminder_logs_once,priority:2"`
	Recipient    string                    `gorm:"type:varchar(200);not null"`
	Status       receivable.ReminderStatus `gorm:"type:varchar(10);not null"`
	ErrorMessage string                    `gorm:"type:text"`
	SentOn       time.Time                 `gorm:"type:date;not null;uniqueIndex:idx_reminder_logs_once,priority:3"`
	CreatedAt    time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReminderLogModel) TableName() string {
	return "reminder_logs"
}

// ToDomain converts the persistence model to a domain ReminderLog.
func (m *ReminderLogModel) ToDomain() *receivable.ReminderLog {
	return &receivable.ReminderLog{
		ID:           m.ID,
		InvoiceID:    m.InvoiceID,
		CustomerID:   m.CustomerID,
		EmailType:    m.EmailType,
		Recipient:    m.Recipient,
		Status:       m.Status,
		ErrorMessage: m.ErrorMessage,
		SentOn:       receivable.CivilDate(m.SentOn),
		CreatedAt:    m.CreatedAt,
	}
}

// ReminderLogModelFromDomain creates a new persistence model from a domain ReminderLog.
func ReminderLogModelFromDomain(l *receivable.ReminderLog) *ReminderLogModel {
	return &ReminderLogModel{
		ID:           l.ID,
		InvoiceID:    l.InvoiceID,
		CustomerID:   l.CustomerID,
		EmailType:    l.EmailType,
		Recipient:    l.Recipient,
		Status:       l.Status,
		ErrorMessage: l.ErrorMessage,
		SentOn:       l.SentOn,
		CreatedAt:    l.CreatedAt,
	}
}
