package models

import (
	"github.com/shopspring/decimal"

	"github.com/erp/receivables/internal/domain/partner"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	Code        string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_customers_code"`
	Name        string               `gorm:"type:varchar(200);not null"`
	Email       string               `gorm:"type:varchar(200)"`
	CreditLimit decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null;default:'VND'"`
	RiskLevel   partner.RiskLevel    `gorm:"type:varchar(20);not null;default:'NORMAL'"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() (*partner.Customer, error) {
	limit, err := valueobject.NewMoney(m.CreditLimit, m.Currency)
	if err != nil {
		return nil, err
	}
	return &partner.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Email:             m.Email,
		CreditLimit:       limit,
		RiskLevel:         m.RiskLevel,
	}, nil
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Email = c.Email
	m.CreditLimit = c.CreditLimit.Amount()
	m.Currency = c.CreditLimit.Currency()
	m.RiskLevel = c.RiskLevel
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
