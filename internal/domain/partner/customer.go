package partner

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// RiskLevel drives how often overdue reminders are sent to a customer
type RiskLevel string

const (
	RiskLevelNormal   RiskLevel = "NORMAL"
	RiskLevelWarning  RiskLevel = "WARNING"
	RiskLevelHighRisk RiskLevel = "HIGH_RISK"
)

// IsValid checks if the risk level is a known value
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLevelNormal, RiskLevelWarning, RiskLevelHighRisk:
		return true
	}
	return false
}

// ReminderInterval returns the number of days between repeated overdue reminders.
// Higher risk customers are reminded more often.
func (r RiskLevel) ReminderInterval() int {
	switch r {
	case RiskLevelHighRisk:
		return 1
	case RiskLevelWarning:
		return 2
	default:
		return 3
	}
}

// Customer is read by the ledger engine for its credit limit and risk level.
// The ledger never mutates it.
type Customer struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Email       string
	CreditLimit valueobject.Money
	RiskLevel   RiskLevel
}

// NewCustomer creates a new customer with a zero credit limit and NORMAL risk
func NewCustomer(code, name, email string, currency valueobject.Currency) (*Customer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Customer name cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Email:             email,
		CreditLimit:       valueobject.Zero(currency),
		RiskLevel:         RiskLevelNormal,
	}
	c.AddDomainEvent(NewCustomerCreatedEvent(c))
	return c, nil
}

// SetCreditLimit replaces the credit limit
func (c *Customer) SetCreditLimit(limit valueobject.Money) error {
	if limit.Currency() != c.CreditLimit.Currency() && !c.CreditLimit.IsZero() {
		return shared.NewBusinessRuleError(valueobject.ErrCurrencyMismatch.Code,
			fmt.Sprintf("Credit limit currency %s does not match %s", limit.Currency(), c.CreditLimit.Currency()))
	}
	c.CreditLimit = limit
	c.IncrementVersion()
	return nil
}

// SetRiskLevel changes the risk level, raising an event when it actually changes
func (c *Customer) SetRiskLevel(level RiskLevel) error {
	if !level.IsValid() {
		return shared.NewValidationError("INVALID_RISK_LEVEL", fmt.Sprintf("Unknown risk level %q", level))
	}
	if level == c.RiskLevel {
		return nil
	}
	old := c.RiskLevel
	c.RiskLevel = level
	c.IncrementVersion()
	c.AddDomainEvent(NewCustomerRiskLevelChangedEvent(c, old, level))
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return shared.NewValidationError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
