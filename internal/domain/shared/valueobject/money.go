package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erp/receivables/internal/domain/shared"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	VND Currency = "VND" // Vietnamese Dong (default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = VND

// Scale is the number of fractional digits every Money amount is rounded to
const Scale int32 = 2

// Money errors
var (
	ErrInvalidAmount      = shared.NewValidationError("INVALID_AMOUNT", "Amount must be a non-negative number")
	ErrInvalidCurrency    = shared.NewValidationError("INVALID_CURRENCY", "Currency cannot be empty")
	ErrCurrencyMismatch   = shared.NewBusinessRuleError("CURRENCY_MISMATCH", "Money values have different currencies")
	ErrInsufficientAmount = shared.NewBusinessRuleError("INSUFFICIENT_AMOUNT", "Subtraction would produce a negative amount")
)

// Money is an immutable, non-negative, currency-tagged amount.
// Amounts are rounded half away from zero to Scale digits on construction,
// so repeated add/subtract chains never drift.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, ErrInvalidCurrency
	}
	if amount.IsNegative() {
		return Money{}, shared.NewValidationError(ErrInvalidAmount.Code,
			fmt.Sprintf("Amount must be non-negative, got %s", amount.String()))
	}
	return Money{amount: amount.Round(Scale), currency: currency}, nil
}

// NewMoneyFromFloat creates Money from a float64 value.
// This is the boundary where external numeric input is parsed.
func NewMoneyFromFloat(amount float64, currency Currency) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromInt creates Money from an int64 value
func NewMoneyFromInt(amount int64, currency Currency) (Money, error) {
	return NewMoney(decimal.NewFromInt(amount), currency)
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, ErrInvalidAmount.WithCause(err)
	}
	return NewMoney(d, currency)
}

// MustNewMoney creates Money and panics on invalid input. Intended for constants and tests.
func MustNewMoney(amount decimal.Decimal, currency Currency) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return shared.NewBusinessRuleError(ErrCurrencyMismatch.Code,
			fmt.Sprintf("Currency mismatch: %s and %s", m.currency, other.currency))
	}
	return nil
}

// Add returns a new Money with the sum of both amounts
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns a new Money with the difference.
// Fails with INSUFFICIENT_AMOUNT when the result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, shared.NewBusinessRuleError(ErrInsufficientAmount.Code,
			fmt.Sprintf("Cannot subtract %s from %s", other, m))
	}
	return Money{amount: result, currency: m.currency}, nil
}

// Multiply returns a new Money multiplied by a non-negative factor
func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return Money{amount: m.amount.Mul(factor).Round(Scale), currency: m.currency}, nil
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(Scale), m.currency)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(Scale), Currency: m.currency})
}

// UnmarshalJSON implements json.Unmarshaler with the same validation as NewMoneyFromString
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
