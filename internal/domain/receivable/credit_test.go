package receivable

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outstandingInvoice(t *testing.T, customerID uuid.UUID, total, paid string) *Invoice {
	t.Helper()
	inv, err := NewInvoice(customerID, "INV-"+uuid.NewString()[:8], date("2024-01-01"), date("2024-01-31"), money(total), uuid.New(), nil)
	require.NoError(t, err)
	if paid != "0" {
		require.NoError(t, inv.ApplyPayment(money(paid)))
	}
	return inv
}

func TestComputeExposure_NewInvoice(t *testing.T) {
	customerID := uuid.New()
	existing := []*Invoice{outstandingInvoice(t, customerID, "800", "0")}
	limit := money("1000")

	t.Run("accepted within limit", func(t *testing.T) {
		total := money("150")
		got, err := ComputeExposure(limit, existing, nil, &total)
		require.NoError(t, err)
		assert.True(t, got.Exposure.Equals(money("950")))
		assert.True(t, got.Remaining.Equals(money("50")))
		assert.True(t, got.Limit.Equals(limit))
	})

	t.Run("exactly at limit", func(t *testing.T) {
		total := money("200")
		got, err := ComputeExposure(limit, existing, nil, &total)
		require.NoError(t, err)
		assert.True(t, got.Remaining.IsZero())
	})

	t.Run("rejected over limit", func(t *testing.T) {
		total := money("250")
		_, err := ComputeExposure(limit, existing, nil, &total)
		assert.ErrorIs(t, err, ErrCreditLimitExceeded)
	})
}

func TestComputeExposure_IgnoresSettledInvoices(t *testing.T) {
	customerID := uuid.New()
	paid := outstandingInvoice(t, customerID, "500", "500")
	cancelled := outstandingInvoice(t, customerID, "500", "0")
	require.NoError(t, cancelled.Cancel("void"))
	partial := outstandingInvoice(t, customerID, "500", "200")

	got, err := ComputeExposure(money("1000"), []*Invoice{paid, cancelled, partial}, nil, nil)
	require.NoError(t, err)
	assert.True(t, got.Exposure.Equals(money("300")))
}

func TestComputeExposure_Editing(t *testing.T) {
	customerID := uuid.New()
	other := outstandingInvoice(t, customerID, "600", "0")
	editing := outstandingInvoice(t, customerID, "300", "100")
	all := []*Invoice{other, editing}
	limit := money("1000")

	t.Run("excludes edited invoice and uses new total minus paid", func(t *testing.T) {
		newTotal := money("500")
		got, err := ComputeExposure(limit, all, editing, &newTotal)
		require.NoError(t, err)
		assert.True(t, got.Exposure.Equals(money("1000")))
	})

	t.Run("over limit", func(t *testing.T) {
		newTotal := money("501")
		_, err := ComputeExposure(limit, all, editing, &newTotal)
		assert.ErrorIs(t, err, ErrCreditLimitExceeded)
	})

	t.Run("paid exceeds new total", func(t *testing.T) {
		newTotal := money("99")
		_, err := ComputeExposure(limit, all, editing, &newTotal)
		assert.ErrorIs(t, err, ErrPaidExceedsNewTotal)
	})

	t.Run("check without new total uses current balance", func(t *testing.T) {
		got, err := ComputeExposure(limit, all, editing, nil)
		require.NoError(t, err)
		assert.True(t, got.Exposure.Equals(money("800")))
	})

	t.Run("existing debt alone still enforces limit", func(t *testing.T) {
		_, err := ComputeExposure(money("700"), all, editing, nil)
		assert.ErrorIs(t, err, ErrCreditLimitExceeded)
	})
}
