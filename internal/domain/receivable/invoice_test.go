package receivable

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

func money(amount string) valueobject.Money {
	return valueobject.MustNewMoney(decimal.RequireFromString(amount), valueobject.VND)
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestInvoice(t *testing.T, total string) *Invoice {
	t.Helper()
	inv, err := NewInvoice(uuid.New(), "INV-001", date("2024-01-01"), date("2024-01-10"), money(total), uuid.New(), nil)
	require.NoError(t, err)
	return inv
}

func assertLedgerInvariants(t *testing.T, inv *Invoice) {
	t.Helper()
	expected, err := inv.TotalAmount.Subtract(inv.PaidAmount)
	require.NoError(t, err, "paid must never exceed total")
	assert.True(t, inv.BalanceAmount.Equals(expected), "balance %s != total %s - paid %s", inv.BalanceAmount, inv.TotalAmount, inv.PaidAmount)
	if inv.Status != InvoiceStatusCancelled {
		assert.Equal(t, inv.BalanceAmount.IsZero(), inv.Status == InvoiceStatusPaid)
	}
}

func TestNewInvoice(t *testing.T) {
	t.Run("creates pending invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.BalanceAmount.Equals(money("1000")))
		assert.Equal(t, 1, inv.GetVersion())
		require.Len(t, inv.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeInvoiceCreated, inv.GetDomainEvents()[0].EventType())
		assertLedgerInvariants(t, inv)
	})

	t.Run("items must sum to total", func(t *testing.T) {
		item, err := NewInvoiceItem("Widget", decimal.NewFromInt(3), money("100"))
		require.NoError(t, err)

		_, err = NewInvoice(uuid.New(), "INV-002", date("2024-01-01"), date("2024-01-10"), money("300"), uuid.New(), []InvoiceItem{item})
		assert.NoError(t, err)

		_, err = NewInvoice(uuid.New(), "INV-003", date("2024-01-01"), date("2024-01-10"), money("301"), uuid.New(), []InvoiceItem{item})
		assert.Error(t, err)
	})

	tests := []struct {
		name     string
		customer uuid.UUID
		number   string
		issue    string
		due      string
		total    string
	}{
		{"nil customer", uuid.Nil, "INV-1", "2024-01-01", "2024-01-10", "10"},
		{"empty number", uuid.New(), "  ", "2024-01-01", "2024-01-10", "10"},
		{"due before issue", uuid.New(), "INV-1", "2024-01-10", "2024-01-01", "10"},
		{"zero total", uuid.New(), "INV-1", "2024-01-01", "2024-01-10", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInvoice(tt.customer, tt.number, date(tt.issue), date(tt.due), money(tt.total), uuid.New(), nil)
			assert.Error(t, err)
		})
	}
}

func TestInvoice_ApplyPayment(t *testing.T) {
	t.Run("partial payment keeps status", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.NoError(t, inv.ApplyPayment(money("400")))
		assert.True(t, inv.PaidAmount.Equals(money("400")))
		assert.True(t, inv.BalanceAmount.Equals(money("600")))
		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.Equal(t, 2, inv.GetVersion())
		assertLedgerInvariants(t, inv)
	})

	t.Run("full payment marks paid", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.NoError(t, inv.ApplyPayment(money("1000")))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.NotNil(t, inv.PaidAt)
		assertLedgerInvariants(t, inv)

		var types []string
		for _, e := range inv.GetDomainEvents() {
			types = append(types, e.EventType())
		}
		assert.Contains(t, types, EventTypeInvoicePaid)
	})

	t.Run("overdue stays overdue on partial payment", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.True(t, inv.MarkOverdue(date("2024-01-11")))
		require.NoError(t, inv.ApplyPayment(money("100")))
		assert.Equal(t, InvoiceStatusOverdue, inv.Status)
	})

	t.Run("overdue becomes paid", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.True(t, inv.MarkOverdue(date("2024-01-11")))
		require.NoError(t, inv.ApplyPayment(money("1000")))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
	})

	t.Run("exceeds balance", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.NoError(t, inv.ApplyPayment(money("900")))
		err := inv.ApplyPayment(money("100.01"))
		assert.ErrorIs(t, err, ErrPaymentExceedsBalance)
		assert.True(t, inv.PaidAmount.Equals(money("900")), "rejected payment must not change state")
		assertLedgerInvariants(t, inv)
	})

	t.Run("rejected on paid invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		require.NoError(t, inv.ApplyPayment(money("10")))
		assert.ErrorIs(t, inv.ApplyPayment(money("1")), ErrCannotApplyPayment)
	})

	t.Run("rejected on cancelled invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		require.NoError(t, inv.Cancel("duplicate"))
		assert.ErrorIs(t, inv.ApplyPayment(money("1")), ErrCannotApplyPayment)
	})

	t.Run("zero amount", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		assert.Error(t, inv.ApplyPayment(money("0")))
	})

	t.Run("currency mismatch", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		usd := valueobject.MustNewMoney(decimal.NewFromInt(1), valueobject.USD)
		assert.ErrorIs(t, inv.ApplyPayment(usd), valueobject.ErrCurrencyMismatch)
	})
}

func TestInvoice_RecalculatePayment(t *testing.T) {
	t.Run("resets to absolute total", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.NoError(t, inv.ApplyPayment(money("600")))
		require.NoError(t, inv.RecalculatePayment(money("200")))
		assert.True(t, inv.PaidAmount.Equals(money("200")))
		assert.True(t, inv.BalanceAmount.Equals(money("800")))
		assertLedgerInvariants(t, inv)
	})

	t.Run("idempotent after apply", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.NoError(t, inv.ApplyPayment(money("300")))
		version := inv.GetVersion()

		require.NoError(t, inv.RecalculatePayment(money("300")))
		require.NoError(t, inv.RecalculatePayment(money("300")))

		assert.True(t, inv.PaidAmount.Equals(money("300")))
		assert.True(t, inv.BalanceAmount.Equals(money("700")))
		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.Equal(t, version, inv.GetVersion())
	})

	t.Run("reaching total marks paid", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.NoError(t, inv.RecalculatePayment(money("1000")))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
	})

	t.Run("paid exceeds total", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		assert.ErrorIs(t, inv.RecalculatePayment(money("1000.01")), ErrPaidExceedsTotal)
		assertLedgerInvariants(t, inv)
	})

	t.Run("rejected on terminal status", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		require.NoError(t, inv.ApplyPayment(money("10")))
		assert.ErrorIs(t, inv.RecalculatePayment(money("0")), ErrCannotApplyPayment)
	})
}

func TestInvoice_AmendTotal(t *testing.T) {
	t.Run("increase keeps paid", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.NoError(t, inv.ApplyPayment(money("400")))
		require.NoError(t, inv.AmendTotal(money("1500")))
		assert.True(t, inv.BalanceAmount.Equals(money("1100")))
		assertLedgerInvariants(t, inv)
	})

	t.Run("decrease to paid amount marks paid", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.NoError(t, inv.ApplyPayment(money("400")))
		require.NoError(t, inv.AmendTotal(money("400")))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assertLedgerInvariants(t, inv)
	})

	t.Run("below paid amount", func(t *testing.T) {
		inv := newTestInvoice(t, "1000")
		require.NoError(t, inv.ApplyPayment(money("400")))
		assert.ErrorIs(t, inv.AmendTotal(money("399")), ErrPaidExceedsNewTotal)
	})

	t.Run("terminal", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		require.NoError(t, inv.Cancel("wrong customer"))
		assert.ErrorIs(t, inv.AmendTotal(money("20")), ErrCannotAmendInvoice)
	})
}

func TestInvoice_Cancel(t *testing.T) {
	t.Run("unpaid invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		require.NoError(t, inv.Cancel("customer dispute"))
		assert.Equal(t, InvoiceStatusCancelled, inv.Status)
		assert.NotNil(t, inv.CancelledAt)
	})

	t.Run("with payments", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		require.NoError(t, inv.ApplyPayment(money("1")))
		assert.ErrorIs(t, inv.Cancel("x"), ErrCannotCancelInvoice)
	})

	t.Run("requires reason", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		assert.Error(t, inv.Cancel(" "))
	})
}

func TestInvoice_MarkOverdue(t *testing.T) {
	tests := []struct {
		name    string
		current time.Time
		want    bool
	}{
		{"before due date", date("2024-01-09"), false},
		{"on due date", date("2024-01-10"), false},
		{"late on due date", date("2024-01-10").Add(23 * time.Hour), false},
		{"day after due date", date("2024-01-11"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newTestInvoice(t, "10")
			assert.Equal(t, tt.want, inv.MarkOverdue(tt.current))
			if tt.want {
				assert.Equal(t, InvoiceStatusOverdue, inv.Status)
			} else {
				assert.Equal(t, InvoiceStatusPending, inv.Status)
			}
		})
	}

	t.Run("no-op when already overdue", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		require.True(t, inv.MarkOverdue(date("2024-01-11")))
		assert.False(t, inv.MarkOverdue(date("2024-01-12")))
	})

	t.Run("no-op when paid", func(t *testing.T) {
		inv := newTestInvoice(t, "10")
		require.NoError(t, inv.ApplyPayment(money("10")))
		assert.False(t, inv.MarkOverdue(date("2024-02-01")))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
	})
}

func TestInvoice_DaysOverdue(t *testing.T) {
	inv := newTestInvoice(t, "10")

	assert.Equal(t, -3, inv.DaysOverdue(date("2024-01-07")))
	assert.Equal(t, 0, inv.DaysOverdue(date("2024-01-10")))
	assert.Equal(t, 1, inv.DaysOverdue(date("2024-01-11")))

	t.Run("truncates instead of rounding", func(t *testing.T) {
		assert.Equal(t, 0, inv.DaysOverdue(date("2024-01-10").Add(23*time.Hour+59*time.Minute)))
		assert.Equal(t, -3, inv.DaysOverdue(date("2024-01-07").Add(18*time.Hour)))
	})

	t.Run("uses the calendar date of the given location", func(t *testing.T) {
		loc := time.FixedZone("UTC+7", 7*3600)
		today := time.Date(2024, 1, 11, 1, 0, 0, 0, loc)
		assert.Equal(t, 1, inv.DaysOverdue(today))
	})
}
