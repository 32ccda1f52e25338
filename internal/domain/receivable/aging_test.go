package receivable

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

func TestBucketFor(t *testing.T) {
	tests := []struct {
		days int
		want AgingBucket
	}{
		{-5, AgingBucketCurrent},
		{0, AgingBucketCurrent},
		{1, AgingBucket1To30},
		{30, AgingBucket1To30},
		{31, AgingBucket31To60},
		{60, AgingBucket31To60},
		{61, AgingBucket61To90},
		{90, AgingBucket61To90},
		{91, AgingBucketOver90},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketFor(tt.days), "days=%d", tt.days)
	}
}

func TestBuildAgingReport(t *testing.T) {
	customerID := uuid.New()
	mk := func(due, total string) *Invoice {
		inv, err := NewInvoice(customerID, "INV-"+uuid.NewString()[:8], date("2023-09-01"), date(due), money(total), uuid.New(), nil)
		require.NoError(t, err)
		return inv
	}

	current := mk("2024-01-20", "100")
	late10 := mk("2024-01-05", "200")
	late45 := mk("2023-12-01", "300")
	late120 := mk("2023-09-17", "400")
	paid := mk("2024-01-05", "50")
	require.NoError(t, paid.ApplyPayment(money("50")))

	report, err := BuildAgingReport(customerID, valueobject.VND, []*Invoice{current, late10, late45, late120, paid}, date("2024-01-15"))
	require.NoError(t, err)

	require.Len(t, report.Lines, 5)
	expect := map[AgingBucket]string{
		AgingBucketCurrent: "100",
		AgingBucket1To30:   "200",
		AgingBucket31To60:  "300",
		AgingBucket61To90:  "0",
		AgingBucketOver90:  "400",
	}
	for _, line := range report.Lines {
		assert.True(t, line.Amount.Equals(money(expect[line.Bucket])), "bucket %s got %s", line.Bucket, line.Amount)
	}
	assert.True(t, report.Total.Equals(money("1000")))
	assert.Equal(t, date("2024-01-15"), report.AsOf)
}
