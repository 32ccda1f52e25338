package receivable

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// AgingBucket names a range of days past due
type AgingBucket string

const (
	AgingBucketCurrent AgingBucket = "CURRENT"
	AgingBucket1To30   AgingBucket = "1-30"
	AgingBucket31To60  AgingBucket = "31-60"
	AgingBucket61To90  AgingBucket = "61-90"
	AgingBucketOver90  AgingBucket = "90+"
)

// AgingBuckets returns the buckets in report order
func AgingBuckets() []AgingBucket {
	return []AgingBucket{AgingBucketCurrent, AgingBucket1To30, AgingBucket31To60, AgingBucket61To90, AgingBucketOver90}
}

// BucketFor returns the bucket for a DaysOverdue value
func BucketFor(daysOverdue int) AgingBucket {
	switch {
	case daysOverdue <= 0:
		return AgingBucketCurrent
	case daysOverdue <= 30:
		return AgingBucket1To30
	case daysOverdue <= 60:
		return AgingBucket31To60
	case daysOverdue <= 90:
		return AgingBucket61To90
	default:
		return AgingBucketOver90
	}
}

// AgingLine is the total of one bucket
type AgingLine struct {
	Bucket       AgingBucket       `json:"bucket"`
	InvoiceCount int               `json:"invoice_count"`
	Amount       valueobject.Money `json:"amount"`
}

// AgingReport buckets a customer's outstanding balance by days past due
type AgingReport struct {
	CustomerID uuid.UUID         `json:"customer_id"`
	AsOf       time.Time         `json:"as_of"`
	Lines      []AgingLine       `json:"lines"`
	Total      valueobject.Money `json:"total"`
}

// BuildAgingReport aggregates outstanding invoices into aging buckets as of today
func BuildAgingReport(customerID uuid.UUID, currency valueobject.Currency, invoices []*Invoice, today time.Time) (*AgingReport, error) {
	index := make(map[AgingBucket]int)
	lines := make([]AgingLine, 0, len(AgingBuckets()))
	for i, b := range AgingBuckets() {
		index[b] = i
		lines = append(lines, AgingLine{Bucket: b, Amount: valueobject.Zero(currency)})
	}

	total := valueobject.Zero(currency)
	for _, inv := range invoices {
		if !inv.IsOutstanding() {
			continue
		}
		line := &lines[index[BucketFor(inv.DaysOverdue(today))]]
		amount, err := line.Amount.Add(inv.BalanceAmount)
		if err != nil {
			return nil, err
		}
		line.Amount = amount
		line.InvoiceCount++
		if total, err = total.Add(inv.BalanceAmount); err != nil {
			return nil, err
		}
	}

	return &AgingReport{
		CustomerID: customerID,
		AsOf:       CivilDate(today),
		Lines:      lines,
		Total:      total,
	}, nil
}
