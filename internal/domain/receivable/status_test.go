package receivable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatus(t *testing.T) {
	tests := []struct {
		status   InvoiceStatus
		payable  bool
		terminal bool
	}{
		{InvoiceStatusPending, true, false},
		{InvoiceStatusOverdue, true, false},
		{InvoiceStatusPaid, false, true},
		{InvoiceStatusCancelled, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.payable, tt.status.CanApplyPayment())
			assert.Equal(t, tt.payable, tt.status.IsOutstanding())
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
	assert.False(t, InvoiceStatus("DRAFT").IsValid())
	assert.ElementsMatch(t, []InvoiceStatus{InvoiceStatusPending, InvoiceStatusOverdue}, OutstandingStatuses())
}
