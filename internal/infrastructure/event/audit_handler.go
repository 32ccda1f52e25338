package event

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/erp/receivables/internal/domain/partner"
	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/logger"
)

// LedgerEventTypes lists the events that change an invoice's financial state
// or a customer's standing
var LedgerEventTypes = []string{
	receivable.EventTypeInvoiceCreated,
	receivable.EventTypeInvoicePaymentApplied,
	receivable.EventTypeInvoicePaymentRecalculated,
	receivable.EventTypeInvoicePaid,
	receivable.EventTypeInvoiceOverdue,
	receivable.EventTypeInvoiceTotalAmended,
	receivable.EventTypeInvoiceCancelled,
	receivable.EventTypePaymentReversed,
	partner.EventTypeCustomerRiskLevelChanged,
}

// AuditHandler writes every ledger event to the log as a structured audit
// record, payload included
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{logger: logger.Named("audit")}
}

// Handle logs the event
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logger.WithLogger(ctx, h.logger).Info("Ledger event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("payload", json.RawMessage(payload)),
	)
	return nil
}

// EventTypes returns the ledger event types
func (h *AuditHandler) EventTypes() []string {
	return LedgerEventTypes
}

// Ensure AuditHandler implements EventHandler
var _ shared.EventHandler = (*AuditHandler)(nil)
