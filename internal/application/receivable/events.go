package receivable

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/receivables/internal/domain/shared"
)

// publishAfterCommit publishes and clears the pending events of aggregates
// whose transaction has committed. Publish failures are logged only: the
// ledger state is already durable.
func publishAfterCommit(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, aggregates ...shared.AggregateRoot) {
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}
