package receivable

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
)

// OverdueService moves PENDING invoices past their due date to OVERDUE
type OverdueService struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
	logger    *zap.Logger
}

// NewOverdueService creates a new OverdueService
func NewOverdueService(
	scope TransactionScope,
	publisher shared.EventPublisher,
	metrics *telemetry.LedgerMetrics,
	logger *zap.Logger,
) *OverdueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueService{
		scope:     scope,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// MarkOverdue flips every PENDING invoice whose due date is before asOf.
// Running it twice for the same day changes nothing the second time.
func (s *OverdueService) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "overdue", "mark")
	defer span.End()

	var marked []*receivable.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		marked, err = repos.Invoices().MarkOverdueInvoices(ctx, receivable.CivilDate(asOf))
		if err != nil {
			return fmt.Errorf("mark overdue invoices: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Overdue sweep failed", zap.Time("as_of", asOf), zap.Error(err))
		return 0, err
	}

	s.metrics.RecordOverdueMarked(ctx, len(marked))
	s.logger.Info("Overdue sweep completed",
		zap.Time("as_of", receivable.CivilDate(asOf)),
		zap.Int("marked", len(marked)),
	)

	aggregates := make([]shared.AggregateRoot, 0, len(marked))
	for _, inv := range marked {
		aggregates = append(aggregates, inv)
	}
	publishAfterCommit(ctx, s.publisher, s.logger, aggregates...)
	return len(marked), nil
}
