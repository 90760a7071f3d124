package usecase

import (
	"context"
	"time"

	"github.com/allisson/marketplace/internal/metrics"
	orderDomain "github.com/allisson/marketplace/internal/order/domain"
	"github.com/allisson/marketplace/internal/recurrence/domain"
)

// materializerWithMetrics decorates MaterializerUseCase with metrics instrumentation.
type materializerWithMetrics struct {
	next    MaterializerUseCase
	metrics metrics.BusinessMetrics
}

// NewMaterializerUseCaseWithMetrics wraps a MaterializerUseCase with metrics recording.
func NewMaterializerUseCaseWithMetrics(useCase MaterializerUseCase, m metrics.BusinessMetrics) MaterializerUseCase {
	return &materializerWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// ProcessDue records metrics for materialization operations.
func (r *materializerWithMetrics) ProcessDue(
	ctx context.Context,
	definition *domain.Definition,
	now time.Time,
) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := r.next.ProcessDue(ctx, definition, now)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "recurrence", "materialize", status)
	r.metrics.RecordDuration(ctx, "recurrence", "materialize", time.Since(start), status)

	return order, err
}

// schedulerWithMetrics decorates SchedulerUseCase with metrics instrumentation.
type schedulerWithMetrics struct {
	next    SchedulerUseCase
	metrics metrics.BusinessMetrics
}

// NewSchedulerUseCaseWithMetrics wraps a SchedulerUseCase with metrics recording.
func NewSchedulerUseCaseWithMetrics(useCase SchedulerUseCase, m metrics.BusinessMetrics) SchedulerUseCase {
	return &schedulerWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Start delegates to the wrapped loop; individual passes are instrumented.
func (s *schedulerWithMetrics) Start(ctx context.Context) error {
	return s.next.Start(ctx)
}

// ProcessDueDefinitions records metrics for scheduler passes.
func (s *schedulerWithMetrics) ProcessDueDefinitions(ctx context.Context) error {
	start := time.Now()
	err := s.next.ProcessDueDefinitions(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "recurrence", "scheduler_pass", status)
	s.metrics.RecordDuration(ctx, "recurrence", "scheduler_pass", time.Since(start), status)

	return err
}
