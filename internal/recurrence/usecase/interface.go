// Package usecase implements the recurring order business logic: the
// materializer that turns due definitions into concrete orders and the
// scheduler loop that drives it.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	notificationDomain "github.com/allisson/marketplace/internal/notification/domain"
	orderDomain "github.com/allisson/marketplace/internal/order/domain"
	"github.com/allisson/marketplace/internal/recurrence/domain"
)

// DefinitionRepository defines recurrence definition persistence operations.
type DefinitionRepository interface {
	Create(ctx context.Context, definition *domain.Definition) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Definition, error)
	// FindDue returns active definitions whose next occurrence is due as of
	// now, oldest first.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.Definition, error)
	Update(ctx context.Context, definition *domain.Definition) error
}

// OccurrenceRepository guards at-most-once materialization per due instant.
type OccurrenceRepository interface {
	// Record claims the (definition, due instant) pair. A pair that was
	// already claimed is reported as domain.ErrOccurrenceProcessed.
	Record(ctx context.Context, definitionID uuid.UUID, dueAt time.Time) error
}

// OrderRepository defines the order persistence the materializer needs.
type OrderRepository interface {
	Create(ctx context.Context, order *orderDomain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
}

// SchedulerLock serializes scheduler runs across processes. TryAcquire is
// non-blocking; a false result means another scheduler instance is active.
type SchedulerLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// EventRouter receives the lifecycle events the materializer emits. The
// notification router satisfies this directly.
type EventRouter interface {
	Route(ctx context.Context, event notificationDomain.Event) error
}

// MaterializerUseCase defines the recurring order materialization contract.
// A nil order with a nil error means the definition produced no work (not
// yet due, expired, exhausted, or the due instant was already claimed).
type MaterializerUseCase interface {
	ProcessDue(ctx context.Context, definition *domain.Definition, now time.Time) (*orderDomain.Order, error)
}

// SchedulerUseCase defines the periodic scheduler loop contract.
type SchedulerUseCase interface {
	Start(ctx context.Context) error
	ProcessDueDefinitions(ctx context.Context) error
}
