package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/database"
	apperrors "github.com/allisson/marketplace/internal/errors"
	notificationDomain "github.com/allisson/marketplace/internal/notification/domain"
	orderDomain "github.com/allisson/marketplace/internal/order/domain"
	"github.com/allisson/marketplace/internal/recurrence/domain"
)

// RecurringOrderMaterializer turns a due definition into a concrete order.
// Materialization is idempotent per (definition, due instant): the occurrence
// claim and the order insert share one transaction, so a crash between them
// never leaves a claimed instant without its order.
type RecurringOrderMaterializer struct {
	txManager      database.TxManager
	definitionRepo DefinitionRepository
	occurrenceRepo OccurrenceRepository
	orderRepo      OrderRepository
	eventRouter    EventRouter
	logger         *slog.Logger
}

// NewRecurringOrderMaterializer creates a materializer use case.
func NewRecurringOrderMaterializer(
	txManager database.TxManager,
	definitionRepo DefinitionRepository,
	occurrenceRepo OccurrenceRepository,
	orderRepo OrderRepository,
	eventRouter EventRouter,
	logger *slog.Logger,
) *RecurringOrderMaterializer {
	return &RecurringOrderMaterializer{
		txManager:      txManager,
		definitionRepo: definitionRepo,
		occurrenceRepo: occurrenceRepo,
		orderRepo:      orderRepo,
		eventRouter:    eventRouter,
		logger:         logger,
	}
}

type recurringOrderPayload struct {
	OrderID      uuid.UUID `json:"order_id"`
	DefinitionID uuid.UUID `json:"definition_id"`
	DueAt        time.Time `json:"due_at"`
	Total        int64     `json:"total"`
}

// ProcessDue materializes the definition's pending occurrence as of now.
// Definitions that are inactive, expired, or exhausted produce no order;
// expired and exhausted ones are deactivated on the spot. A due instant
// already claimed by a concurrent run is treated as done, not as an error.
func (m *RecurringOrderMaterializer) ProcessDue(
	ctx context.Context,
	definition *domain.Definition,
	now time.Time,
) (*orderDomain.Order, error) {
	if !definition.IsActive {
		return nil, nil
	}

	if definition.Expired(now) || definition.Exhausted() {
		definition.Deactivate(now)
		if err := m.definitionRepo.Update(ctx, definition); err != nil {
			return nil, apperrors.Wrap(err, "failed to deactivate recurrence definition")
		}
		m.logger.Info("recurrence definition deactivated",
			slog.String("definition_id", definition.ID.String()),
			slog.Bool("expired", definition.Expired(now)),
		)
		return nil, nil
	}

	if definition.NextOccurrenceAt.After(now) {
		return nil, nil
	}

	source, err := m.orderRepo.GetByID(ctx, definition.OrderID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load originating order")
	}

	dueAt := definition.NextOccurrenceAt
	order := newMaterializedOrder(definition, source, dueAt, now)

	err = m.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := m.occurrenceRepo.Record(ctx, definition.ID, dueAt); err != nil {
			return err
		}
		if err := m.orderRepo.Create(ctx, order); err != nil {
			return apperrors.Wrap(err, "failed to create materialized order")
		}
		if err := definition.RecordOccurrence(now); err != nil {
			return err
		}
		return m.definitionRepo.Update(ctx, definition)
	})
	if err != nil {
		if apperrors.Is(err, domain.ErrOccurrenceProcessed) {
			m.logger.Info("occurrence already materialized",
				slog.String("definition_id", definition.ID.String()),
				slog.Time("due_at", dueAt),
			)
			return nil, nil
		}
		return nil, err
	}

	m.logger.Info("recurring order materialized",
		slog.String("definition_id", definition.ID.String()),
		slog.String("order_id", order.ID.String()),
		slog.Time("due_at", dueAt),
	)

	m.publishCreatedEvent(ctx, definition, order, dueAt)

	return order, nil
}

// publishCreatedEvent emits the recurring_order_created event. Fan-out
// failures do not undo the materialization; they are logged and the retry
// manager picks up any queued deliveries.
func (m *RecurringOrderMaterializer) publishCreatedEvent(
	ctx context.Context,
	definition *domain.Definition,
	order *orderDomain.Order,
	dueAt time.Time,
) {
	payload, err := json.Marshal(recurringOrderPayload{
		OrderID:      order.ID,
		DefinitionID: definition.ID,
		DueAt:        dueAt,
		Total:        order.Total(),
	})
	if err != nil {
		m.logger.Error(fmt.Sprintf("failed to marshal recurring order payload: %v", err))
		return
	}

	event := notificationDomain.NewEvent(
		notificationDomain.EventRecurringOrderCreated,
		order.ID,
		order.CustomerID,
		order.MerchantID,
		payload,
	)
	if err := m.eventRouter.Route(ctx, event); err != nil {
		m.logger.Warn("failed to route recurring order event",
			slog.String("order_id", order.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func newMaterializedOrder(
	definition *domain.Definition,
	source *orderDomain.Order,
	dueAt time.Time,
	now time.Time,
) *orderDomain.Order {
	due := dueAt
	return &orderDomain.Order{
		ID:           uuid.Must(uuid.NewV7()),
		CustomerID:   definition.CustomerID,
		MerchantID:   definition.MerchantID,
		Status:       orderDomain.StatusPending,
		Items:        source.CloneItems(),
		RecurrenceID: &definition.ID,
		DueAt:        &due,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
