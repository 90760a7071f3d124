package usecase

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/database"
	"github.com/allisson/marketplace/internal/notification/domain"
	realtimeDomain "github.com/allisson/marketplace/internal/realtime/domain"
	"github.com/allisson/marketplace/internal/realtime/registry"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// eventData is the envelope payload delivered with every routed event.
type eventData struct {
	OrderID        uuid.UUID       `json:"order_id"`
	NotificationID uuid.UUID       `json:"notification_id"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// NotificationRouter implements RouterUseCase. Each routed event is
// persisted to the target's feed and delivered live when the target holds a
// connection; offline targets fall back to the out-of-band retry queue.
type NotificationRouter struct {
	txManager        database.TxManager
	notificationRepo NotificationRepository
	deliveryRepo     DeliveryRepository
	subscriptionRepo SubscriptionRepository
	cache            UnreadCache
	registry         *registry.Registry
	logger           *slog.Logger
}

// NewNotificationRouter creates a new NotificationRouter. The cache may be
// nil; unread counts then always come from the repository.
func NewNotificationRouter(
	txManager database.TxManager,
	notificationRepo NotificationRepository,
	deliveryRepo DeliveryRepository,
	subscriptionRepo SubscriptionRepository,
	cache UnreadCache,
	reg *registry.Registry,
	logger *slog.Logger,
) *NotificationRouter {
	return &NotificationRouter{
		txManager:        txManager,
		notificationRepo: notificationRepo,
		deliveryRepo:     deliveryRepo,
		subscriptionRepo: subscriptionRepo,
		cache:            cache,
		registry:         reg,
		logger:           logger,
	}
}

// Route fans one lifecycle event out to its resolved targets. A failure for
// one target never blocks delivery to the others; per-target errors are
// joined into the returned error after every target has been handled.
// Administrators receive a live broadcast only, with no feed entry and no
// out-of-band fallback.
func (uc *NotificationRouter) Route(ctx context.Context, event domain.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	var errs []error
	for _, actorID := range eventTargets(event) {
		if err := uc.routeToActor(ctx, actorID, event); err != nil {
			uc.logger.Error("failed to route event to actor",
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", event.Type),
				slog.String("actor_id", actorID.String()),
				slog.Any("error", err),
			)
			errs = append(errs, err)
		}
	}

	uc.broadcastToAdmins(event)

	return stderrors.Join(errs...)
}

// eventTargets resolves the event's direct targets, deduplicated in case
// the customer and merchant are the same actor.
func eventTargets(event domain.Event) []uuid.UUID {
	targets := []uuid.UUID{event.CustomerID}
	if event.MerchantID != event.CustomerID {
		targets = append(targets, event.MerchantID)
	}
	return targets
}

// routeToActor persists the feed entry and attempts live delivery; when the
// target is offline or every live send fails, the out-of-band fallback is
// enqueued in the same transaction as the feed entry.
func (uc *NotificationRouter) routeToActor(ctx context.Context, actorID uuid.UUID, event domain.Event) error {
	notification := domain.NewNotification(actorID, event)
	envelope := realtimeDomain.NewEnvelope(event.Type, eventData{
		OrderID:        event.OrderID,
		NotificationID: notification.ID,
		Payload:        event.Payload,
	})

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.notificationRepo.Create(ctx, &notification); err != nil {
			return err
		}

		if uc.deliverLive(actorID, event.OrderID, envelope) {
			return nil
		}
		return uc.enqueueOutOfBand(ctx, actorID, envelope)
	})
	if err != nil {
		return err
	}

	if uc.cache != nil {
		if err := uc.cache.Incr(ctx, actorID); err != nil {
			uc.logger.Warn("failed to bump unread counter",
				slog.String("actor_id", actorID.String()),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// deliverLive sends the envelope to every live handle the actor holds,
// honoring per-handle order subscriptions. It reports true when at least
// one handle accepted the envelope, or when the actor is online but every
// handle filtered the order out.
func (uc *NotificationRouter) deliverLive(actorID, orderID uuid.UUID, envelope realtimeDomain.Envelope) bool {
	handles := uc.registry.Lookup(actorID)
	if len(handles) == 0 {
		return false
	}

	attempted := 0
	delivered := 0
	for _, handle := range handles {
		if !handle.WantsOrder(orderID) {
			continue
		}
		attempted++
		if err := handle.Send(envelope); err != nil {
			uc.logger.Warn("live delivery failed",
				slog.String("connection_id", handle.ID.String()),
				slog.String("actor_id", actorID.String()),
				slog.Any("error", err),
			)
			continue
		}
		delivered++
	}

	return attempted == 0 || delivered > 0
}

// enqueueOutOfBand creates one delivery attempt per channel the actor holds
// an active subscription on. An actor with no subscriptions keeps only the
// feed entry.
func (uc *NotificationRouter) enqueueOutOfBand(
	ctx context.Context,
	actorID uuid.UUID,
	envelope realtimeDomain.Envelope,
) error {
	subscriptions, err := uc.subscriptionRepo.ListActiveByActor(ctx, actorID)
	if err != nil {
		return err
	}
	if len(subscriptions) == 0 {
		return nil
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode delivery payload")
	}

	seen := make(map[domain.Channel]struct{}, len(subscriptions))
	for _, subscription := range subscriptions {
		if _, ok := seen[subscription.Channel]; ok {
			continue
		}
		seen[subscription.Channel] = struct{}{}

		attempt := domain.NewDeliveryAttempt(actorID, subscription.Channel, payload)
		if err := uc.deliveryRepo.Create(ctx, &attempt); err != nil {
			return err
		}
	}
	return nil
}

// broadcastToAdmins fans the event to every live administrator session,
// skipping administrators already addressed as the event's direct targets.
func (uc *NotificationRouter) broadcastToAdmins(event domain.Event) {
	envelope := realtimeDomain.NewEnvelope(event.Type, eventData{
		OrderID: event.OrderID,
		Payload: event.Payload,
	})

	for _, handle := range uc.registry.LookupByRole(realtimeDomain.RoleAdmin) {
		if handle.ActorID == event.CustomerID || handle.ActorID == event.MerchantID {
			continue
		}
		if !handle.WantsOrder(event.OrderID) {
			continue
		}
		if err := handle.Send(envelope); err != nil {
			uc.logger.Warn("admin broadcast failed",
				slog.String("connection_id", handle.ID.String()),
				slog.Any("error", err),
			)
		}
	}
}

// ListNotifications returns a page of the actor's feed, newest first.
func (uc *NotificationRouter) ListNotifications(
	ctx context.Context,
	actorID uuid.UUID,
	offset, limit int,
) ([]*domain.Notification, error) {
	return uc.notificationRepo.ListByActor(ctx, actorID, offset, limit)
}

// MarkRead acknowledges one notification for the actor. Acknowledging an
// already-read notification is a no-op; acknowledging someone else's
// notification is reported as not found.
func (uc *NotificationRouter) MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error {
	err := uc.notificationRepo.MarkRead(ctx, actorID, notificationID, time.Now())
	if apperrors.Is(err, apperrors.ErrNotFound) {
		existing, getErr := uc.notificationRepo.GetByID(ctx, notificationID)
		if getErr == nil && existing.ActorID == actorID && existing.Read() {
			return nil
		}
		return err
	}
	if err != nil {
		return err
	}

	if uc.cache != nil {
		if cacheErr := uc.cache.Invalidate(ctx, actorID); cacheErr != nil {
			uc.logger.Warn("failed to invalidate unread counter",
				slog.String("actor_id", actorID.String()),
				slog.Any("error", cacheErr),
			)
		}
	}
	return nil
}

// UnreadCount returns the actor's unread notification count, preferring the
// cache and falling back to the repository on a miss or error.
func (uc *NotificationRouter) UnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error) {
	if uc.cache != nil {
		count, err := uc.cache.Get(ctx, actorID)
		if err == nil {
			return count, nil
		}
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			uc.logger.Warn("unread counter cache read failed",
				slog.String("actor_id", actorID.String()),
				slog.Any("error", err),
			)
		}
	}

	count, err := uc.notificationRepo.CountUnread(ctx, actorID)
	if err != nil {
		return 0, err
	}

	if uc.cache != nil {
		if cacheErr := uc.cache.Set(ctx, actorID, count); cacheErr != nil {
			uc.logger.Warn("unread counter cache write failed",
				slog.String("actor_id", actorID.String()),
				slog.Any("error", cacheErr),
			)
		}
	}
	return count, nil
}

// Subscribe registers an out-of-band delivery endpoint for the actor.
func (uc *NotificationRouter) Subscribe(
	ctx context.Context,
	actorID uuid.UUID,
	channel domain.Channel,
	endpoint string,
) (*domain.PushSubscription, error) {
	subscription := domain.NewPushSubscription(actorID, channel, endpoint)
	if err := subscription.Validate(); err != nil {
		return nil, err
	}
	if err := uc.subscriptionRepo.Create(ctx, &subscription); err != nil {
		return nil, err
	}
	return &subscription, nil
}

// Unsubscribe deactivates the actor's subscription. When it was the last
// active one, the actor's pending delivery attempts are removed as well.
func (uc *NotificationRouter) Unsubscribe(ctx context.Context, actorID, subscriptionID uuid.UUID) error {
	subscription, err := uc.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if subscription.ActorID != actorID {
		return apperrors.Wrap(apperrors.ErrForbidden, "subscription belongs to another actor")
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.subscriptionRepo.Deactivate(ctx, subscriptionID, time.Now()); err != nil {
			return err
		}

		remaining, err := uc.subscriptionRepo.ListActiveByActor(ctx, actorID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return uc.deliveryRepo.DeletePendingByActor(ctx, actorID)
		}
		return nil
	})
}
