// Package usecase implements the notification business logic: routing
// lifecycle events to live connections, maintaining the per-actor feed and
// unread counters, and retrying out-of-band deliveries with backoff.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/notification/domain"
)

// NotificationRepository defines notification feed persistence operations.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	ListByActor(ctx context.Context, actorID uuid.UUID, offset, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, actorID, id uuid.UUID, now time.Time) error
	CountUnread(ctx context.Context, actorID uuid.UUID) (int64, error)
}

// DeliveryRepository defines delivery attempt persistence operations.
type DeliveryRepository interface {
	Create(ctx context.Context, attempt *domain.DeliveryAttempt) error
	GetDue(ctx context.Context, now time.Time, limit int) ([]*domain.DeliveryAttempt, error)
	Update(ctx context.Context, attempt *domain.DeliveryAttempt) error
	DeletePendingByActor(ctx context.Context, actorID uuid.UUID) error
}

// SubscriptionRepository defines push subscription persistence operations.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *domain.PushSubscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PushSubscription, error)
	ListActiveByActor(ctx context.Context, actorID uuid.UUID) ([]*domain.PushSubscription, error)
	Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error
}

// UnreadCache caches per-actor unread counters. All methods are best-effort
// accelerators over NotificationRepository.CountUnread.
type UnreadCache interface {
	Get(ctx context.Context, actorID uuid.UUID) (int64, error)
	Set(ctx context.Context, actorID uuid.UUID, count int64) error
	Incr(ctx context.Context, actorID uuid.UUID) error
	Invalidate(ctx context.Context, actorID uuid.UUID) error
}

// Gateway hands a payload to the external push or email provider for one
// subscription endpoint. A dead endpoint is reported as ErrPermanentDelivery;
// any other error is transient.
type Gateway interface {
	Deliver(ctx context.Context, subscription *domain.PushSubscription, payload json.RawMessage) error
}

// RouterUseCase defines the notification routing and feed business logic.
type RouterUseCase interface {
	Route(ctx context.Context, event domain.Event) error
	ListNotifications(ctx context.Context, actorID uuid.UUID, offset, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error
	UnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error)
	Subscribe(ctx context.Context, actorID uuid.UUID, channel domain.Channel, endpoint string) (*domain.PushSubscription, error)
	Unsubscribe(ctx context.Context, actorID, subscriptionID uuid.UUID) error
}

// RetryUseCase defines the out-of-band delivery retry runner.
type RetryUseCase interface {
	Start(ctx context.Context) error
	ProcessDue(ctx context.Context) error
}
