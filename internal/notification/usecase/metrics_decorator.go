package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/metrics"
	"github.com/allisson/marketplace/internal/notification/domain"
)

// routerUseCaseWithMetrics decorates RouterUseCase with metrics instrumentation.
type routerUseCaseWithMetrics struct {
	next    RouterUseCase
	metrics metrics.BusinessMetrics
}

// NewRouterUseCaseWithMetrics wraps a RouterUseCase with metrics recording.
func NewRouterUseCaseWithMetrics(useCase RouterUseCase, m metrics.BusinessMetrics) RouterUseCase {
	return &routerUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Route records metrics for event routing operations.
func (r *routerUseCaseWithMetrics) Route(ctx context.Context, event domain.Event) error {
	start := time.Now()
	err := r.next.Route(ctx, event)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "notification", "route", status)
	r.metrics.RecordDuration(ctx, "notification", "route", time.Since(start), status)

	return err
}

// ListNotifications records metrics for feed listing operations.
func (r *routerUseCaseWithMetrics) ListNotifications(
	ctx context.Context,
	actorID uuid.UUID,
	offset, limit int,
) ([]*domain.Notification, error) {
	start := time.Now()
	notifications, err := r.next.ListNotifications(ctx, actorID, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "notification", "list", status)
	r.metrics.RecordDuration(ctx, "notification", "list", time.Since(start), status)

	return notifications, err
}

// MarkRead records metrics for acknowledgement operations.
func (r *routerUseCaseWithMetrics) MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error {
	start := time.Now()
	err := r.next.MarkRead(ctx, actorID, notificationID)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "notification", "mark_read", status)
	r.metrics.RecordDuration(ctx, "notification", "mark_read", time.Since(start), status)

	return err
}

// UnreadCount records metrics for unread counter reads.
func (r *routerUseCaseWithMetrics) UnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error) {
	start := time.Now()
	count, err := r.next.UnreadCount(ctx, actorID)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "notification", "unread_count", status)
	r.metrics.RecordDuration(ctx, "notification", "unread_count", time.Since(start), status)

	return count, err
}

// Subscribe records metrics for subscription registrations.
func (r *routerUseCaseWithMetrics) Subscribe(
	ctx context.Context,
	actorID uuid.UUID,
	channel domain.Channel,
	endpoint string,
) (*domain.PushSubscription, error) {
	start := time.Now()
	subscription, err := r.next.Subscribe(ctx, actorID, channel, endpoint)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "notification", "subscribe", status)
	r.metrics.RecordDuration(ctx, "notification", "subscribe", time.Since(start), status)

	return subscription, err
}

// Unsubscribe records metrics for subscription removals.
func (r *routerUseCaseWithMetrics) Unsubscribe(ctx context.Context, actorID, subscriptionID uuid.UUID) error {
	start := time.Now()
	err := r.next.Unsubscribe(ctx, actorID, subscriptionID)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "notification", "unsubscribe", status)
	r.metrics.RecordDuration(ctx, "notification", "unsubscribe", time.Since(start), status)

	return err
}

// retryUseCaseWithMetrics decorates RetryUseCase with metrics instrumentation.
type retryUseCaseWithMetrics struct {
	next    RetryUseCase
	metrics metrics.BusinessMetrics
}

// NewRetryUseCaseWithMetrics wraps a RetryUseCase with metrics recording.
func NewRetryUseCaseWithMetrics(useCase RetryUseCase, m metrics.BusinessMetrics) RetryUseCase {
	return &retryUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Start delegates to the wrapped runner.
func (r *retryUseCaseWithMetrics) Start(ctx context.Context) error {
	return r.next.Start(ctx)
}

// ProcessDue records metrics for retry batch processing.
func (r *retryUseCaseWithMetrics) ProcessDue(ctx context.Context) error {
	start := time.Now()
	err := r.next.ProcessDue(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	r.metrics.RecordOperation(ctx, "notification", "retry_delivery", status)
	r.metrics.RecordDuration(ctx, "notification", "retry_delivery", time.Since(start), status)

	return err
}
