package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/marketplace/internal/notification/domain"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	// Execute the function to test the logic inside
	return fn(ctx)
}

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) ListByActor(
	ctx context.Context,
	actorID uuid.UUID,
	offset, limit int,
) ([]*domain.Notification, error) {
	args := m.Called(ctx, actorID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, actorID, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, actorID, id, now)
	return args.Error(0)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, actorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).(int64), args.Error(1)
}

// MockDeliveryRepository is a mock implementation of DeliveryRepository
type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Create(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockDeliveryRepository) GetDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.DeliveryAttempt, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeliveryAttempt), args.Error(1)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockDeliveryRepository) DeletePendingByActor(ctx context.Context, actorID uuid.UUID) error {
	args := m.Called(ctx, actorID)
	return args.Error(0)
}

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, subscription *domain.PushSubscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PushSubscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PushSubscription), args.Error(1)
}

func (m *MockSubscriptionRepository) ListActiveByActor(
	ctx context.Context,
	actorID uuid.UUID,
) ([]*domain.PushSubscription, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PushSubscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

// MockUnreadCache is a mock implementation of UnreadCache
type MockUnreadCache struct {
	mock.Mock
}

func (m *MockUnreadCache) Get(ctx context.Context, actorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUnreadCache) Set(ctx context.Context, actorID uuid.UUID, count int64) error {
	args := m.Called(ctx, actorID, count)
	return args.Error(0)
}

func (m *MockUnreadCache) Incr(ctx context.Context, actorID uuid.UUID) error {
	args := m.Called(ctx, actorID)
	return args.Error(0)
}

func (m *MockUnreadCache) Invalidate(ctx context.Context, actorID uuid.UUID) error {
	args := m.Called(ctx, actorID)
	return args.Error(0)
}

// MockGateway is a mock implementation of Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Deliver(
	ctx context.Context,
	subscription *domain.PushSubscription,
	payload json.RawMessage,
) error {
	args := m.Called(ctx, subscription, payload)
	return args.Error(0)
}
