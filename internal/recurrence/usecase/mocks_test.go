package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	notificationDomain "github.com/allisson/marketplace/internal/notification/domain"
	orderDomain "github.com/allisson/marketplace/internal/order/domain"
	"github.com/allisson/marketplace/internal/recurrence/domain"
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

// MockDefinitionRepository is a mock implementation of DefinitionRepository
type MockDefinitionRepository struct {
	mock.Mock
}

func (m *MockDefinitionRepository) Create(ctx context.Context, definition *domain.Definition) error {
	args := m.Called(ctx, definition)
	return args.Error(0)
}

func (m *MockDefinitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Definition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Definition), args.Error(1)
}

func (m *MockDefinitionRepository) FindDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.Definition, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Definition), args.Error(1)
}

func (m *MockDefinitionRepository) Update(ctx context.Context, definition *domain.Definition) error {
	args := m.Called(ctx, definition)
	return args.Error(0)
}

// MockOccurrenceRepository is a mock implementation of OccurrenceRepository
type MockOccurrenceRepository struct {
	mock.Mock
}

func (m *MockOccurrenceRepository) Record(ctx context.Context, definitionID uuid.UUID, dueAt time.Time) error {
	args := m.Called(ctx, definitionID, dueAt)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *orderDomain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderDomain.Order), args.Error(1)
}

// MockSchedulerLock is a mock implementation of SchedulerLock
type MockSchedulerLock struct {
	mock.Mock
}

func (m *MockSchedulerLock) TryAcquire(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockSchedulerLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventRouter is a mock implementation of EventRouter
type MockEventRouter struct {
	mock.Mock
}

func (m *MockEventRouter) Route(ctx context.Context, event notificationDomain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockMaterializer is a mock implementation of MaterializerUseCase
type MockMaterializer struct {
	mock.Mock
}

func (m *MockMaterializer) ProcessDue(
	ctx context.Context,
	definition *domain.Definition,
	now time.Time,
) (*orderDomain.Order, error) {
	args := m.Called(ctx, definition, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderDomain.Order), args.Error(1)
}
