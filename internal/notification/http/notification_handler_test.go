package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/marketplace/internal/notification/domain"
	realtimeDomain "github.com/allisson/marketplace/internal/realtime/domain"
	realtimeHTTP "github.com/allisson/marketplace/internal/realtime/http"
	"github.com/allisson/marketplace/internal/realtime/service"
)

// MockRouterUseCase is a mock implementation of usecase.RouterUseCase
type MockRouterUseCase struct {
	mock.Mock
}

func (m *MockRouterUseCase) Route(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockRouterUseCase) ListNotifications(
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

func (m *MockRouterUseCase) MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error {
	args := m.Called(ctx, actorID, notificationID)
	return args.Error(0)
}

func (m *MockRouterUseCase) UnreadCount(ctx context.Context, actorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, actorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRouterUseCase) Subscribe(
	ctx context.Context,
	actorID uuid.UUID,
	channel domain.Channel,
	endpoint string,
) (*domain.PushSubscription, error) {
	args := m.Called(ctx, actorID, channel, endpoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PushSubscription), args.Error(1)
}

func (m *MockRouterUseCase) Unsubscribe(ctx context.Context, actorID, subscriptionID uuid.UUID) error {
	args := m.Called(ctx, actorID, subscriptionID)
	return args.Error(0)
}

func setupRouter(handler *NotificationHandler, claims *service.Claims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Request = c.Request.WithContext(realtimeHTTP.WithClaims(c.Request.Context(), claims))
		}
		c.Next()
	})
	router.POST("/v1/events", handler.CreateEventHandler)
	router.GET("/v1/notifications", handler.ListHandler)
	router.POST("/v1/notifications/:id/read", handler.MarkReadHandler)
	router.POST("/v1/subscriptions", handler.SubscribeHandler)
	router.DELETE("/v1/subscriptions/:id", handler.UnsubscribeHandler)
	return router
}

func testClaims(role realtimeDomain.Role) *service.Claims {
	return &service.Claims{ActorID: uuid.Must(uuid.NewV7()), Role: role}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateEventHandler(t *testing.T) {
	useCase := &MockRouterUseCase{}
	handler := NewNotificationHandler(useCase, discardLogger())
	router := setupRouter(handler, testClaims(realtimeDomain.RoleMerchant))

	body := map[string]any{
		"type":        domain.EventOrderStatusUpdate,
		"order_id":    uuid.Must(uuid.NewV7()).String(),
		"customer_id": uuid.Must(uuid.NewV7()).String(),
		"merchant_id": uuid.Must(uuid.NewV7()).String(),
		"payload":     map[string]any{"status": "confirmed"},
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	useCase.On("Route", mock.Anything, mock.MatchedBy(func(event domain.Event) bool {
		return event.Type == domain.EventOrderStatusUpdate
	})).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	useCase.AssertExpectations(t)
}

func TestCreateEventHandler_InvalidRequest(t *testing.T) {
	useCase := &MockRouterUseCase{}
	handler := NewNotificationHandler(useCase, discardLogger())
	router := setupRouter(handler, testClaims(realtimeDomain.RoleMerchant))

	body := `{"type":"order_teleported","order_id":"not-a-uuid"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	useCase.AssertNotCalled(t, "Route")
}

func TestListHandler(t *testing.T) {
	useCase := &MockRouterUseCase{}
	handler := NewNotificationHandler(useCase, discardLogger())
	claims := testClaims(realtimeDomain.RoleCustomer)
	router := setupRouter(handler, claims)

	notification := domain.NewNotification(claims.ActorID, domain.NewEvent(
		domain.EventNewOrder, uuid.Must(uuid.NewV7()), claims.ActorID, uuid.Must(uuid.NewV7()), nil,
	))
	useCase.On("ListNotifications", mock.Anything, claims.ActorID, 0, 50).
		Return([]*domain.Notification{&notification}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, notification.ID.String(), response.Data[0].ID)
}

func TestListHandler_Unauthenticated(t *testing.T) {
	useCase := &MockRouterUseCase{}
	handler := NewNotificationHandler(useCase, discardLogger())
	router := setupRouter(handler, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMarkReadHandler(t *testing.T) {
	useCase := &MockRouterUseCase{}
	handler := NewNotificationHandler(useCase, discardLogger())
	claims := testClaims(realtimeDomain.RoleCustomer)
	router := setupRouter(handler, claims)

	notificationID := uuid.Must(uuid.NewV7())
	useCase.On("MarkRead", mock.Anything, claims.ActorID, notificationID).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/"+notificationID.String()+"/read", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	useCase.AssertExpectations(t)
}

func TestMarkReadHandler_NotFound(t *testing.T) {
	useCase := &MockRouterUseCase{}
	handler := NewNotificationHandler(useCase, discardLogger())
	claims := testClaims(realtimeDomain.RoleCustomer)
	router := setupRouter(handler, claims)

	notificationID := uuid.Must(uuid.NewV7())
	useCase.On("MarkRead", mock.Anything, claims.ActorID, notificationID).
		Return(domain.ErrNotificationNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications/"+notificationID.String()+"/read", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscribeHandler(t *testing.T) {
	useCase := &MockRouterUseCase{}
	handler := NewNotificationHandler(useCase, discardLogger())
	claims := testClaims(realtimeDomain.RoleCustomer)
	router := setupRouter(handler, claims)

	subscription := domain.NewPushSubscription(claims.ActorID, domain.ChannelPush, "https://push.example.com/a")
	useCase.On("Subscribe", mock.Anything, claims.ActorID, domain.ChannelPush, subscription.Endpoint).
		Return(&subscription, nil)

	body := `{"channel":"push","endpoint":"https://push.example.com/a"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		ID       string `json:"id"`
		Channel  string `json:"channel"`
		IsActive bool   `json:"is_active"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, subscription.ID.String(), response.ID)
	assert.True(t, response.IsActive)
}

func TestUnsubscribeHandler(t *testing.T) {
	useCase := &MockRouterUseCase{}
	handler := NewNotificationHandler(useCase, discardLogger())
	claims := testClaims(realtimeDomain.RoleCustomer)
	router := setupRouter(handler, claims)

	subscriptionID := uuid.Must(uuid.NewV7())
	useCase.On("Unsubscribe", mock.Anything, claims.ActorID, subscriptionID).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+subscriptionID.String(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	useCase.AssertExpectations(t)
}
