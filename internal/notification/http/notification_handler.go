// Package http provides HTTP handlers for the notification feed, lifecycle
// event ingestion, and push subscription management.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/httputil"
	"github.com/allisson/marketplace/internal/notification/domain"
	"github.com/allisson/marketplace/internal/notification/http/dto"
	"github.com/allisson/marketplace/internal/notification/usecase"
	realtimeHTTP "github.com/allisson/marketplace/internal/realtime/http"

	apperrors "github.com/allisson/marketplace/internal/errors"
	customValidation "github.com/allisson/marketplace/internal/validation"
)

// NotificationHandler handles HTTP requests for the notification feature.
type NotificationHandler struct {
	routerUseCase usecase.RouterUseCase
	logger        *slog.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(routerUseCase usecase.RouterUseCase, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		routerUseCase: routerUseCase,
		logger:        logger,
	}
}

// CreateEventHandler ingests one order lifecycle event and routes it.
// POST /v1/events - merchant and admin roles only (enforced by middleware).
// Returns 202 Accepted; fan-out happens on the request path but delivery to
// offline targets completes asynchronously.
func (h *NotificationHandler) CreateEventHandler(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	event := domain.NewEvent(
		req.Type,
		uuid.MustParse(req.OrderID),
		uuid.MustParse(req.CustomerID),
		uuid.MustParse(req.MerchantID),
		req.Payload,
	)

	if err := h.routerUseCase.Route(c.Request.Context(), event); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"event_id": event.ID.String()})
}

// ListHandler returns a page of the authenticated actor's notification feed.
// GET /v1/notifications?offset=N&limit=N
func (h *NotificationHandler) ListHandler(c *gin.Context) {
	claims, ok := realtimeHTTP.GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	notifications, err := h.routerUseCase.ListNotifications(c.Request.Context(), claims.ActorID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapNotificationsToListResponse(notifications))
}

// MarkReadHandler acknowledges one notification for the authenticated actor.
// POST /v1/notifications/:id/read
func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	claims, ok := realtimeHTTP.GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.routerUseCase.MarkRead(c.Request.Context(), claims.ActorID, notificationID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// SubscribeHandler registers a push subscription for the authenticated actor.
// POST /v1/subscriptions
func (h *NotificationHandler) SubscribeHandler(c *gin.Context) {
	claims, ok := realtimeHTTP.GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	subscription, err := h.routerUseCase.Subscribe(
		c.Request.Context(), claims.ActorID, domain.Channel(req.Channel), req.Endpoint,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSubscriptionToResponse(subscription))
}

// UnsubscribeHandler deactivates the authenticated actor's subscription.
// DELETE /v1/subscriptions/:id
func (h *NotificationHandler) UnsubscribeHandler(c *gin.Context) {
	claims, ok := realtimeHTTP.GetClaims(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	subscriptionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.routerUseCase.Unsubscribe(c.Request.Context(), claims.ActorID, subscriptionID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
