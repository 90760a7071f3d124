package dto

import (
	"encoding/json"
	"time"

	"github.com/allisson/marketplace/internal/notification/domain"
)

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	OrderID   string          `json:"order_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListNotificationsResponse represents a paginated notification feed page.
type ListNotificationsResponse struct {
	Data []NotificationResponse `json:"data"`
}

// MapNotificationsToListResponse converts domain notifications to a list response.
func MapNotificationsToListResponse(notifications []*domain.Notification) ListNotificationsResponse {
	data := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		data = append(data, NotificationResponse{
			ID:        notification.ID.String(),
			Type:      notification.Type,
			OrderID:   notification.OrderID.String(),
			Payload:   notification.Payload,
			ReadAt:    notification.ReadAt,
			CreatedAt: notification.CreatedAt,
		})
	}

	return ListNotificationsResponse{
		Data: data,
	}
}

// SubscriptionResponse represents a push subscription in API responses.
type SubscriptionResponse struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Endpoint  string    `json:"endpoint"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// MapSubscriptionToResponse converts a domain subscription to a response.
func MapSubscriptionToResponse(subscription *domain.PushSubscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:        subscription.ID.String(),
		Channel:   string(subscription.Channel),
		Endpoint:  subscription.Endpoint,
		IsActive:  subscription.IsActive,
		CreatedAt: subscription.CreatedAt,
	}
}
