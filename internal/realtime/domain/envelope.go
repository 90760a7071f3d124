package domain

import (
	"time"

	"github.com/google/uuid"
)

// Envelope is the server-to-client message format.
type Envelope struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Server-to-client envelope types.
const (
	EnvelopeNewOrder              = "new_order"
	EnvelopeOrderStatusUpdate     = "order_status_update"
	EnvelopeRecurringOrderCreated = "recurring_order_created"
	EnvelopeUnreadNotifications   = "unread_notifications"
	EnvelopePong                  = "pong"
)

// NewEnvelope builds an envelope stamped with the current instant.
func NewEnvelope(envelopeType string, data any) Envelope {
	return Envelope{
		Type:      envelopeType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Client-to-server frame types. Anything else is ignored with a logged
// warning; a bad frame never closes the connection.
const (
	FramePing                 = "ping"
	FrameMarkNotificationRead = "mark_notification_read"
	FrameSubscribeOrders      = "subscribe_order_updates"
)

// Frame is a client-to-server message. Fields beyond Type are
// type-specific; irrelevant ones are left at their zero values.
type Frame struct {
	Type           string      `json:"type"`
	NotificationID uuid.UUID   `json:"notification_id,omitempty"`
	OrderIDs       []uuid.UUID `json:"order_ids,omitempty"`
}
