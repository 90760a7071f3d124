package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification is one persisted entry in an actor's notification feed. It is
// written for every routed event regardless of whether a live delivery
// happened, so the feed survives reconnects.
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	ActorID   uuid.UUID       `json:"actor_id"`
	Type      string          `json:"type"`
	OrderID   uuid.UUID       `json:"order_id"`
	Payload   json.RawMessage `json:"payload"`
	ReadAt    *time.Time      `json:"read_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewNotification builds an unread notification for the given actor.
func NewNotification(actorID uuid.UUID, event Event) Notification {
	return Notification{
		ID:        uuid.Must(uuid.NewV7()),
		ActorID:   actorID,
		Type:      event.Type,
		OrderID:   event.OrderID,
		Payload:   event.Payload,
		CreatedAt: time.Now().UTC(),
	}
}

// Read reports whether the notification has been acknowledged.
func (n Notification) Read() bool {
	return n.ReadAt != nil
}

// MarkRead stamps the acknowledgement instant. Already-read notifications
// keep their original instant.
func (n *Notification) MarkRead(now time.Time) {
	if n.ReadAt != nil {
		return
	}
	t := now.UTC()
	n.ReadAt = &t
}
