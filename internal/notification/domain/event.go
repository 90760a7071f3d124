// Package domain contains the notification entities: lifecycle events, the
// per-actor notification feed, push subscriptions, and out-of-band delivery
// attempts with their backoff bookkeeping.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/marketplace/internal/errors"
	internalvalidation "github.com/allisson/marketplace/internal/validation"
)

// Lifecycle event types. These double as the envelope type tag on the wire.
const (
	EventNewOrder              = "new_order"
	EventOrderStatusUpdate     = "order_status_update"
	EventRecurringOrderCreated = "recurring_order_created"
)

// Event is one order-lifecycle occurrence to be fanned out. The customer and
// merchant are resolved by the emitter; administrators are always implicit
// targets.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	OrderID    uuid.UUID       `json:"order_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	MerchantID uuid.UUID       `json:"merchant_id"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEvent builds a lifecycle event stamped with the current instant.
func NewEvent(eventType string, orderID, customerID, merchantID uuid.UUID, payload json.RawMessage) Event {
	return Event{
		ID:         uuid.Must(uuid.NewV7()),
		Type:       eventType,
		OrderID:    orderID,
		CustomerID: customerID,
		MerchantID: merchantID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Validate checks the event before routing.
func (e Event) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.Type, validation.Required, validation.In(
			EventNewOrder,
			EventOrderStatusUpdate,
			EventRecurringOrderCreated,
		)),
	)
	if err != nil {
		return internalvalidation.WrapValidationError(err)
	}
	if e.OrderID == uuid.Nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "order_id is required")
	}
	if e.CustomerID == uuid.Nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "customer_id is required")
	}
	if e.MerchantID == uuid.Nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "merchant_id is required")
	}
	return nil
}
