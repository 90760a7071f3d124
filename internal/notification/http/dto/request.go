// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/json"

	validation "github.com/jellydator/validation"

	"github.com/allisson/marketplace/internal/notification/domain"
	customValidation "github.com/allisson/marketplace/internal/validation"
)

// CreateEventRequest represents an order lifecycle event submitted for
// routing.
type CreateEventRequest struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"order_id"`
	CustomerID string          `json:"customer_id"`
	MerchantID string          `json:"merchant_id"`
	Payload    json.RawMessage `json:"payload"`
}

// Validate validates the create event request.
func (r CreateEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(
			domain.EventNewOrder,
			domain.EventOrderStatusUpdate,
			domain.EventRecurringOrderCreated,
		)),
		validation.Field(&r.OrderID, validation.Required, customValidation.UUIDString),
		validation.Field(&r.CustomerID, validation.Required, customValidation.UUIDString),
		validation.Field(&r.MerchantID, validation.Required, customValidation.UUIDString),
	)
}

// CreateSubscriptionRequest represents a push subscription registration.
type CreateSubscriptionRequest struct {
	Channel  string `json:"channel"`
	Endpoint string `json:"endpoint"`
}

// Validate validates the create subscription request.
func (r CreateSubscriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Channel, validation.Required, validation.In(
			string(domain.ChannelPush),
			string(domain.ChannelEmail),
		)),
		validation.Field(&r.Endpoint, validation.Required, customValidation.NotBlank),
	)
}
