// Package domain defines the order domain models shared by the scheduling
// and notification cores.
//
// The full order lifecycle state machine lives outside this service; these
// types cover what materialization and event fan-out need: a concrete order
// with line items, its parties, and an optional back-reference to the
// recurrence definition that produced it.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an order.
// Materialized orders always start in StatusPending; every other transition
// is owned by the external order lifecycle service.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// LineItem is one service line on an order.
type LineItem struct {
	ID          uuid.UUID
	Description string
	Quantity    int
	UnitPrice   int64 // minor currency units
}

// Order represents a concrete order placed by a customer with a merchant.
// When RecurrenceID is set the order was materialized from a recurrence
// definition at DueAt; the reference is by id only, there is no cyclic
// ownership between orders and definitions.
type Order struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	MerchantID   uuid.UUID
	Status       Status
	Items        []LineItem
	RecurrenceID *uuid.UUID
	DueAt        *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Total returns the order total in minor currency units.
func (o *Order) Total() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// CloneItems returns a deep copy of the order's line items with fresh ids,
// used when materializing a recurring order from its originating order.
func (o *Order) CloneItems() []LineItem {
	items := make([]LineItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = LineItem{
			ID:          uuid.Must(uuid.NewV7()),
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return items
}
