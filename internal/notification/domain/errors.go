package domain

import (
	"github.com/allisson/marketplace/internal/errors"
)

var (
	// ErrNotificationNotFound indicates the notification does not exist or
	// belongs to a different actor.
	ErrNotificationNotFound = errors.Wrap(errors.ErrNotFound, "notification not found")

	// ErrSubscriptionNotFound indicates no push subscription exists for the
	// given id.
	ErrSubscriptionNotFound = errors.Wrap(errors.ErrNotFound, "push subscription not found")

	// ErrAttemptNotFound indicates no delivery attempt exists for the given id.
	ErrAttemptNotFound = errors.Wrap(errors.ErrNotFound, "delivery attempt not found")

	// ErrPermanentDelivery signals the gateway rejected the endpoint itself,
	// not the individual message. The subscription is dead and must be
	// deactivated instead of rescheduled.
	ErrPermanentDelivery = errors.New("permanent delivery failure")

	// ErrUnknownChannel indicates a delivery channel value outside the
	// supported set.
	ErrUnknownChannel = errors.Wrap(errors.ErrInvalidInput, "unknown delivery channel")
)
