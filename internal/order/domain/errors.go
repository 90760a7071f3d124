package domain

import (
	"github.com/allisson/marketplace/internal/errors"
)

// Order domain errors.
var (
	// ErrOrderNotFound indicates the order does not exist.
	ErrOrderNotFound = errors.Wrap(errors.ErrNotFound, "order not found")
)
