package domain

import (
	"github.com/allisson/marketplace/internal/errors"
)

// Recurrence domain errors.
var (
	// ErrUnknownFrequency indicates a recurrence definition carries a
	// frequency value outside the supported set. This is a configuration
	// error surfaced to the caller, never silently defaulted.
	ErrUnknownFrequency = errors.Wrap(errors.ErrInvalidInput, "unknown recurrence frequency")

	// ErrDefinitionNotFound indicates the recurrence definition does not exist.
	ErrDefinitionNotFound = errors.Wrap(errors.ErrNotFound, "recurrence definition not found")

	// ErrOccurrenceProcessed indicates this definition's due instant was
	// already materialized. Processing the same due instant twice is a no-op,
	// which is what makes materialization safe to retry after a crash.
	ErrOccurrenceProcessed = errors.Wrap(errors.ErrConflict, "occurrence already processed")
)
