package domain

import (
	"time"

	"github.com/google/uuid"
)

// Definition is a repeating order template attached to an originating order.
//
// Invariants:
//   - OccurrenceCount never exceeds MaxOccurrences when the latter is set.
//   - NextOccurrenceAt is strictly after LastProcessedAt while the
//     definition is active.
//   - IsActive == false is terminal for the scheduler; only an explicit
//     external update reactivates a definition.
//
// Definitions are never destroyed; deactivated rows are retained for audit.
type Definition struct {
	ID               uuid.UUID
	OrderID          uuid.UUID // originating order
	CustomerID       uuid.UUID
	MerchantID       uuid.UUID
	Frequency        Frequency
	StartDate        time.Time
	EndDate          *time.Time
	MaxOccurrences   *int
	OccurrenceCount  int
	NextOccurrenceAt time.Time
	IsActive         bool
	LastProcessedAt  *time.Time
	DeactivatedAt    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewDefinition creates an active definition starting at startDate.
// The first occurrence is due at startDate itself.
func NewDefinition(
	orderID, customerID, merchantID uuid.UUID,
	frequency Frequency,
	startDate time.Time,
	endDate *time.Time,
	maxOccurrences *int,
) (*Definition, error) {
	if err := frequency.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Definition{
		ID:               uuid.Must(uuid.NewV7()),
		OrderID:          orderID,
		CustomerID:       customerID,
		MerchantID:       merchantID,
		Frequency:        frequency,
		StartDate:        startDate,
		EndDate:          endDate,
		MaxOccurrences:   maxOccurrences,
		OccurrenceCount:  0,
		NextOccurrenceAt: startDate,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Expired reports whether the definition's end date has passed as of now.
func (d *Definition) Expired(now time.Time) bool {
	return d.EndDate != nil && now.After(*d.EndDate)
}

// Exhausted reports whether the occurrence cap has been reached.
func (d *Definition) Exhausted() bool {
	return d.MaxOccurrences != nil && d.OccurrenceCount >= *d.MaxOccurrences
}

// Deactivate marks the definition inactive at the given instant.
// Deactivation is terminal from the scheduler's point of view.
func (d *Definition) Deactivate(now time.Time) {
	d.IsActive = false
	d.DeactivatedAt = &now
	d.UpdatedAt = now
}

// RecordOccurrence performs the occurrence bookkeeping after a successful
// materialization at now: the counter is incremented, the processed instant
// recorded, and either the next occurrence scheduled or, when the cap is
// reached, the definition deactivated.
func (d *Definition) RecordOccurrence(now time.Time) error {
	d.OccurrenceCount++
	d.LastProcessedAt = &now
	d.UpdatedAt = now

	if d.Exhausted() {
		d.Deactivate(now)
		return nil
	}

	next, err := NextOccurrence(now, d.Frequency)
	if err != nil {
		return err
	}
	d.NextOccurrenceAt = next
	return nil
}
