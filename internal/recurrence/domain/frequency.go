// Package domain defines recurring-order domain models and the occurrence
// calculation rules.
//
// All occurrence instants are computed and compared in one configured time
// zone; the calculator itself is pure and leaves zone handling to the
// instants it receives.
package domain

import (
	"time"
)

// Frequency defines how often a recurrence definition produces an order.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Validate checks that the frequency is one of the known values.
// An unknown frequency is a configuration error and is never defaulted.
func (f Frequency) Validate() error {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return nil
	default:
		return ErrUnknownFrequency
	}
}

// NextOccurrence returns the next due instant after asOf for the given
// frequency. It is pure and deterministic.
//
// Monthly recurrences land on the same day-of-month in the next month,
// clamped to the last valid day when the target month is shorter
// (Jan 31 -> Feb 28, or Feb 29 in a leap year).
func NextOccurrence(asOf time.Time, f Frequency) (time.Time, error) {
	switch f {
	case FrequencyDaily:
		return asOf.AddDate(0, 0, 1), nil
	case FrequencyWeekly:
		return asOf.AddDate(0, 0, 7), nil
	case FrequencyBiweekly:
		return asOf.AddDate(0, 0, 14), nil
	case FrequencyMonthly:
		return addMonthClamped(asOf), nil
	default:
		return time.Time{}, ErrUnknownFrequency
	}
}

// addMonthClamped advances one calendar month, clamping the day-of-month to
// the last valid day of the target month. time.AddDate is unsuitable here:
// it normalizes Jan 31 + 1 month to Mar 2/3 instead of clamping to February.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()

	// Day 0 of month+2 normalizes to the last day of month+1.
	lastDay := time.Date(year, month+2, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(year, month+1, day, hour, minute, second, t.Nanosecond(), t.Location())
}
