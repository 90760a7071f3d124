package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDefinition(t *testing.T, frequency Frequency, maxOccurrences *int) *Definition {
	t.Helper()

	def, err := NewDefinition(
		uuid.Must(uuid.NewV7()),
		uuid.Must(uuid.NewV7()),
		uuid.Must(uuid.NewV7()),
		frequency,
		date(2024, time.January, 31),
		nil,
		maxOccurrences,
	)
	require.NoError(t, err)
	return def
}

func TestNewDefinition(t *testing.T) {
	def := newTestDefinition(t, FrequencyMonthly, nil)

	assert.True(t, def.IsActive)
	assert.Equal(t, 0, def.OccurrenceCount)
	assert.Equal(t, def.StartDate, def.NextOccurrenceAt, "first occurrence is due at the start date")
	assert.Nil(t, def.LastProcessedAt)
	assert.Nil(t, def.DeactivatedAt)
}

func TestNewDefinition_UnknownFrequency(t *testing.T) {
	_, err := NewDefinition(
		uuid.Must(uuid.NewV7()),
		uuid.Must(uuid.NewV7()),
		uuid.Must(uuid.NewV7()),
		Frequency("hourly"),
		time.Now(),
		nil,
		nil,
	)

	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestDefinitionExpired(t *testing.T) {
	def := newTestDefinition(t, FrequencyDaily, nil)
	assert.False(t, def.Expired(time.Now()), "no end date never expires")

	end := date(2024, time.June, 1)
	def.EndDate = &end

	assert.False(t, def.Expired(date(2024, time.May, 31)))
	assert.False(t, def.Expired(end), "end date itself is still valid")
	assert.True(t, def.Expired(date(2024, time.June, 2)))
}

func TestDefinitionExhausted(t *testing.T) {
	def := newTestDefinition(t, FrequencyDaily, nil)
	assert.False(t, def.Exhausted(), "no cap is never exhausted")

	maxTwo := 2
	def.MaxOccurrences = &maxTwo

	def.OccurrenceCount = 1
	assert.False(t, def.Exhausted())

	def.OccurrenceCount = 2
	assert.True(t, def.Exhausted())
}

func TestRecordOccurrence_Reschedules(t *testing.T) {
	def := newTestDefinition(t, FrequencyWeekly, nil)
	now := date(2024, time.March, 15)

	require.NoError(t, def.RecordOccurrence(now))

	assert.Equal(t, 1, def.OccurrenceCount)
	require.NotNil(t, def.LastProcessedAt)
	assert.Equal(t, now, *def.LastProcessedAt)
	assert.Equal(t, date(2024, time.March, 22), def.NextOccurrenceAt)
	assert.True(t, def.IsActive)
}

func TestRecordOccurrence_DeactivatesAtCap(t *testing.T) {
	// Concrete scenario: monthly from 2024-01-31 with maxOccurrences=2.
	maxTwo := 2
	def := newTestDefinition(t, FrequencyMonthly, &maxTwo)

	// First due tick on 2024-01-31 reschedules to the clamped leap-year date.
	first := date(2024, time.January, 31)
	require.NoError(t, def.RecordOccurrence(first))
	assert.Equal(t, 1, def.OccurrenceCount)
	assert.Equal(t, date(2024, time.February, 29), def.NextOccurrenceAt)
	assert.True(t, def.IsActive)

	// Second due tick on 2024-02-29 reaches the cap and deactivates.
	second := date(2024, time.February, 29)
	require.NoError(t, def.RecordOccurrence(second))
	assert.Equal(t, 2, def.OccurrenceCount)
	assert.False(t, def.IsActive)
	require.NotNil(t, def.DeactivatedAt)
	assert.Equal(t, second, *def.DeactivatedAt)
}

func TestRecordOccurrence_NextAlwaysAfterLastProcessed(t *testing.T) {
	def := newTestDefinition(t, FrequencyDaily, nil)

	now := date(2024, time.March, 15)
	for i := 0; i < 5; i++ {
		require.NoError(t, def.RecordOccurrence(now))
		assert.True(t, def.NextOccurrenceAt.After(*def.LastProcessedAt))
		now = def.NextOccurrenceAt
	}
}

func TestDeactivate(t *testing.T) {
	def := newTestDefinition(t, FrequencyDaily, nil)
	now := time.Now()

	def.Deactivate(now)

	assert.False(t, def.IsActive)
	require.NotNil(t, def.DeactivatedAt)
	assert.Equal(t, now, *def.DeactivatedAt)
}
