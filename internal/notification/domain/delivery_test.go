package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

func TestNewDeliveryAttempt_DueImmediately(t *testing.T) {
	actorID := uuid.Must(uuid.NewV7())
	attempt := NewDeliveryAttempt(actorID, ChannelPush, json.RawMessage(`{"type":"new_order"}`))

	assert.Equal(t, DeliveryStatusPending, attempt.Status)
	assert.Equal(t, 0, attempt.RetryCount)
	assert.False(t, attempt.NextRetryAt.After(time.Now().UTC()))
	assert.False(t, attempt.Terminal())
}

func TestRecordFailure_FollowsBackoffSchedule(t *testing.T) {
	attempt := NewDeliveryAttempt(uuid.Must(uuid.NewV7()), ChannelPush, nil)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	attempt.RecordFailure(now)

	assert.Equal(t, 1, attempt.RetryCount)
	assert.Equal(t, DeliveryStatusFailed, attempt.Status)
	assert.Equal(t, now.Add(60*time.Second), attempt.NextRetryAt)

	attempt.RecordFailure(now)
	assert.Equal(t, now.Add(300*time.Second), attempt.NextRetryAt)
}

func TestRecordFailure_AbandonsAfterScheduleExhausted(t *testing.T) {
	attempt := NewDeliveryAttempt(uuid.Must(uuid.NewV7()), ChannelEmail, nil)
	now := time.Now()

	for i := 0; i < len(BackoffSchedule)-1; i++ {
		attempt.RecordFailure(now)
		assert.Equal(t, DeliveryStatusFailed, attempt.Status, "attempt %d must stay retryable", i+1)
	}

	// Sixth consecutive failure exhausts the schedule.
	attempt.RecordFailure(now)
	assert.Equal(t, DeliveryStatusAbandoned, attempt.Status)
	assert.True(t, attempt.Terminal())
	assert.Equal(t, len(BackoffSchedule), attempt.RetryCount)
}

func TestMarkSent_IsTerminal(t *testing.T) {
	attempt := NewDeliveryAttempt(uuid.Must(uuid.NewV7()), ChannelPush, nil)
	attempt.MarkSent(time.Now())

	assert.Equal(t, DeliveryStatusSent, attempt.Status)
	assert.True(t, attempt.Terminal())
}

func TestChannelValidate(t *testing.T) {
	assert.NoError(t, ChannelPush.Validate())
	assert.NoError(t, ChannelEmail.Validate())

	err := Channel("carrier_pigeon").Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
