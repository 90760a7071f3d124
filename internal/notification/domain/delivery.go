package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Channel identifies an out-of-band delivery channel.
type Channel string

// Supported delivery channels.
const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// Validate checks the channel against the supported set.
func (c Channel) Validate() error {
	switch c {
	case ChannelPush, ChannelEmail:
		return nil
	default:
		return ErrUnknownChannel
	}
}

// DeliveryStatus is the lifecycle state of a delivery attempt.
type DeliveryStatus string

// Delivery attempt statuses. Failed attempts stay eligible for retry until
// the backoff schedule is exhausted; sent and abandoned are terminal.
const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusAbandoned DeliveryStatus = "abandoned"
)

// BackoffSchedule is the fixed wait between consecutive delivery attempts,
// indexed by the retry count after the failure. Six attempts total: the
// initial immediate one plus five retries.
var BackoffSchedule = []time.Duration{
	0,
	60 * time.Second,
	300 * time.Second,
	1800 * time.Second,
	3600 * time.Second,
	14400 * time.Second,
}

// DeliveryAttempt is one queued out-of-band delivery for an offline actor.
type DeliveryAttempt struct {
	ID            uuid.UUID       `json:"id"`
	TargetActorID uuid.UUID       `json:"target_actor_id"`
	Channel       Channel         `json:"channel"`
	Payload       json.RawMessage `json:"payload"`
	RetryCount    int             `json:"retry_count"`
	NextRetryAt   time.Time       `json:"next_retry_at"`
	Status        DeliveryStatus  `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewDeliveryAttempt enqueues a delivery due immediately.
func NewDeliveryAttempt(targetActorID uuid.UUID, channel Channel, payload json.RawMessage) DeliveryAttempt {
	now := time.Now().UTC()
	return DeliveryAttempt{
		ID:            uuid.Must(uuid.NewV7()),
		TargetActorID: targetActorID,
		Channel:       channel,
		Payload:       payload,
		RetryCount:    0,
		NextRetryAt:   now,
		Status:        DeliveryStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Terminal reports whether the attempt can still be processed.
func (d DeliveryAttempt) Terminal() bool {
	return d.Status == DeliveryStatusSent || d.Status == DeliveryStatusAbandoned
}

// MarkSent records a successful delivery.
func (d *DeliveryAttempt) MarkSent(now time.Time) {
	d.Status = DeliveryStatusSent
	d.UpdatedAt = now.UTC()
}

// Abandon terminates the attempt without further retries.
func (d *DeliveryAttempt) Abandon(now time.Time) {
	d.Status = DeliveryStatusAbandoned
	d.UpdatedAt = now.UTC()
}

// RecordFailure registers one failed attempt. While the backoff schedule has
// entries left the attempt is rescheduled at now plus the wait indexed by
// the new retry count; once the schedule is exhausted the attempt is
// abandoned and never picked up again.
func (d *DeliveryAttempt) RecordFailure(now time.Time) {
	d.RetryCount++
	if d.RetryCount >= len(BackoffSchedule) {
		d.Abandon(now)
		return
	}
	d.Status = DeliveryStatusFailed
	d.NextRetryAt = now.UTC().Add(BackoffSchedule[d.RetryCount])
	d.UpdatedAt = now.UTC()
}
