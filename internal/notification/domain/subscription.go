package domain

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	internalvalidation "github.com/allisson/marketplace/internal/validation"
)

// PushSubscription is one registered out-of-band delivery endpoint for an
// actor. Dead endpoints are deactivated, never deleted, so the history of a
// subscription outlives its usefulness.
type PushSubscription struct {
	ID            uuid.UUID  `json:"id"`
	ActorID       uuid.UUID  `json:"actor_id"`
	Channel       Channel    `json:"channel"`
	Endpoint      string     `json:"endpoint"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	DeactivatedAt *time.Time `json:"deactivated_at"`
}

// NewPushSubscription builds an active subscription for the given endpoint.
func NewPushSubscription(actorID uuid.UUID, channel Channel, endpoint string) PushSubscription {
	return PushSubscription{
		ID:        uuid.Must(uuid.NewV7()),
		ActorID:   actorID,
		Channel:   channel,
		Endpoint:  endpoint,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the subscription fields.
func (p PushSubscription) Validate() error {
	if err := p.Channel.Validate(); err != nil {
		return err
	}
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Endpoint, validation.Required, internalvalidation.NotBlank),
	)
	if err != nil {
		return internalvalidation.WrapValidationError(err)
	}
	return nil
}

// Deactivate marks the subscription dead. Idempotent.
func (p *PushSubscription) Deactivate(now time.Time) {
	if !p.IsActive {
		return
	}
	p.IsActive = false
	t := now.UTC()
	p.DeactivatedAt = &t
}
