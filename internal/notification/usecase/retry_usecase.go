package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/marketplace/internal/database"
	"github.com/allisson/marketplace/internal/notification/domain"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// RetryConfig holds retry runner configuration
type RetryConfig struct {
	Interval  time.Duration
	BatchSize int
}

// DeliveryRetryManager implements RetryUseCase. It periodically drains due
// delivery attempts, hands each to the gateway, and applies the backoff
// schedule on failure. A permanent gateway failure deactivates the dead
// subscription instead of rescheduling.
type DeliveryRetryManager struct {
	config           RetryConfig
	txManager        database.TxManager
	deliveryRepo     DeliveryRepository
	subscriptionRepo SubscriptionRepository
	gateway          Gateway
	logger           *slog.Logger
}

// NewDeliveryRetryManager creates a new DeliveryRetryManager
func NewDeliveryRetryManager(
	config RetryConfig,
	txManager database.TxManager,
	deliveryRepo DeliveryRepository,
	subscriptionRepo SubscriptionRepository,
	gateway Gateway,
	logger *slog.Logger,
) *DeliveryRetryManager {
	return &DeliveryRetryManager{
		config:           config,
		txManager:        txManager,
		deliveryRepo:     deliveryRepo,
		subscriptionRepo: subscriptionRepo,
		gateway:          gateway,
		logger:           logger,
	}
}

// Start runs the retry processing loop until the context is cancelled.
func (uc *DeliveryRetryManager) Start(ctx context.Context) error {
	uc.logger.Info("starting delivery retry manager",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping delivery retry manager")
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessDue(ctx); err != nil {
				uc.logger.Error("failed to process due deliveries", slog.Any("error", err))
			}
		}
	}
}

// ProcessDue drains one batch of due attempts inside a transaction. The row
// locks taken by GetDue keep concurrent runners off the same attempts; a
// single attempt's failure never aborts the batch.
func (uc *DeliveryRetryManager) ProcessDue(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		attempts, err := uc.deliveryRepo.GetDue(ctx, time.Now(), uc.config.BatchSize)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			return nil
		}

		uc.logger.Info("processing delivery attempts", slog.Int("count", len(attempts)))

		for _, attempt := range attempts {
			if err := uc.processAttempt(ctx, attempt); err != nil {
				uc.logger.Error("failed to process delivery attempt",
					slog.String("attempt_id", attempt.ID.String()),
					slog.String("target_actor_id", attempt.TargetActorID.String()),
					slog.Any("error", err),
				)
			}
		}
		return nil
	})
}

// processAttempt delivers one attempt to every matching active subscription
// and settles the attempt's status from the aggregated outcomes: any
// accepted delivery marks it sent, a transient failure reschedules it per
// the backoff schedule, and a target with no usable endpoints left is
// abandoned.
func (uc *DeliveryRetryManager) processAttempt(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	now := time.Now()

	subscriptions, err := uc.subscriptionRepo.ListActiveByActor(ctx, attempt.TargetActorID)
	if err != nil {
		return err
	}

	delivered := false
	transient := false
	for _, subscription := range subscriptions {
		if subscription.Channel != attempt.Channel {
			continue
		}

		err := uc.gateway.Deliver(ctx, subscription, attempt.Payload)
		switch {
		case err == nil:
			delivered = true

		case apperrors.Is(err, domain.ErrPermanentDelivery):
			uc.logger.Warn("deactivating dead subscription",
				slog.String("subscription_id", subscription.ID.String()),
				slog.String("channel", string(subscription.Channel)),
			)
			if deactivateErr := uc.subscriptionRepo.Deactivate(ctx, subscription.ID, now); deactivateErr != nil {
				return deactivateErr
			}

		default:
			uc.logger.Warn("delivery failed",
				slog.String("attempt_id", attempt.ID.String()),
				slog.String("subscription_id", subscription.ID.String()),
				slog.Any("error", err),
			)
			transient = true
		}
	}

	switch {
	case delivered:
		attempt.MarkSent(now)
	case transient:
		attempt.RecordFailure(now)
	default:
		// No active subscription on this channel, or only permanently dead
		// endpoints. Retrying cannot succeed.
		attempt.Abandon(now)
	}

	return uc.deliveryRepo.Update(ctx, attempt)
}
