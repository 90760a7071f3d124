// Package gateway hands out-of-band deliveries to the external push and
// email providers through driver-agnostic pubsub topics.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"

	"gocloud.dev/pubsub"

	apperrors "github.com/allisson/marketplace/internal/errors"
	"github.com/allisson/marketplace/internal/notification/domain"
)

// PubSubGateway publishes delivery payloads to per-channel topics. The topic
// URL scheme selects the backing broker, so the same code runs against an
// in-memory topic in tests and a real broker in production.
type PubSubGateway struct {
	pushTopic  *pubsub.Topic
	emailTopic *pubsub.Topic
	logger     *slog.Logger
}

// NewPubSubGateway opens both channel topics. The returned cleanup shuts
// them down and must be called on process shutdown.
func NewPubSubGateway(
	ctx context.Context,
	pushTopicURL, emailTopicURL string,
	logger *slog.Logger,
) (*PubSubGateway, func(), error) {
	pushTopic, err := pubsub.OpenTopic(ctx, pushTopicURL)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to open push topic")
	}

	emailTopic, err := pubsub.OpenTopic(ctx, emailTopicURL)
	if err != nil {
		_ = pushTopic.Shutdown(ctx)
		return nil, nil, apperrors.Wrap(err, "failed to open email topic")
	}

	gateway := &PubSubGateway{
		pushTopic:  pushTopic,
		emailTopic: emailTopic,
		logger:     logger,
	}

	cleanup := func() {
		shutdownCtx := context.Background()
		if err := pushTopic.Shutdown(shutdownCtx); err != nil {
			logger.Warn("push topic shutdown failed", slog.Any("error", err))
		}
		if err := emailTopic.Shutdown(shutdownCtx); err != nil {
			logger.Warn("email topic shutdown failed", slog.Any("error", err))
		}
	}

	return gateway, cleanup, nil
}

// Deliver publishes the payload for one subscription endpoint. Publish
// failures are transient from the retry manager's point of view; the broker
// never signals a dead endpoint, only the downstream provider does.
func (g *PubSubGateway) Deliver(
	ctx context.Context,
	subscription *domain.PushSubscription,
	payload json.RawMessage,
) error {
	var topic *pubsub.Topic
	switch subscription.Channel {
	case domain.ChannelPush:
		topic = g.pushTopic
	case domain.ChannelEmail:
		topic = g.emailTopic
	default:
		return domain.ErrUnknownChannel
	}

	message := &pubsub.Message{
		Body: payload,
		Metadata: map[string]string{
			"actor_id":        subscription.ActorID.String(),
			"subscription_id": subscription.ID.String(),
			"channel":         string(subscription.Channel),
			"endpoint":        subscription.Endpoint,
		},
	}

	if err := topic.Send(ctx, message); err != nil {
		return apperrors.Wrap(apperrors.ErrUnavailable, err.Error())
	}
	return nil
}
