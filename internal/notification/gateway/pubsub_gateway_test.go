package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub"

	apperrors "github.com/allisson/marketplace/internal/errors"
	"github.com/allisson/marketplace/internal/notification/domain"
)

func TestPubSubGateway_Deliver(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gateway, cleanup, err := NewPubSubGateway(ctx, "mem://push", "mem://email", logger)
	require.NoError(t, err)
	defer cleanup()

	subscriber, err := pubsub.OpenSubscription(ctx, "mem://push")
	require.NoError(t, err)
	defer subscriber.Shutdown(ctx) //nolint:errcheck

	subscription := domain.NewPushSubscription(uuid.Must(uuid.NewV7()), domain.ChannelPush, "https://push.example.com/a")
	payload := json.RawMessage(`{"type":"new_order"}`)

	require.NoError(t, gateway.Deliver(ctx, &subscription, payload))

	receiveCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	message, err := subscriber.Receive(receiveCtx)
	require.NoError(t, err)
	message.Ack()

	assert.JSONEq(t, string(payload), string(message.Body))
	assert.Equal(t, subscription.ActorID.String(), message.Metadata["actor_id"])
	assert.Equal(t, string(domain.ChannelPush), message.Metadata["channel"])
	assert.Equal(t, subscription.Endpoint, message.Metadata["endpoint"])
}

func TestPubSubGateway_Deliver_UnknownChannel(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gateway, cleanup, err := NewPubSubGateway(ctx, "mem://push2", "mem://email2", logger)
	require.NoError(t, err)
	defer cleanup()

	subscription := domain.NewPushSubscription(uuid.Must(uuid.NewV7()), "smoke_signal", "somewhere")

	err = gateway.Deliver(ctx, &subscription, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
