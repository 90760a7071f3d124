package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

const unreadCounterTTL = 24 * time.Hour

// RedisUnreadRepository caches per-actor unread notification counters. The
// SQL count is the source of truth; cache misses and errors are resolved by
// the caller against the notification repository.
type RedisUnreadRepository struct {
	client redis.UniversalClient
}

// NewRedisUnreadRepository creates a new RedisUnreadRepository
func NewRedisUnreadRepository(client redis.UniversalClient) *RedisUnreadRepository {
	return &RedisUnreadRepository{
		client: client,
	}
}

func unreadKey(actorID uuid.UUID) string {
	return fmt.Sprintf("notification:unread:%s", actorID)
}

// Get returns the cached unread count. A missing key is reported as
// ErrNotFound so the caller can fall back to the source of truth.
func (r *RedisUnreadRepository) Get(ctx context.Context, actorID uuid.UUID) (int64, error) {
	count, err := r.client.Get(ctx, unreadKey(actorID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, apperrors.Wrap(apperrors.ErrNotFound, "unread counter not cached")
		}
		return 0, apperrors.Wrap(err, "failed to get unread counter")
	}
	return count, nil
}

// Set stores the unread count with a bounded lifetime, so a counter that
// drifts from the source of truth self-heals within a day.
func (r *RedisUnreadRepository) Set(ctx context.Context, actorID uuid.UUID, count int64) error {
	if err := r.client.Set(ctx, unreadKey(actorID), count, unreadCounterTTL).Err(); err != nil {
		return apperrors.Wrap(err, "failed to set unread counter")
	}
	return nil
}

// Incr bumps the cached counter if present. Incrementing a missing key
// would seed a counter disconnected from the real count, so absence is left
// for the next Get to backfill.
func (r *RedisUnreadRepository) Incr(ctx context.Context, actorID uuid.UUID) error {
	key := unreadKey(actorID)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return apperrors.Wrap(err, "failed to check unread counter")
	}
	if exists == 0 {
		return nil
	}

	if err := r.client.Incr(ctx, key).Err(); err != nil {
		return apperrors.Wrap(err, "failed to increment unread counter")
	}
	return nil
}

// Invalidate drops the cached counter so the next read rebuilds it from
// the source of truth.
func (r *RedisUnreadRepository) Invalidate(ctx context.Context, actorID uuid.UUID) error {
	if err := r.client.Del(ctx, unreadKey(actorID)).Err(); err != nil {
		return apperrors.Wrap(err, "failed to invalidate unread counter")
	}
	return nil
}
