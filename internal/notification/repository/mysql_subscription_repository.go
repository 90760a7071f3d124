package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/database"
	"github.com/allisson/marketplace/internal/notification/domain"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// MySQLSubscriptionRepository handles push subscription persistence for MySQL
type MySQLSubscriptionRepository struct {
	db *sql.DB
}

// NewMySQLSubscriptionRepository creates a new MySQLSubscriptionRepository
func NewMySQLSubscriptionRepository(db *sql.DB) *MySQLSubscriptionRepository {
	return &MySQLSubscriptionRepository{
		db: db,
	}
}

// Create inserts a new push subscription
func (r *MySQLSubscriptionRepository) Create(ctx context.Context, subscription *domain.PushSubscription) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO push_subscriptions
			  (id, actor_id, channel, endpoint, is_active, created_at, deactivated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, subscription.ID, subscription.ActorID, subscription.Channel,
		subscription.Endpoint, subscription.IsActive, subscription.CreatedAt, subscription.DeactivatedAt)
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "push subscription already exists")
		}
		return apperrors.Wrap(err, "failed to create push subscription")
	}
	return nil
}

// GetByID retrieves a push subscription by id
func (r *MySQLSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PushSubscription, error) {
	var subscription domain.PushSubscription
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, actor_id, channel, endpoint, is_active, created_at, deactivated_at
			  FROM push_subscriptions WHERE id = ?`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&subscription.ID, &subscription.ActorID, &subscription.Channel, &subscription.Endpoint,
		&subscription.IsActive, &subscription.CreatedAt, &subscription.DeactivatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get push subscription by id")
	}

	return &subscription, nil
}

// ListActiveByActor retrieves the actor's active subscriptions
func (r *MySQLSubscriptionRepository) ListActiveByActor(
	ctx context.Context,
	actorID uuid.UUID,
) ([]*domain.PushSubscription, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, actor_id, channel, endpoint, is_active, created_at, deactivated_at
			  FROM push_subscriptions
			  WHERE actor_id = ? AND is_active = TRUE
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list push subscriptions")
	}
	defer rows.Close() //nolint:errcheck

	var subscriptions []*domain.PushSubscription
	for rows.Next() {
		var subscription domain.PushSubscription

		err := rows.Scan(&subscription.ID, &subscription.ActorID, &subscription.Channel,
			&subscription.Endpoint, &subscription.IsActive, &subscription.CreatedAt, &subscription.DeactivatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan push subscription")
		}

		subscriptions = append(subscriptions, &subscription)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate push subscriptions")
	}

	return subscriptions, nil
}

// Deactivate marks the subscription inactive
func (r *MySQLSubscriptionRepository) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE push_subscriptions
			  SET is_active = FALSE, deactivated_at = ?
			  WHERE id = ? AND is_active = TRUE`

	result, err := querier.ExecContext(ctx, query, now.UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to deactivate push subscription")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check push subscription deactivation")
	}
	if affected == 0 {
		if _, lookupErr := r.GetByID(ctx, id); lookupErr != nil {
			return lookupErr
		}
	}
	return nil
}

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate key violation
func isMySQLDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
