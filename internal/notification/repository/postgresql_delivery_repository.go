package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/database"
	"github.com/allisson/marketplace/internal/notification/domain"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// PostgreSQLDeliveryRepository handles delivery attempt persistence for PostgreSQL
type PostgreSQLDeliveryRepository struct {
	db *sql.DB
}

// NewPostgreSQLDeliveryRepository creates a new PostgreSQLDeliveryRepository
func NewPostgreSQLDeliveryRepository(db *sql.DB) *PostgreSQLDeliveryRepository {
	return &PostgreSQLDeliveryRepository{
		db: db,
	}
}

// Create inserts a new delivery attempt
func (r *PostgreSQLDeliveryRepository) Create(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO delivery_attempts
			  (id, target_actor_id, channel, payload, retry_count, next_retry_at, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(ctx, query, attempt.ID, attempt.TargetActorID, attempt.Channel,
		attempt.Payload, attempt.RetryCount, attempt.NextRetryAt, attempt.Status,
		attempt.CreatedAt, attempt.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create delivery attempt")
	}
	return nil
}

// GetDue retrieves attempts ready for processing. Rows are locked with SKIP
// LOCKED so concurrent retry runners never process the same attempt twice.
func (r *PostgreSQLDeliveryRepository) GetDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.DeliveryAttempt, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, target_actor_id, channel, payload, retry_count, next_retry_at, status, created_at, updated_at
			  FROM delivery_attempts
			  WHERE status IN ($1, $2) AND next_retry_at <= $3
			  ORDER BY next_retry_at ASC
			  LIMIT $4
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query,
		domain.DeliveryStatusPending, domain.DeliveryStatusFailed, now.UTC(), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get due delivery attempts")
	}
	defer rows.Close() //nolint:errcheck

	var attempts []*domain.DeliveryAttempt
	for rows.Next() {
		var attempt domain.DeliveryAttempt

		err := rows.Scan(&attempt.ID, &attempt.TargetActorID, &attempt.Channel, &attempt.Payload,
			&attempt.RetryCount, &attempt.NextRetryAt, &attempt.Status, &attempt.CreatedAt, &attempt.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan delivery attempt")
		}

		attempts = append(attempts, &attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate delivery attempts")
	}

	return attempts, nil
}

// Update persists the attempt's retry bookkeeping
func (r *PostgreSQLDeliveryRepository) Update(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE delivery_attempts
			  SET retry_count = $1, next_retry_at = $2, status = $3, updated_at = $4
			  WHERE id = $5`

	result, err := querier.ExecContext(ctx, query, attempt.RetryCount, attempt.NextRetryAt,
		attempt.Status, attempt.UpdatedAt, attempt.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update delivery attempt")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check delivery attempt update")
	}
	if affected == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

// DeletePendingByActor removes non-terminal attempts for an actor. Used when
// the actor unsubscribes from out-of-band delivery.
func (r *PostgreSQLDeliveryRepository) DeletePendingByActor(ctx context.Context, actorID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM delivery_attempts
			  WHERE target_actor_id = $1 AND status IN ($2, $3)`

	_, err := querier.ExecContext(ctx, query, actorID,
		domain.DeliveryStatusPending, domain.DeliveryStatusFailed)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete pending delivery attempts")
	}
	return nil
}
