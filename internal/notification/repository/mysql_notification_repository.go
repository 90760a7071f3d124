package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/database"
	"github.com/allisson/marketplace/internal/notification/domain"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// MySQLNotificationRepository handles notification persistence for MySQL
type MySQLNotificationRepository struct {
	db *sql.DB
}

// NewMySQLNotificationRepository creates a new MySQLNotificationRepository
func NewMySQLNotificationRepository(db *sql.DB) *MySQLNotificationRepository {
	return &MySQLNotificationRepository{
		db: db,
	}
}

// Create inserts a new notification
func (r *MySQLNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO notifications (id, actor_id, type, order_id, payload, read_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, notification.ID, notification.ActorID, notification.Type,
		notification.OrderID, notification.Payload, notification.ReadAt, notification.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create notification")
	}
	return nil
}

// GetByID retrieves a notification by id
func (r *MySQLNotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var notification domain.Notification
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, actor_id, type, order_id, payload, read_at, created_at
			  FROM notifications WHERE id = ?`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&notification.ID, &notification.ActorID, &notification.Type, &notification.OrderID,
		&notification.Payload, &notification.ReadAt, &notification.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get notification by id")
	}

	return &notification, nil
}

// ListByActor retrieves an actor's notifications, newest first
func (r *MySQLNotificationRepository) ListByActor(
	ctx context.Context,
	actorID uuid.UUID,
	offset, limit int,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, actor_id, type, order_id, payload, read_at, created_at
			  FROM notifications
			  WHERE actor_id = ?
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, actorID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close() //nolint:errcheck

	var notifications []*domain.Notification
	for rows.Next() {
		var notification domain.Notification

		err := rows.Scan(&notification.ID, &notification.ActorID, &notification.Type, &notification.OrderID,
			&notification.Payload, &notification.ReadAt, &notification.CreatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan notification")
		}

		notifications = append(notifications, &notification)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate notifications")
	}

	return notifications, nil
}

// MarkRead stamps the read instant for the actor's notification
func (r *MySQLNotificationRepository) MarkRead(ctx context.Context, actorID, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE notifications SET read_at = ?
			  WHERE id = ? AND actor_id = ? AND read_at IS NULL`

	result, err := querier.ExecContext(ctx, query, now.UTC(), id, actorID)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark notification read")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check mark read result")
	}
	if affected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// CountUnread returns the actor's unread notification count
func (r *MySQLNotificationRepository) CountUnread(ctx context.Context, actorID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*) FROM notifications WHERE actor_id = ? AND read_at IS NULL`

	var count int64
	if err := querier.QueryRowContext(ctx, query, actorID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count unread notifications")
	}
	return count, nil
}
