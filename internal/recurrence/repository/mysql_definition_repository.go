package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/database"
	"github.com/allisson/marketplace/internal/recurrence/domain"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// MySQLDefinitionRepository handles recurrence definition persistence for MySQL
type MySQLDefinitionRepository struct {
	db *sql.DB
}

// NewMySQLDefinitionRepository creates a new MySQLDefinitionRepository
func NewMySQLDefinitionRepository(db *sql.DB) *MySQLDefinitionRepository {
	return &MySQLDefinitionRepository{
		db: db,
	}
}

// Create inserts a new recurrence definition
func (r *MySQLDefinitionRepository) Create(ctx context.Context, definition *domain.Definition) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO recurrence_definitions
			  (id, order_id, customer_id, merchant_id, frequency, start_date, end_date, max_occurrences,
			   occurrence_count, next_occurrence_at, is_active, last_processed_at, deactivated_at,
			   created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query,
		definition.ID, definition.OrderID, definition.CustomerID, definition.MerchantID,
		definition.Frequency, definition.StartDate, definition.EndDate, definition.MaxOccurrences,
		definition.OccurrenceCount, definition.NextOccurrenceAt, definition.IsActive,
		definition.LastProcessedAt, definition.DeactivatedAt, definition.CreatedAt, definition.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create recurrence definition")
	}
	return nil
}

// GetByID retrieves a recurrence definition by id
func (r *MySQLDefinitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Definition, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, customer_id, merchant_id, frequency, start_date, end_date,
			  max_occurrences, occurrence_count, next_occurrence_at, is_active, last_processed_at,
			  deactivated_at, created_at, updated_at
			  FROM recurrence_definitions WHERE id = ?`

	definition, err := scanDefinition(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDefinitionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get recurrence definition by id")
	}
	return definition, nil
}

// FindDue retrieves active definitions due as of now, oldest first
func (r *MySQLDefinitionRepository) FindDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.Definition, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, customer_id, merchant_id, frequency, start_date, end_date,
			  max_occurrences, occurrence_count, next_occurrence_at, is_active, last_processed_at,
			  deactivated_at, created_at, updated_at
			  FROM recurrence_definitions
			  WHERE is_active = TRUE AND next_occurrence_at <= ?
			  ORDER BY next_occurrence_at ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find due recurrence definitions")
	}
	defer rows.Close() //nolint:errcheck

	var definitions []*domain.Definition
	for rows.Next() {
		definition, err := scanDefinition(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan recurrence definition")
		}
		definitions = append(definitions, definition)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate recurrence definitions")
	}
	return definitions, nil
}

// Update persists the definition's mutable scheduling state
func (r *MySQLDefinitionRepository) Update(ctx context.Context, definition *domain.Definition) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE recurrence_definitions
			  SET occurrence_count = ?, next_occurrence_at = ?, is_active = ?,
			      last_processed_at = ?, deactivated_at = ?, updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query,
		definition.OccurrenceCount, definition.NextOccurrenceAt, definition.IsActive,
		definition.LastProcessedAt, definition.DeactivatedAt, definition.UpdatedAt, definition.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update recurrence definition")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return domain.ErrDefinitionNotFound
	}
	return nil
}
