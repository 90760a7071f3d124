// Package repository provides persistence implementations for recurrence
// definitions, occurrence claims, and the scheduler lock.
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

// PostgreSQLDefinitionRepository handles recurrence definition persistence for PostgreSQL
type PostgreSQLDefinitionRepository struct {
	db *sql.DB
}

// NewPostgreSQLDefinitionRepository creates a new PostgreSQLDefinitionRepository
func NewPostgreSQLDefinitionRepository(db *sql.DB) *PostgreSQLDefinitionRepository {
	return &PostgreSQLDefinitionRepository{
		db: db,
	}
}

// Create inserts a new recurrence definition
func (r *PostgreSQLDefinitionRepository) Create(ctx context.Context, definition *domain.Definition) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO recurrence_definitions
			  (id, order_id, customer_id, merchant_id, frequency, start_date, end_date, max_occurrences,
			   occurrence_count, next_occurrence_at, is_active, last_processed_at, deactivated_at,
			   created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

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
func (r *PostgreSQLDefinitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Definition, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, customer_id, merchant_id, frequency, start_date, end_date,
			  max_occurrences, occurrence_count, next_occurrence_at, is_active, last_processed_at,
			  deactivated_at, created_at, updated_at
			  FROM recurrence_definitions WHERE id = $1`

	definition, err := scanDefinition(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDefinitionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get recurrence definition by id")
	}
	return definition, nil
}

// FindDue retrieves active definitions due as of now, oldest first.
// Single-flight is guaranteed by the scheduler lock, not by row locking.
func (r *PostgreSQLDefinitionRepository) FindDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.Definition, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, customer_id, merchant_id, frequency, start_date, end_date,
			  max_occurrences, occurrence_count, next_occurrence_at, is_active, last_processed_at,
			  deactivated_at, created_at, updated_at
			  FROM recurrence_definitions
			  WHERE is_active = TRUE AND next_occurrence_at <= $1
			  ORDER BY next_occurrence_at ASC
			  LIMIT $2`

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
func (r *PostgreSQLDefinitionRepository) Update(ctx context.Context, definition *domain.Definition) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE recurrence_definitions
			  SET occurrence_count = $2, next_occurrence_at = $3, is_active = $4,
			      last_processed_at = $5, deactivated_at = $6, updated_at = $7
			  WHERE id = $1`

	result, err := querier.ExecContext(ctx, query,
		definition.ID, definition.OccurrenceCount, definition.NextOccurrenceAt, definition.IsActive,
		definition.LastProcessedAt, definition.DeactivatedAt, definition.UpdatedAt,
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

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*domain.Definition, error) {
	var definition domain.Definition
	err := row.Scan(
		&definition.ID, &definition.OrderID, &definition.CustomerID, &definition.MerchantID,
		&definition.Frequency, &definition.StartDate, &definition.EndDate, &definition.MaxOccurrences,
		&definition.OccurrenceCount, &definition.NextOccurrenceAt, &definition.IsActive,
		&definition.LastProcessedAt, &definition.DeactivatedAt, &definition.CreatedAt, &definition.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &definition, nil
}
