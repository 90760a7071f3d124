package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/marketplace/internal/database"
	"github.com/allisson/marketplace/internal/recurrence/domain"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// PostgreSQLOccurrenceRepository records occurrence claims for PostgreSQL.
// The unique index on (definition_id, due_at) is what makes materialization
// idempotent across scheduler runs and restarts.
type PostgreSQLOccurrenceRepository struct {
	db *sql.DB
}

// NewPostgreSQLOccurrenceRepository creates a new PostgreSQLOccurrenceRepository
func NewPostgreSQLOccurrenceRepository(db *sql.DB) *PostgreSQLOccurrenceRepository {
	return &PostgreSQLOccurrenceRepository{
		db: db,
	}
}

// Record claims the (definition, due instant) pair
func (r *PostgreSQLOccurrenceRepository) Record(ctx context.Context, definitionID uuid.UUID, dueAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO recurrence_occurrences (id, definition_id, due_at, created_at)
			  VALUES ($1, $2, $3, $4)`

	_, err := querier.ExecContext(ctx, query, uuid.Must(uuid.NewV7()), definitionID, dueAt, time.Now())
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrOccurrenceProcessed
		}
		return apperrors.Wrap(err, "failed to record occurrence")
	}
	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
