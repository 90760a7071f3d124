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

// MySQLOccurrenceRepository records occurrence claims for MySQL
type MySQLOccurrenceRepository struct {
	db *sql.DB
}

// NewMySQLOccurrenceRepository creates a new MySQLOccurrenceRepository
func NewMySQLOccurrenceRepository(db *sql.DB) *MySQLOccurrenceRepository {
	return &MySQLOccurrenceRepository{
		db: db,
	}
}

// Record claims the (definition, due instant) pair
func (r *MySQLOccurrenceRepository) Record(ctx context.Context, definitionID uuid.UUID, dueAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO recurrence_occurrences (id, definition_id, due_at, created_at)
			  VALUES (?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, uuid.Must(uuid.NewV7()), definitionID, dueAt, time.Now())
	if err != nil {
		if isMySQLDuplicateEntry(err) {
			return domain.ErrOccurrenceProcessed
		}
		return apperrors.Wrap(err, "failed to record occurrence")
	}
	return nil
}

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate key violation
func isMySQLDuplicateEntry(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "error 1062")
}
