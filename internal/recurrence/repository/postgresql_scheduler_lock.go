package repository

import (
	"context"
	"database/sql"
	"sync"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// schedulerLockKey is the advisory lock key shared by all scheduler instances.
const schedulerLockKey = 4217001

// PostgreSQLSchedulerLock serializes scheduler passes across processes using
// a PostgreSQL advisory lock. Advisory locks are session scoped, so the lock
// pins a dedicated connection for as long as it is held.
type PostgreSQLSchedulerLock struct {
	db   *sql.DB
	mu   sync.Mutex
	conn *sql.Conn
}

// NewPostgreSQLSchedulerLock creates a new PostgreSQLSchedulerLock
func NewPostgreSQLSchedulerLock(db *sql.DB) *PostgreSQLSchedulerLock {
	return &PostgreSQLSchedulerLock{
		db: db,
	}
}

// TryAcquire attempts to take the scheduler lock without blocking.
// It returns false when another instance already holds it.
func (l *PostgreSQLSchedulerLock) TryAcquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		return false, apperrors.New("scheduler lock already held by this instance")
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to open lock connection")
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, schedulerLockKey).Scan(&acquired); err != nil {
		conn.Close() //nolint:errcheck
		return false, apperrors.Wrap(err, "failed to acquire scheduler lock")
	}
	if !acquired {
		conn.Close() //nolint:errcheck
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Release releases the scheduler lock and frees its connection
func (l *PostgreSQLSchedulerLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return nil
	}

	var released bool
	err := l.conn.QueryRowContext(ctx, `SELECT pg_advisory_unlock($1)`, schedulerLockKey).Scan(&released)
	closeErr := l.conn.Close()
	l.conn = nil

	if err != nil {
		return apperrors.Wrap(err, "failed to release scheduler lock")
	}
	if closeErr != nil {
		return apperrors.Wrap(closeErr, "failed to close lock connection")
	}
	return nil
}
