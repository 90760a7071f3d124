package repository

import (
	"context"
	"database/sql"
	"sync"

	apperrors "github.com/allisson/marketplace/internal/errors"
)

// mysqlSchedulerLockName is the named lock shared by all scheduler instances.
const mysqlSchedulerLockName = "marketplace_recurrence_scheduler"

// MySQLSchedulerLock serializes scheduler passes across processes using a
// MySQL named lock. Named locks are session scoped, so the lock pins a
// dedicated connection for as long as it is held.
type MySQLSchedulerLock struct {
	db   *sql.DB
	mu   sync.Mutex
	conn *sql.Conn
}

// NewMySQLSchedulerLock creates a new MySQLSchedulerLock
func NewMySQLSchedulerLock(db *sql.DB) *MySQLSchedulerLock {
	return &MySQLSchedulerLock{
		db: db,
	}
}

// TryAcquire attempts to take the scheduler lock without blocking.
// It returns false when another instance already holds it.
func (l *MySQLSchedulerLock) TryAcquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		return false, apperrors.New("scheduler lock already held by this instance")
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to open lock connection")
	}

	var acquired sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, 0)`, mysqlSchedulerLockName).Scan(&acquired); err != nil {
		conn.Close() //nolint:errcheck
		return false, apperrors.Wrap(err, "failed to acquire scheduler lock")
	}
	if !acquired.Valid || acquired.Int64 != 1 {
		conn.Close() //nolint:errcheck
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Release releases the scheduler lock and frees its connection
func (l *MySQLSchedulerLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return nil
	}

	var released sql.NullInt64
	err := l.conn.QueryRowContext(ctx, `SELECT RELEASE_LOCK(?)`, mysqlSchedulerLockName).Scan(&released)
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
