// Package lock implements usecase.RunLocker on PostgreSQL advisory locks and Redis.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	tryAdvisoryLockSQL = "SELECT pg_try_advisory_lock(hashtextextended($1, 0))"
	advisoryUnlockSQL  = "SELECT pg_advisory_unlock(hashtextextended($1, 0))"

	releaseTimeout = 5 * time.Second
)

// lockConn is the slice of *pgxpool.Conn the advisory locker needs.
type lockConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Release()
}

// PostgresRunLocker holds a session-level advisory lock on a dedicated
// connection for as long as a run lasts.
type PostgresRunLocker struct {
	acquire func(ctx context.Context) (lockConn, error)
	logger  zerolog.Logger
}

// NewPostgresRunLocker creates a locker that borrows connections from pool.
func NewPostgresRunLocker(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresRunLocker {
	return newPostgresRunLocker(func(ctx context.Context) (lockConn, error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}, logger)
}

func newPostgresRunLocker(acquire func(ctx context.Context) (lockConn, error), logger zerolog.Logger) *PostgresRunLocker {
	return &PostgresRunLocker{
		acquire: acquire,
		logger:  logger.With().Str("component", "pg_run_locker").Logger(),
	}
}

// TryAcquire takes the advisory lock for key without waiting.
func (l *PostgresRunLocker) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	conn, err := l.acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock connection: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&locked); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock %q: %w", key, err)
	}
	if !locked {
		conn.Release()
		return nil, false, nil
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			if _, err := conn.Exec(ctx, advisoryUnlockSQL, key); err != nil {
				// A pooled session must not keep the lock; drop the connection instead.
				l.logger.Error().Err(err).Str("key", key).Msg("advisory unlock failed, closing connection")
				if hj, ok := conn.(interface{ Conn() *pgx.Conn }); ok {
					_ = hj.Conn().Close(ctx)
				}
			}
			conn.Release()
		})
	}

	return release, true, nil
}
