package lock

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
)

type mockConn struct {
	mock     pgxmock.PgxConnIface
	released int
}

func (c *mockConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.mock.QueryRow(ctx, sql, args...)
}

func (c *mockConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.mock.Exec(ctx, sql, args...)
}

func (c *mockConn) Release() { c.released++ }

func newLockerWithMock(t *testing.T) (*PostgresRunLocker, pgxmock.PgxConnIface, *mockConn) {
	t.Helper()

	mock, err := pgxmock.NewConn(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create pgxmock conn: %v", err)
	}
	t.Cleanup(func() { _ = mock.Close(context.Background()) })

	conn := &mockConn{mock: mock}
	locker := newPostgresRunLocker(func(context.Context) (lockConn, error) {
		return conn, nil
	}, zerolog.Nop())

	return locker, mock, conn
}

func TestPostgresRunLockerAcquireAndRelease(t *testing.T) {
	locker, mock, conn := newLockerWithMock(t)

	mock.ExpectQuery(tryAdvisoryLockSQL).
		WithArgs("mass_payment:mp-1").
		WillReturnRows(pgxmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec(advisoryUnlockSQL).
		WithArgs("mass_payment:mp-1").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	release, acquired, err := locker.TryAcquire(context.Background(), "mass_payment:mp-1")
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if !acquired {
		t.Fatal("expected lock to be acquired")
	}
	if conn.released != 0 {
		t.Fatal("connection released while lock is held")
	}

	release()
	release()

	if conn.released != 1 {
		t.Fatalf("released = %d, want 1", conn.released)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}

func TestPostgresRunLockerHeldElsewhere(t *testing.T) {
	locker, mock, conn := newLockerWithMock(t)

	mock.ExpectQuery(tryAdvisoryLockSQL).
		WithArgs("recipient_group:g-1").
		WillReturnRows(pgxmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	release, acquired, err := locker.TryAcquire(context.Background(), "recipient_group:g-1")
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if acquired || release != nil {
		t.Fatal("expected lock to be refused")
	}
	if conn.released != 1 {
		t.Fatalf("released = %d, want 1", conn.released)
	}
}

func TestPostgresRunLockerQueryError(t *testing.T) {
	locker, mock, conn := newLockerWithMock(t)

	queryErr := errors.New("connection reset")
	mock.ExpectQuery(tryAdvisoryLockSQL).WithArgs("k").WillReturnError(queryErr)

	_, acquired, err := locker.TryAcquire(context.Background(), "k")
	if !errors.Is(err, queryErr) {
		t.Fatalf("error = %v, want %v", err, queryErr)
	}
	if acquired {
		t.Fatal("expected acquired = false")
	}
	if conn.released != 1 {
		t.Fatalf("released = %d, want 1", conn.released)
	}
}

func TestPostgresRunLockerAcquireConnError(t *testing.T) {
	acquireErr := errors.New("pool exhausted")
	locker := newPostgresRunLocker(func(context.Context) (lockConn, error) {
		return nil, acquireErr
	}, zerolog.Nop())

	_, _, err := locker.TryAcquire(context.Background(), "k")
	if !errors.Is(err, acquireErr) {
		t.Fatalf("error = %v, want %v", err, acquireErr)
	}
}
