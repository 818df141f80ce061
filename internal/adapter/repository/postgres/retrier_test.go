package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	r := NewRetrier(zerolog.Nop())
	r.maxRetries = 2
	r.initialInterval = 1 * time.Millisecond
	r.maxInterval = 2 * time.Millisecond
	r.maxElapsedTime = 10 * time.Millisecond

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := NewRetrier(zerolog.Nop())
	attempts := 0
	permanentErr := errors.New("permanent")

	err := r.Retry(context.Background(), func() error {
		attempts++
		return permanentErr
	})

	if !errors.Is(err, permanentErr) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestIsRetryableError(t *testing.T) {
	retryableErr := &pgconn.PgError{Code: pgErrDeadlock}
	if !isRetryableError(retryableErr) {
		t.Fatalf("expected deadlock error to be retryable")
	}

	nonRetryable := errors.New("other")
	if isRetryableError(nonRetryable) {
		t.Fatalf("expected generic error to be non-retryable")
	}
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	r := NewRetrier(zerolog.Nop())
	r.maxRetries = 2
	r.initialInterval = time.Millisecond
	r.maxInterval = time.Millisecond

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: pgErrSerializationFailure}
	})

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrSerializationFailure {
		t.Fatalf("expected serialization failure, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestIsRetryableErrorCodes(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{pgErrDeadlock, true},
		{pgErrSerializationFailure, true},
		{pgErrLockNotAvailable, true},
		{pgErrTooManyConnections, true},
		{pgErrUniqueViolation, false},
		{"23514", false},
	}

	for _, tt := range tests {
		if got := isRetryableError(&pgconn.PgError{Code: tt.code}); got != tt.want {
			t.Errorf("isRetryableError(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

type safeToRetryErr struct{}

func (safeToRetryErr) Error() string     { return "dial failed" }
func (safeToRetryErr) SafeToRetry() bool { return true }

func TestRetryableCodeConnectionAndWrapped(t *testing.T) {
	if code, ok := retryableCode(safeToRetryErr{}); !ok || code != "connection" {
		t.Fatalf("expected connection error to be retryable, got %q %v", code, ok)
	}

	wrapped := fmt.Errorf("lock accounts: %w", &pgconn.PgError{Code: pgErrDeadlock})
	if code, ok := retryableCode(wrapped); !ok || code != pgErrDeadlock {
		t.Fatalf("expected wrapped deadlock to be retryable, got %q %v", code, ok)
	}
}

func TestNewRetrierWithConfigDefaults(t *testing.T) {
	r := NewRetrierWithConfig(RetrierConfig{MaxRetries: 7}, zerolog.Nop())
	defaults := DefaultRetrierConfig()

	if r.maxRetries != 7 {
		t.Fatalf("expected explicit MaxRetries kept, got %d", r.maxRetries)
	}
	if r.initialInterval != defaults.InitialInterval || r.maxInterval != defaults.MaxInterval || r.maxElapsedTime != defaults.MaxElapsedTime {
		t.Fatalf("expected zero fields to take defaults: %+v", r)
	}
}
