// Package testutil provides a real PostgreSQL database for integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/infrastructure/postgres"
	"github.com/iho/masspay/internal/infrastructure/postgres/generated"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool    *pgxpool.Pool
	Queries *generated.Queries
	URL     string
	t       *testing.T
}

// NewTestDB connects to DATABASE_URL and applies migrations.
// The test is skipped when DATABASE_URL is unset or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := postgres.RunMigrations(dbURL, MigrationsPath(), zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{DatabaseURL: dbURL, MaxConns: 20})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	return &TestDB{
		Pool:    pool,
		Queries: generated.New(pool),
		URL:     dbURL,
		t:       t,
	}
}

// MigrationsPath locates the migrations directory relative to this file.
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "infrastructure", "postgres", "migrations")
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE outbox_events, group_recipients, recipient_groups,
			mass_payment_items, transactions, mass_payments,
			bank_providers, accounts, parties CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateParty inserts a party with the given phone number.
func (db *TestDB) CreateParty(ctx context.Context, phone, firstName, lastName string) *domain.Party {
	db.t.Helper()

	now := time.Now().UTC()
	row, err := db.Queries.CreateParty(ctx, generated.CreatePartyParams{
		ID:          GenerateID(),
		PhoneNumber: phone,
		FirstName:   firstName,
		LastName:    lastName,
		CreatedAt:   pgtype.Timestamptz{Time: now, Valid: true},
	})
	if err != nil {
		db.t.Fatalf("failed to create test party: %v", err)
	}

	return &domain.Party{
		ID:          row.ID,
		PhoneNumber: row.PhoneNumber,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		CreatedAt:   now,
	}
}

// CreateAccountWithBalance inserts an active account for the party.
func (db *TestDB) CreateAccountWithBalance(ctx context.Context, partyID, number, bankCode string, balance decimal.Decimal) *domain.Account {
	db.t.Helper()

	now := time.Now().UTC()

	var numericBalance pgtype.Numeric

	_ = numericBalance.Scan(balance.String())

	ts := pgtype.Timestamptz{Time: now, Valid: true}

	row, err := db.Queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:            GenerateID(),
		AccountNumber: number,
		PartyID:       partyID,
		BankCode:      bankCode,
		Balance:       numericBalance,
		IsActive:      true,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	})
	if err != nil {
		db.t.Fatalf("failed to create test account: %v", err)
	}

	return &domain.Account{
		ID:        row.ID,
		Number:    row.AccountNumber,
		PartyID:   partyID,
		BankCode:  bankCode,
		Balance:   balance,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateBankProvider inserts an active provider.
func (db *TestDB) CreateBankProvider(ctx context.Context, bankCode, name string) {
	db.t.Helper()

	_, err := db.Queries.UpsertBankProvider(ctx, generated.UpsertBankProviderParams{
		ID:        GenerateID(),
		BankCode:  bankCode,
		Name:      name,
		IsActive:  true,
		CreatedAt: pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
	})
	if err != nil {
		db.t.Fatalf("failed to create bank provider: %v", err)
	}
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
