package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/infrastructure/postgres/generated"
	"github.com/iho/masspay/internal/usecase"
)

// TransactionLogRepository implements usecase.TransactionLogRepository.
type TransactionLogRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewTransactionLogRepository creates a new TransactionLogRepository.
func NewTransactionLogRepository(pool *pgxpool.Pool) *TransactionLogRepository {
	return &TransactionLogRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create appends a log entry within a transaction.
func (r *TransactionLogRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	_, err := queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:                   entry.ID,
		Type:                 string(entry.Type),
		Status:               string(entry.Status),
		Amount:               decimalToNumeric(entry.Amount),
		FeeAmount:            decimalToNumeric(entry.FeeAmount),
		SourceAccountID:      entry.SourceAccountID,
		DestinationAccountID: stringPtrToText(entry.DestinationAccountID),
		CreatedAt:            timeToPgTimestamptz(entry.CreatedAt),
		UpdatedAt:            timeToPgTimestamptz(entry.UpdatedAt),
	})

	return err
}

// GetByID retrieves a log entry by ID.
func (r *TransactionLogRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return &domain.Transaction{
		ID:                   row.ID,
		Type:                 domain.TransactionType(row.Type),
		Status:               domain.TransactionStatus(row.Status),
		Amount:               numericToDecimal(row.Amount),
		FeeAmount:            numericToDecimal(row.FeeAmount),
		SourceAccountID:      row.SourceAccountID,
		DestinationAccountID: textToStringPtr(row.DestinationAccountID),
		CreatedAt:            row.CreatedAt.Time,
		UpdatedAt:            row.UpdatedAt.Time,
	}, nil
}

// UpdateStatus sets the status of a log entry within a transaction.
func (r *TransactionLogRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	n, err := queries.UpdateTransactionStatus(ctx, generated.UpdateTransactionStatusParams{
		ID:        id,
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}
