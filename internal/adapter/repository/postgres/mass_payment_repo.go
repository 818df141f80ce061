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

// MassPaymentRepository implements usecase.MassPaymentRepository.
type MassPaymentRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewMassPaymentRepository creates a new MassPaymentRepository.
func NewMassPaymentRepository(pool *pgxpool.Pool) *MassPaymentRepository {
	return &MassPaymentRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create creates a new mass payment within a transaction.
func (r *MassPaymentRepository) Create(ctx context.Context, tx usecase.Transaction, mp *domain.MassPayment) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	_, err := queries.CreateMassPayment(ctx, generated.CreateMassPaymentParams{
		ID:                 mp.ID,
		ReferenceCode:      mp.ReferenceCode,
		InitiatorAccountID: mp.InitiatorAccountID,
		TotalAmount:        decimalToNumeric(mp.TotalAmount),
		FeeAmount:          decimalToNumeric(mp.FeeAmount),
		Description:        mp.Description,
		Status:             string(mp.Status),
		PendingCount:       int32(mp.PendingCount),
		SuccessCount:       int32(mp.SuccessCount),
		FailureCount:       int32(mp.FailureCount),
		CreatedAt:          timeToPgTimestamptz(mp.CreatedAt),
		UpdatedAt:          timeToPgTimestamptz(mp.UpdatedAt),
	})
	if isUniqueViolation(err) {
		return domain.ErrDuplicateReference
	}

	return err
}

// GetByID retrieves a mass payment by ID.
func (r *MassPaymentRepository) GetByID(ctx context.Context, id string) (*domain.MassPayment, error) {
	row, err := r.queries.GetMassPaymentByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMassPaymentNotFound
		}

		return nil, err
	}

	return rowToMassPayment(row), nil
}

// ExistsByReference reports whether the reference code is taken.
func (r *MassPaymentRepository) ExistsByReference(ctx context.Context, referenceCode string) (bool, error) {
	return r.queries.MassPaymentReferenceExists(ctx, referenceCode)
}

// UpdateStatus sets the batch status within a transaction.
func (r *MassPaymentRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.BatchStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	n, err := queries.UpdateMassPaymentStatus(ctx, generated.UpdateMassPaymentStatusParams{
		ID:        id,
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMassPaymentNotFound
	}

	return nil
}

// RecordItemOutcome moves one item out of the pending counter.
func (r *MassPaymentRepository) RecordItemOutcome(ctx context.Context, tx usecase.Transaction, id string, success bool, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	n, err := queries.RecordMassPaymentItemOutcome(ctx, generated.RecordMassPaymentItemOutcomeParams{
		ID:        id,
		Success:   success,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the batch is gone or nothing was pending.
		return domain.ErrBatchInconsistent
	}

	return nil
}

// ListByInitiator lists batches of an initiator account, newest first.
func (r *MassPaymentRepository) ListByInitiator(ctx context.Context, accountID string, limit, offset int) ([]*domain.MassPayment, error) {
	rows, err := r.queries.ListMassPaymentsByInitiator(ctx, generated.ListMassPaymentsByInitiatorParams{
		InitiatorAccountID: accountID,
		Limit:              int32(limit),
		Offset:             int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToMassPayments(rows), nil
}

// ListStale lists batches in status untouched since before.
func (r *MassPaymentRepository) ListStale(ctx context.Context, status domain.BatchStatus, before time.Time, limit int) ([]*domain.MassPayment, error) {
	rows, err := r.queries.ListStaleMassPayments(ctx, generated.ListStaleMassPaymentsParams{
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(before),
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToMassPayments(rows), nil
}

func rowsToMassPayments(rows []generated.MassPayment) []*domain.MassPayment {
	batches := make([]*domain.MassPayment, 0, len(rows))
	for _, row := range rows {
		batches = append(batches, rowToMassPayment(row))
	}

	return batches
}

func rowToMassPayment(row generated.MassPayment) *domain.MassPayment {
	return &domain.MassPayment{
		ID:                 row.ID,
		ReferenceCode:      row.ReferenceCode,
		InitiatorAccountID: row.InitiatorAccountID,
		TotalAmount:        numericToDecimal(row.TotalAmount),
		FeeAmount:          numericToDecimal(row.FeeAmount),
		Description:        row.Description,
		Status:             domain.BatchStatus(row.Status),
		PendingCount:       int(row.PendingCount),
		SuccessCount:       int(row.SuccessCount),
		FailureCount:       int(row.FailureCount),
		CreatedAt:          row.CreatedAt.Time,
		UpdatedAt:          row.UpdatedAt.Time,
	}
}
