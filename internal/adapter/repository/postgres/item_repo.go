package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/infrastructure/postgres/generated"
	"github.com/iho/masspay/internal/usecase"
)

// MassPaymentItemRepository implements usecase.MassPaymentItemRepository.
type MassPaymentItemRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewMassPaymentItemRepository creates a new MassPaymentItemRepository.
func NewMassPaymentItemRepository(pool *pgxpool.Pool) *MassPaymentItemRepository {
	return &MassPaymentItemRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create creates a new item within a transaction.
func (r *MassPaymentItemRepository) Create(ctx context.Context, tx usecase.Transaction, item *domain.MassPaymentItem) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	_, err := queries.CreateMassPaymentItem(ctx, generated.CreateMassPaymentItemParams{
		ID:                   item.ID,
		MassPaymentID:        item.MassPaymentID,
		Position:             int32(item.Position),
		DestinationPhone:     item.DestinationPhone,
		DestinationBankCode:  item.DestinationBankCode,
		DestinationAccountID: stringPtrToText(item.DestinationAccountID),
		Amount:               decimalToNumeric(item.Amount),
		FeeAmount:            decimalToNumeric(item.FeeAmount),
		Status:               string(item.Status),
		TransactionID:        stringPtrToText(item.TransactionID),
		FailureReason:        stringPtrToText(item.FailureReason),
		CreatedAt:            timeToPgTimestamptz(item.CreatedAt),
		UpdatedAt:            timeToPgTimestamptz(item.UpdatedAt),
	})

	return err
}

// ListByMassPayment lists all items of a batch by position.
func (r *MassPaymentItemRepository) ListByMassPayment(ctx context.Context, massPaymentID string) ([]*domain.MassPaymentItem, error) {
	rows, err := r.queries.ListItemsByMassPayment(ctx, massPaymentID)
	if err != nil {
		return nil, err
	}

	return rowsToItems(rows), nil
}

// ListPending lists the pending items of a batch by position.
func (r *MassPaymentItemRepository) ListPending(ctx context.Context, massPaymentID string) ([]*domain.MassPaymentItem, error) {
	rows, err := r.queries.ListPendingItems(ctx, massPaymentID)
	if err != nil {
		return nil, err
	}

	return rowsToItems(rows), nil
}

// MarkProcessing claims a pending item. It runs outside the item transaction
// so the claim survives a rollback of the transfer.
func (r *MassPaymentItemRepository) MarkProcessing(ctx context.Context, id string, updatedAt time.Time) (bool, error) {
	n, err := r.queries.MarkItemProcessing(ctx, generated.MarkItemProcessingParams{
		ID:        id,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// Finish writes the terminal state of a processing item.
func (r *MassPaymentItemRepository) Finish(ctx context.Context, tx usecase.Transaction, item *domain.MassPaymentItem) error {
	if !domain.ItemStatusProcessing.CanTransitionTo(item.Status) {
		return fmt.Errorf("%w: processing -> %s", domain.ErrInvalidStatusTransition, item.Status)
	}

	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	n, err := queries.FinishItem(ctx, generated.FinishItemParams{
		ID:                   item.ID,
		Status:               string(item.Status),
		DestinationAccountID: stringPtrToText(item.DestinationAccountID),
		TransactionID:        stringPtrToText(item.TransactionID),
		FailureReason:        stringPtrToText(item.FailureReason),
		UpdatedAt:            timeToPgTimestamptz(item.UpdatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: item %s is not processing", domain.ErrInvalidStatusTransition, item.ID)
	}

	return nil
}

// ListStuck lists items left in processing since before.
func (r *MassPaymentItemRepository) ListStuck(ctx context.Context, before time.Time, limit int) ([]*domain.MassPaymentItem, error) {
	rows, err := r.queries.ListStuckItems(ctx, generated.ListStuckItemsParams{
		UpdatedAt: timeToPgTimestamptz(before),
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToItems(rows), nil
}

// FailStuck fails an item that is still processing since before.
func (r *MassPaymentItemRepository) FailStuck(ctx context.Context, tx usecase.Transaction, id, reason string, before, updatedAt time.Time) (bool, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	n, err := queries.FailStuckItem(ctx, generated.FailStuckItemParams{
		ID:            id,
		FailureReason: pgtype.Text{String: reason, Valid: true},
		Before:        timeToPgTimestamptz(before),
		UpdatedAt:     timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// CountByStatus counts the items of a batch per status.
func (r *MassPaymentItemRepository) CountByStatus(ctx context.Context, massPaymentID string) (map[domain.ItemStatus]int, error) {
	rows, err := r.queries.CountItemsByStatus(ctx, massPaymentID)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.ItemStatus]int, len(rows))
	for _, row := range rows {
		counts[domain.ItemStatus(row.Status)] = int(row.Count)
	}

	return counts, nil
}

func rowsToItems(rows []generated.MassPaymentItem) []*domain.MassPaymentItem {
	items := make([]*domain.MassPaymentItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToItem(row))
	}

	return items
}

func rowToItem(row generated.MassPaymentItem) *domain.MassPaymentItem {
	return &domain.MassPaymentItem{
		ID:                   row.ID,
		MassPaymentID:        row.MassPaymentID,
		Position:             int(row.Position),
		DestinationPhone:     row.DestinationPhone,
		DestinationBankCode:  row.DestinationBankCode,
		DestinationAccountID: textToStringPtr(row.DestinationAccountID),
		Amount:               numericToDecimal(row.Amount),
		FeeAmount:            numericToDecimal(row.FeeAmount),
		Status:               domain.ItemStatus(row.Status),
		TransactionID:        textToStringPtr(row.TransactionID),
		FailureReason:        textToStringPtr(row.FailureReason),
		CreatedAt:            row.CreatedAt.Time,
		UpdatedAt:            row.UpdatedAt.Time,
	}
}
