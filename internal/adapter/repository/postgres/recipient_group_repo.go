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

// RecipientGroupRepository implements usecase.RecipientGroupRepository.
type RecipientGroupRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewRecipientGroupRepository creates a new RecipientGroupRepository.
func NewRecipientGroupRepository(pool *pgxpool.Pool) *RecipientGroupRepository {
	return &RecipientGroupRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create creates a new group within a transaction.
func (r *RecipientGroupRepository) Create(ctx context.Context, tx usecase.Transaction, group *domain.RecipientGroup) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	_, err := queries.CreateRecipientGroup(ctx, generated.CreateRecipientGroupParams{
		ID:           group.ID,
		Name:         group.Name,
		OwnerPartyID: group.OwnerPartyID,
		IsActive:     group.IsActive,
		Status:       string(group.Status),
		CreatedAt:    timeToPgTimestamptz(group.CreatedAt),
		UpdatedAt:    timeToPgTimestamptz(group.UpdatedAt),
	})

	return err
}

// GetByID retrieves a group by ID.
func (r *RecipientGroupRepository) GetByID(ctx context.Context, id string) (*domain.RecipientGroup, error) {
	row, err := r.queries.GetRecipientGroupByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}

		return nil, err
	}

	return rowToGroup(row), nil
}

// UpdateStatus sets the group status within a transaction.
func (r *RecipientGroupRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.BatchStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	n, err := queries.UpdateRecipientGroupStatus(ctx, generated.UpdateRecipientGroupStatusParams{
		ID:        id,
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrGroupNotFound
	}

	return nil
}

// ListStale lists active groups still pending or processing since before.
func (r *RecipientGroupRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]*domain.RecipientGroup, error) {
	rows, err := r.queries.ListStaleRecipientGroups(ctx, generated.ListStaleRecipientGroupsParams{
		UpdatedAt: timeToPgTimestamptz(before),
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	groups := make([]*domain.RecipientGroup, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, rowToGroup(row))
	}

	return groups, nil
}

func rowToGroup(row generated.RecipientGroup) *domain.RecipientGroup {
	return &domain.RecipientGroup{
		ID:           row.ID,
		Name:         row.Name,
		OwnerPartyID: row.OwnerPartyID,
		IsActive:     row.IsActive,
		Status:       domain.BatchStatus(row.Status),
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}
