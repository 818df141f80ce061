package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/infrastructure/postgres/generated"
)

// BankProviderRepository implements usecase.BankProviderRepository.
type BankProviderRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewBankProviderRepository creates a new BankProviderRepository.
func NewBankProviderRepository(pool *pgxpool.Pool) *BankProviderRepository {
	return &BankProviderRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create inserts a provider, or refreshes the existing one with the same bank code.
func (r *BankProviderRepository) Create(ctx context.Context, provider *domain.BankProvider) error {
	_, err := r.queries.UpsertBankProvider(ctx, generated.UpsertBankProviderParams{
		ID:          provider.ID,
		BankCode:    provider.BankCode,
		Name:        provider.Name,
		IsActive:    provider.IsActive,
		ApiEndpoint: provider.APIEndpoint,
		CreatedAt:   timeToPgTimestamptz(provider.CreatedAt),
	})

	return err
}

// GetByCode retrieves a provider by bank code.
func (r *BankProviderRepository) GetByCode(ctx context.Context, bankCode string) (*domain.BankProvider, error) {
	row, err := r.queries.GetBankProviderByCode(ctx, bankCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBankProviderNotFound
		}

		return nil, err
	}

	return &domain.BankProvider{
		ID:          row.ID,
		BankCode:    row.BankCode,
		Name:        row.Name,
		IsActive:    row.IsActive,
		APIEndpoint: row.ApiEndpoint,
		CreatedAt:   row.CreatedAt.Time,
	}, nil
}
