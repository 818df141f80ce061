package redis

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

type cachedProvider struct {
	ID          string    `json:"id"`
	BankCode    string    `json:"bank_code"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"is_active"`
	APIEndpoint string    `json:"api_endpoint"`
	CreatedAt   time.Time `json:"created_at"`
}

// CachedBankProviderRepository serves provider lookups from Redis and falls back to the
// wrapped repository. Unknown bank codes are not cached. Cache failures are logged and
// never fail a lookup.
type CachedBankProviderRepository struct {
	next   usecase.BankProviderRepository
	cache  *Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedBankProviderRepository(next usecase.BankProviderRepository, cache *Cache, ttl time.Duration, logger zerolog.Logger) *CachedBankProviderRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedBankProviderRepository{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (r *CachedBankProviderRepository) Create(ctx context.Context, provider *domain.BankProvider) error {
	if err := r.next.Create(ctx, provider); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, provider.BankCode); err != nil {
		r.logger.Warn().Err(err).Str("bank_code", provider.BankCode).Msg("failed to evict bank provider")
	}
	return nil
}

func (r *CachedBankProviderRepository) GetByCode(ctx context.Context, bankCode string) (*domain.BankProvider, error) {
	var cached cachedProvider
	err := r.cache.GetJSON(ctx, bankCode, &cached)
	if err == nil {
		return &domain.BankProvider{
			ID:          cached.ID,
			BankCode:    cached.BankCode,
			Name:        cached.Name,
			IsActive:    cached.IsActive,
			APIEndpoint: cached.APIEndpoint,
			CreatedAt:   cached.CreatedAt,
		}, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.logger.Warn().Err(err).Str("bank_code", bankCode).Msg("bank provider cache read failed")
	}

	provider, err := r.next.GetByCode(ctx, bankCode)
	if err != nil {
		return nil, err
	}

	err = r.cache.SetJSON(ctx, bankCode, cachedProvider{
		ID:          provider.ID,
		BankCode:    provider.BankCode,
		Name:        provider.Name,
		IsActive:    provider.IsActive,
		APIEndpoint: provider.APIEndpoint,
		CreatedAt:   provider.CreatedAt,
	}, r.ttl)
	if err != nil {
		r.logger.Warn().Err(err).Str("bank_code", bankCode).Msg("bank provider cache write failed")
	}

	return provider, nil
}
