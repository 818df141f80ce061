package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/infrastructure/postgres/generated"
)

// PartyRepository implements usecase.PartyRepository.
type PartyRepository struct {
	pool    *pgxpool.Pool
	queries *generated.Queries
}

// NewPartyRepository creates a new PartyRepository.
func NewPartyRepository(pool *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{
		pool:    pool,
		queries: generated.New(pool),
	}
}

// Create creates a new party.
func (r *PartyRepository) Create(ctx context.Context, party *domain.Party) error {
	_, err := r.queries.CreateParty(ctx, generated.CreatePartyParams{
		ID:          party.ID,
		PhoneNumber: party.PhoneNumber,
		FirstName:   party.FirstName,
		LastName:    party.LastName,
		CreatedAt:   timeToPgTimestamptz(party.CreatedAt),
	})

	return err
}

// GetByID retrieves a party by ID.
func (r *PartyRepository) GetByID(ctx context.Context, id string) (*domain.Party, error) {
	row, err := r.queries.GetPartyByID(ctx, id)
	if err != nil {
		return nil, partyErr(err)
	}

	return rowToParty(row), nil
}

// GetByPhone retrieves a party by phone number.
func (r *PartyRepository) GetByPhone(ctx context.Context, phone string) (*domain.Party, error) {
	row, err := r.queries.GetPartyByPhone(ctx, phone)
	if err != nil {
		return nil, partyErr(err)
	}

	return rowToParty(row), nil
}

func partyErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPartyNotFound
	}

	return err
}

func rowToParty(row generated.Party) *domain.Party {
	return &domain.Party{
		ID:          row.ID,
		PhoneNumber: row.PhoneNumber,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		CreatedAt:   row.CreatedAt.Time,
	}
}
