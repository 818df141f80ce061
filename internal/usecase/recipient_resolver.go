package usecase

import (
	"context"
	"errors"

	"github.com/iho/masspay/internal/domain"
)

// RecipientResolver maps a phone number and bank code to a ledger account.
// It is the single lookup path for batch creation, group validation and item routing.
type RecipientResolver struct {
	partyRepo   PartyRepository
	accountRepo AccountRepository
}

// NewRecipientResolver creates a new RecipientResolver.
func NewRecipientResolver(partyRepo PartyRepository, accountRepo AccountRepository) *RecipientResolver {
	return &RecipientResolver{
		partyRepo:   partyRepo,
		accountRepo: accountRepo,
	}
}

// RecipientValidation is the outcome of validating a recipient.
type RecipientValidation struct {
	Exists        bool
	FullName      string
	AccountNumber string
	Error         string
}

// Resolve returns the party and its active account at bankCode.
// It fails with domain.ErrPartyNotFound or domain.ErrAccountNotFound when the recipient is unknown.
func (r *RecipientResolver) Resolve(ctx context.Context, phone, bankCode string) (*domain.Party, *domain.Account, error) {
	party, err := r.partyRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, nil, err
	}

	account, err := r.accountRepo.FindActiveByPartyAndBank(ctx, party.ID, bankCode)
	if err != nil {
		return party, nil, err
	}

	return party, account, nil
}

// Validate reports whether the recipient resolves to an active account.
// Unknown recipients are not an error; storage failures are.
func (r *RecipientResolver) Validate(ctx context.Context, phone, bankCode string) (*RecipientValidation, error) {
	party, account, err := r.Resolve(ctx, phone, bankCode)
	switch {
	case errors.Is(err, domain.ErrPartyNotFound):
		return &RecipientValidation{Error: domain.ReasonPartyNotFound}, nil
	case errors.Is(err, domain.ErrAccountNotFound):
		return &RecipientValidation{Error: domain.ReasonNoActiveAccount}, nil
	case err != nil:
		return nil, err
	}

	return &RecipientValidation{
		Exists:        true,
		FullName:      party.FullName(),
		AccountNumber: account.Number,
	}, nil
}

// IsUnresolved reports whether err means the recipient has no account in the ledger.
func IsUnresolved(err error) bool {
	return errors.Is(err, domain.ErrPartyNotFound) || errors.Is(err, domain.ErrAccountNotFound)
}
