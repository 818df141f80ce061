package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a ledger account owned by a party.
type Account struct {
	ID        string
	Number    string
	PartyID   string
	BankCode  string
	Balance   decimal.Decimal
	IsActive  bool
	IsBlocked bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransact reports whether the account may take part in a transfer.
func (a *Account) CanTransact() bool {
	return a.IsActive && !a.IsBlocked
}

// HasFunds reports whether the balance covers amount.
func (a *Account) HasFunds(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if !a.CanTransact() {
		return ErrAccountUnavailable
	}
	if !a.HasFunds(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateCredit checks if account can be credited.
func (a *Account) ValidateCredit() error {
	if !a.CanTransact() {
		return ErrAccountUnavailable
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
