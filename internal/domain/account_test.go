package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name      string
		account   Account
		amount    decimal.Decimal
		expectErr error
	}{
		{
			name:    "debit less than balance",
			account: Account{Balance: decimal.NewFromInt(100), IsActive: true},
			amount:  decimal.NewFromInt(50),
		},
		{
			name:    "debit exact balance",
			account: Account{Balance: decimal.NewFromInt(100), IsActive: true},
			amount:  decimal.NewFromInt(100),
		},
		{
			name:      "debit more than balance",
			account:   Account{Balance: decimal.NewFromInt(100), IsActive: true},
			amount:    decimal.RequireFromString("100.01"),
			expectErr: ErrInsufficientFunds,
		},
		{
			name:      "inactive account",
			account:   Account{Balance: decimal.NewFromInt(100), IsActive: false},
			amount:    decimal.NewFromInt(1),
			expectErr: ErrAccountUnavailable,
		},
		{
			name:      "blocked account",
			account:   Account{Balance: decimal.NewFromInt(100), IsActive: true, IsBlocked: true},
			amount:    decimal.NewFromInt(1),
			expectErr: ErrAccountUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.ValidateDebit(tt.amount)
			if tt.expectErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.expectErr != nil && !errors.Is(err, tt.expectErr) {
				t.Fatalf("expected %v, got %v", tt.expectErr, err)
			}
		})
	}
}

func TestAccount_ApplyDebitAndCredit(t *testing.T) {
	account := &Account{Balance: decimal.RequireFromString("10000.00")}

	if got := account.ApplyDebit(decimal.RequireFromString("500.50")); !got.Equal(decimal.RequireFromString("9499.50")) {
		t.Errorf("expected 9499.50, got %s", got)
	}

	if got := account.ApplyCredit(decimal.RequireFromString("500.00")); !got.Equal(decimal.RequireFromString("10500.00")) {
		t.Errorf("expected 10500.00, got %s", got)
	}
}

func TestAccount_CanTransact(t *testing.T) {
	if !(&Account{IsActive: true}).CanTransact() {
		t.Error("active unblocked account should transact")
	}
	if (&Account{IsActive: true, IsBlocked: true}).CanTransact() {
		t.Error("blocked account should not transact")
	}
	if (&Account{}).CanTransact() {
		t.Error("inactive account should not transact")
	}
}
