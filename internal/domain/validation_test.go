package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidatePhoneNumber(t *testing.T) {
	t.Parallel()

	valid := []string{"20593670", "+22236000000"}
	for _, phone := range valid {
		if err := ValidatePhoneNumber(phone); err != nil {
			t.Errorf("%q: expected no error, got %v", phone, err)
		}
	}

	invalid := []string{"", "   ", "12ab5678", strings.Repeat("1", MaxPhoneNumberLength+1)}
	for _, phone := range invalid {
		if err := ValidatePhoneNumber(phone); !errors.Is(err, ErrInvalidPhoneNumber) {
			t.Errorf("%q: expected ErrInvalidPhoneNumber, got %v", phone, err)
		}
	}
}

func TestValidateBankCode(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"SEDAD", "BIMBANK", "BANKILY"} {
		if err := ValidateBankCode(code); err != nil {
			t.Errorf("%q: unexpected error %v", code, err)
		}
	}

	for _, code := range []string{"", "sedad", "TOOLONGBANKCODE"} {
		if err := ValidateBankCode(code); !errors.Is(err, ErrInvalidBankCode) {
			t.Errorf("%q: expected ErrInvalidBankCode, got %v", code, err)
		}
	}
}

func TestValidateReferenceCode(t *testing.T) {
	t.Parallel()

	if err := ValidateReferenceCode("MP1A2B3C4D"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateReferenceCode("bad ref"); !errors.Is(err, ErrInvalidReferenceCode) {
		t.Fatalf("expected ErrInvalidReferenceCode, got %v", err)
	}
}

func TestValidateGroupName(t *testing.T) {
	t.Parallel()

	if err := ValidateGroupName("Payroll"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateGroupName("  "); !errors.Is(err, ErrInvalidGroupName) {
		t.Fatalf("expected ErrInvalidGroupName, got %v", err)
	}
	if err := ValidateGroupName(strings.Repeat("g", MaxGroupNameLength+1)); !errors.Is(err, ErrInvalidGroupName) {
		t.Fatalf("expected ErrInvalidGroupName, got %v", err)
	}
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount string
		err    error
	}{
		{name: "valid", amount: "500.00"},
		{name: "minimum", amount: "0.01"},
		{name: "zero", amount: "0", err: ErrInvalidAmount},
		{name: "negative", amount: "-5", err: ErrInvalidAmount},
		{name: "too precise", amount: "1.005", err: ErrInvalidAmount},
		{name: "too large", amount: "10000000000000", err: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.err == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset, err := ValidatePagination(0, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 50 || offset != 0 {
		t.Fatalf("expected defaults (50,0), got (%d,%d)", limit, offset)
	}

	limit, _, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Fatalf("expected limit capped at 1000, got %d", limit)
	}
}
