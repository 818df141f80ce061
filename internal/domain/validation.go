package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidPhoneNumber   = errors.New("invalid phone number")
	ErrInvalidBankCode      = errors.New("invalid bank code")
	ErrInvalidReferenceCode = errors.New("invalid reference code")
	ErrInvalidGroupName     = errors.New("invalid group name")
	ErrAmountTooLarge       = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall       = errors.New("amount below minimum allowed")
	ErrTooManyRecipients    = errors.New("too many recipients")
)

// Validation constants
const (
	MaxPhoneNumberLength   = 20
	MaxBankCodeLength      = 10
	MaxReferenceCodeLength = 50
	MaxGroupNameLength     = 100
	MaxDescriptionLength   = 1000
	MaxRecipientsPerBatch  = 10000
	MaxTransferAmount      = "9999999999999.99"
	MinTransferAmount      = "0.01"
	AmountScale            = 2
)

var (
	phoneRegex     = regexp.MustCompile(`^\+?[0-9]{6,20}$`)
	bankCodeRegex  = regexp.MustCompile(`^[A-Z0-9_]{2,10}$`)
	referenceRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)
)

// ValidatePhoneNumber validates a destination phone number.
func ValidatePhoneNumber(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("%w: phone number cannot be empty", ErrInvalidPhoneNumber)
	}
	if len(phone) > MaxPhoneNumberLength || !phoneRegex.MatchString(phone) {
		return fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, phone)
	}
	return nil
}

// ValidateBankCode validates a bank code such as SEDAD.
func ValidateBankCode(code string) error {
	if !bankCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrInvalidBankCode, code)
	}
	return nil
}

// ValidateReferenceCode validates a client supplied batch reference.
func ValidateReferenceCode(ref string) error {
	if !referenceRegex.MatchString(ref) {
		return fmt.Errorf("%w: must be 1-%d letters, digits, '-' or '_'", ErrInvalidReferenceCode, MaxReferenceCodeLength)
	}
	return nil
}

// ValidateGroupName validates a recipient group name.
func ValidateGroupName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidGroupName)
	}
	if len(name) > MaxGroupNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidGroupName, MaxGroupNameLength)
	}
	return nil
}

// ValidateAmount validates a payment amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, AmountScale)
	}

	minAmount, _ := decimal.NewFromString(MinTransferAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinTransferAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxTransferAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
