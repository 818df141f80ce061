package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultFeePerTransaction is charged to the initiator for every item.
	DefaultFeePerTransaction = "0.50"

	// EstimatedCompletionWindow is added to the creation time in batch summaries.
	EstimatedCompletionWindow = 30 * time.Minute

	// ReferencePrefix starts every generated mass payment reference.
	ReferencePrefix = "MP"

	// DefaultGroupValidationConcurrency bounds parallel recipient lookups per group run.
	DefaultGroupValidationConcurrency = 8

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)

// Run lock key prefixes.
const (
	massPaymentLockPrefix = "mass_payment:"
	groupLockPrefix       = "recipient_group:"
)

// MassPaymentLockKey is the run lock key of a mass payment.
func MassPaymentLockKey(id string) string {
	return massPaymentLockPrefix + id
}

// GroupLockKey is the run lock key of a recipient group.
func GroupLockKey(id string) string {
	return groupLockPrefix + id
}
