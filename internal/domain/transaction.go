package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a Transaction Log entry.
type TransactionType string

const (
	TransactionTypeTransfer TransactionType = "transfer"
)

// TransactionStatus is the state of a Transaction Log entry.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailure TransactionStatus = "failure"
)

// Transaction is an append-only record of an attempted money movement.
// DestinationAccountID is nil for external transfers.
type Transaction struct {
	ID                   string
	Type                 TransactionType
	Status               TransactionStatus
	Amount               decimal.Decimal
	FeeAmount            decimal.Decimal
	SourceAccountID      string
	DestinationAccountID *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsExternal reports whether the money left the ledger.
func (t *Transaction) IsExternal() bool {
	return t.DestinationAccountID == nil
}
