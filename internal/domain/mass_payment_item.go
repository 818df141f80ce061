package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus is the lifecycle state of a single payment in a batch.
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusProcessing ItemStatus = "processing"
	ItemStatusSuccess    ItemStatus = "success"
	ItemStatusFailed     ItemStatus = "failed"
)

// IsTerminal reports whether the item has reached success or failed.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusSuccess || s == ItemStatusFailed
}

// CanTransitionTo enforces pending -> processing -> {success | failed}.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	switch s {
	case ItemStatusPending:
		return next == ItemStatusProcessing
	case ItemStatusProcessing:
		return next == ItemStatusSuccess || next == ItemStatusFailed
	}
	return false
}

// MassPaymentItem is one payment instruction inside a mass payment.
type MassPaymentItem struct {
	ID                   string
	MassPaymentID        string
	Position             int
	DestinationPhone     string
	DestinationBankCode  string
	DestinationAccountID *string
	Amount               decimal.Decimal
	FeeAmount            decimal.Decimal
	Status               ItemStatus
	TransactionID        *string
	FailureReason        *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Total is the amount debited from the initiator for this item.
func (i *MassPaymentItem) Total() decimal.Decimal {
	return i.Amount.Add(i.FeeAmount)
}

// Succeed marks the item successful and links the log entry.
func (i *MassPaymentItem) Succeed(transactionID string, destinationAccountID *string, at time.Time) {
	i.Status = ItemStatusSuccess
	i.TransactionID = &transactionID
	i.DestinationAccountID = destinationAccountID
	i.FailureReason = nil
	i.UpdatedAt = at
}

// Fail marks the item failed with reason.
func (i *MassPaymentItem) Fail(reason string, at time.Time) {
	i.Status = ItemStatusFailed
	i.FailureReason = &reason
	i.UpdatedAt = at
}
