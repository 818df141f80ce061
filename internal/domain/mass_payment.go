package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle state of a mass payment or recipient group.
type BatchStatus string

const (
	BatchStatusPending            BatchStatus = "pending"
	BatchStatusProcessing         BatchStatus = "processing"
	BatchStatusCompleted          BatchStatus = "completed"
	BatchStatusFailed             BatchStatus = "failed"
	BatchStatusPartiallyCompleted BatchStatus = "partially_completed"
)

// IsValid reports whether s is a known status.
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusProcessing, BatchStatusCompleted,
		BatchStatusFailed, BatchStatusPartiallyCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further processing can change the status.
func (s BatchStatus) IsTerminal() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusPartiallyCompleted:
		return true
	}
	return false
}

// MassPayment is a batch of payments fanned out from one initiator account.
type MassPayment struct {
	ID                 string
	ReferenceCode      string
	InitiatorAccountID string
	TotalAmount        decimal.Decimal
	FeeAmount          decimal.Decimal
	Description        string
	Status             BatchStatus
	PendingCount       int
	SuccessCount       int
	FailureCount       int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ItemCount is the number of items the batch was created with.
func (m *MassPayment) ItemCount() int {
	return m.PendingCount + m.SuccessCount + m.FailureCount
}

// RecordOutcome moves one item out of pending.
func (m *MassPayment) RecordOutcome(success bool) {
	m.PendingCount--
	if success {
		m.SuccessCount++
		return
	}
	m.FailureCount++
}

// FinalStatus computes the aggregate status once nothing is pending.
// The second return value is false while items are still pending.
func (m *MassPayment) FinalStatus() (BatchStatus, bool) {
	if m.PendingCount > 0 {
		return m.Status, false
	}

	switch {
	case m.FailureCount == 0:
		return BatchStatusCompleted, true
	case m.SuccessCount == 0:
		return BatchStatusFailed, true
	default:
		return BatchStatusPartiallyCompleted, true
	}
}
