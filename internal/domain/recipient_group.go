package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecipientStatus is the validation state of a group recipient.
type RecipientStatus string

const (
	RecipientStatusPending   RecipientStatus = "pending"
	RecipientStatusValidated RecipientStatus = "validated"
	RecipientStatusFailed    RecipientStatus = "failed"
)

// RecipientGroup is a named, reusable list of payment recipients.
type RecipientGroup struct {
	ID           string
	Name         string
	OwnerPartyID string
	IsActive     bool
	Status       BatchStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GroupRecipient is a member of a recipient group.
type GroupRecipient struct {
	ID            string
	GroupID       string
	PhoneNumber   string
	BankCode      string
	FullName      string
	DefaultAmount *decimal.Decimal
	Motive        string
	Status        RecipientStatus
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate marks the recipient validated with the resolved name.
func (r *GroupRecipient) Validate(fullName string, at time.Time) {
	r.Status = RecipientStatusValidated
	r.FullName = fullName
	r.FailureReason = nil
	r.UpdatedAt = at
}

// Fail marks the recipient failed with reason.
func (r *GroupRecipient) Fail(reason string, at time.Time) {
	r.Status = RecipientStatusFailed
	r.FailureReason = &reason
	r.UpdatedAt = at
}

// GroupStatusFor derives the group status after a processing run.
// A group with no failed recipients, including an empty group, is completed.
func GroupStatusFor(failedCount int) BatchStatus {
	if failedCount == 0 {
		return BatchStatusCompleted
	}
	return BatchStatusPartiallyCompleted
}

// ImportStatusFor derives the group status after a bulk import.
func ImportStatusFor(successful, total int) BatchStatus {
	switch {
	case successful == total:
		return BatchStatusCompleted
	case successful > 0:
		return BatchStatusPartiallyCompleted
	default:
		return BatchStatusFailed
	}
}
