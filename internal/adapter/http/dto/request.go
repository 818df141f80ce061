package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/masspay/internal/usecase"
)

// CreateMassPaymentRequest represents a request to create a mass payment.
type CreateMassPaymentRequest struct {
	InitiatorAccountNumber string             `json:"initiator_account_number"`
	Description            string             `json:"description,omitempty"`
	ReferenceCode          string             `json:"reference_code,omitempty"`
	Recipients             []RecipientRequest `json:"recipients"`
}

// RecipientRequest is one payment instruction.
type RecipientRequest struct {
	PhoneNumber string          `json:"phone_number"`
	BankCode    string          `json:"bank_code"`
	Amount      decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateMassPaymentRequest) ToUseCaseInput() usecase.CreateMassPaymentInput {
	recipients := make([]usecase.RecipientInput, len(r.Recipients))
	for i, rec := range r.Recipients {
		recipients[i] = usecase.RecipientInput{
			PhoneNumber: rec.PhoneNumber,
			BankCode:    rec.BankCode,
			Amount:      rec.Amount,
		}
	}

	return usecase.CreateMassPaymentInput{
		InitiatorAccountNumber: r.InitiatorAccountNumber,
		Description:            r.Description,
		ReferenceCode:          r.ReferenceCode,
		Recipients:             recipients,
	}
}

// CreateFromGroupRequest represents a request to pay the recipients of a group.
type CreateFromGroupRequest struct {
	InitiatorAccountNumber string `json:"initiator_account_number"`
	Description            string `json:"description,omitempty"`
	ReferenceCode          string `json:"reference_code,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateFromGroupRequest) ToUseCaseInput(groupID string) usecase.CreateFromGroupInput {
	return usecase.CreateFromGroupInput{
		GroupID:                groupID,
		InitiatorAccountNumber: r.InitiatorAccountNumber,
		Description:            r.Description,
		ReferenceCode:          r.ReferenceCode,
	}
}

// ValidateRecipientRequest represents a recipient lookup.
type ValidateRecipientRequest struct {
	PhoneNumber string `json:"phone_number"`
	BankCode    string `json:"bank_code"`
}

// CreateGroupRequest represents a request to create a recipient group.
type CreateGroupRequest struct {
	Name         string                  `json:"name"`
	OwnerPartyID string                  `json:"owner_party_id"`
	Recipients   []GroupRecipientRequest `json:"recipients,omitempty"`
}

// GroupRecipientRequest describes a group member.
type GroupRecipientRequest struct {
	PhoneNumber   string           `json:"phone_number"`
	BankCode      string           `json:"bank_code"`
	DefaultAmount *decimal.Decimal `json:"default_amount,omitempty"`
	Motive        string           `json:"motive,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *GroupRecipientRequest) ToUseCaseInput() usecase.GroupRecipientInput {
	return usecase.GroupRecipientInput{
		PhoneNumber:   r.PhoneNumber,
		BankCode:      r.BankCode,
		DefaultAmount: r.DefaultAmount,
		Motive:        r.Motive,
	}
}

// ToUseCaseInput converts to use case input.
func (r *CreateGroupRequest) ToUseCaseInput() usecase.CreateGroupInput {
	recipients := make([]usecase.GroupRecipientInput, len(r.Recipients))
	for i := range r.Recipients {
		recipients[i] = r.Recipients[i].ToUseCaseInput()
	}

	return usecase.CreateGroupInput{
		Name:         r.Name,
		OwnerPartyID: r.OwnerPartyID,
		Recipients:   recipients,
	}
}
