package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

// MassPaymentResponse represents a mass payment in API responses.
type MassPaymentResponse struct {
	ID                 string          `json:"id"`
	ReferenceCode      string          `json:"reference_code"`
	InitiatorAccountID string          `json:"initiator_account_id"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	FeeAmount          decimal.Decimal `json:"fee_amount"`
	Description        string          `json:"description,omitempty"`
	Status             string          `json:"status"`
	ItemCount          int             `json:"item_count"`
	PendingCount       int             `json:"pending_count"`
	SuccessCount       int             `json:"success_count"`
	FailureCount       int             `json:"failure_count"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// MassPaymentFromDomain converts a domain mass payment to response.
func MassPaymentFromDomain(m *domain.MassPayment) *MassPaymentResponse {
	return &MassPaymentResponse{
		ID:                 m.ID,
		ReferenceCode:      m.ReferenceCode,
		InitiatorAccountID: m.InitiatorAccountID,
		TotalAmount:        m.TotalAmount,
		FeeAmount:          m.FeeAmount,
		Description:        m.Description,
		Status:             string(m.Status),
		ItemCount:          m.ItemCount(),
		PendingCount:       m.PendingCount,
		SuccessCount:       m.SuccessCount,
		FailureCount:       m.FailureCount,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// MassPaymentsFromDomain converts domain mass payments to responses.
func MassPaymentsFromDomain(batches []*domain.MassPayment) []*MassPaymentResponse {
	result := make([]*MassPaymentResponse, len(batches))
	for i, b := range batches {
		result[i] = MassPaymentFromDomain(b)
	}
	return result
}

// MassPaymentSummaryResponse is returned when a mass payment is created.
type MassPaymentSummaryResponse struct {
	*MassPaymentResponse
	RecipientsCount         int       `json:"recipients_count"`
	ExternalRecipientsCount int       `json:"external_recipients_count"`
	EstimatedCompletionTime time.Time `json:"estimated_completion_time"`
	Queued                  bool      `json:"queued"`
}

// MassPaymentSummaryFromUseCase converts a creation summary to response.
func MassPaymentSummaryFromUseCase(s *usecase.MassPaymentSummary) *MassPaymentSummaryResponse {
	return &MassPaymentSummaryResponse{
		MassPaymentResponse:     MassPaymentFromDomain(s.MassPayment),
		RecipientsCount:         s.RecipientsCount,
		ExternalRecipientsCount: s.ExternalRecipientsCount,
		EstimatedCompletionTime: s.EstimatedCompletionTime,
		Queued:                  s.Queued,
	}
}

// MassPaymentItemResponse represents an item in API responses.
type MassPaymentItemResponse struct {
	ID                   string          `json:"id"`
	Position             int             `json:"position"`
	DestinationPhone     string          `json:"destination_phone"`
	DestinationBankCode  string          `json:"destination_bank_code"`
	BankName             string          `json:"bank_name"`
	DestinationAccountID *string         `json:"destination_account_id,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	FeeAmount            decimal.Decimal `json:"fee_amount"`
	Status               string          `json:"status"`
	TransactionID        *string         `json:"transaction_id,omitempty"`
	FailureReason        *string         `json:"failure_reason,omitempty"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// MassPaymentDetailResponse is a mass payment with its items.
type MassPaymentDetailResponse struct {
	*MassPaymentResponse
	Items []*MassPaymentItemResponse `json:"items"`
}

// MassPaymentDetailFromUseCase converts a detail view to response.
func MassPaymentDetailFromUseCase(d *usecase.MassPaymentDetail) *MassPaymentDetailResponse {
	items := make([]*MassPaymentItemResponse, len(d.Items))
	for i, it := range d.Items {
		bankName, ok := d.BankNames[it.DestinationBankCode]
		if !ok {
			bankName = domain.UnknownBankName
		}
		items[i] = &MassPaymentItemResponse{
			ID:                   it.ID,
			Position:             it.Position,
			DestinationPhone:     it.DestinationPhone,
			DestinationBankCode:  it.DestinationBankCode,
			BankName:             bankName,
			DestinationAccountID: it.DestinationAccountID,
			Amount:               it.Amount,
			FeeAmount:            it.FeeAmount,
			Status:               string(it.Status),
			TransactionID:        it.TransactionID,
			FailureReason:        it.FailureReason,
			UpdatedAt:            it.UpdatedAt,
		}
	}

	return &MassPaymentDetailResponse{
		MassPaymentResponse: MassPaymentFromDomain(d.MassPayment),
		Items:               items,
	}
}

// ConsistencyResponse reports whether batch counters match its items.
type ConsistencyResponse struct {
	MassPaymentID string         `json:"mass_payment_id"`
	Status        string         `json:"status"`
	Consistent    bool           `json:"consistent"`
	ItemCount     int            `json:"item_count"`
	PendingCount  int            `json:"pending_count"`
	SuccessCount  int            `json:"success_count"`
	FailureCount  int            `json:"failure_count"`
	ItemStatuses  map[string]int `json:"item_statuses"`
	Problems      []string       `json:"problems,omitempty"`
	CheckedAt     time.Time      `json:"checked_at"`
}

// ConsistencyFromUseCase converts a consistency report to response.
func ConsistencyFromUseCase(r *usecase.ConsistencyReport) *ConsistencyResponse {
	statuses := make(map[string]int, len(r.ItemStatuses))
	for status, n := range r.ItemStatuses {
		statuses[string(status)] = n
	}

	return &ConsistencyResponse{
		MassPaymentID: r.MassPaymentID,
		Status:        string(r.Status),
		Consistent:    r.Consistent(),
		ItemCount:     r.ItemCount,
		PendingCount:  r.PendingCount,
		SuccessCount:  r.SuccessCount,
		FailureCount:  r.FailureCount,
		ItemStatuses:  statuses,
		Problems:      r.Problems,
		CheckedAt:     r.CheckedAt,
	}
}

// RecipientValidationResponse is the outcome of a recipient lookup.
type RecipientValidationResponse struct {
	Exists        bool   `json:"exists"`
	FullName      string `json:"full_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	Error         string `json:"error,omitempty"`
}

// RecipientValidationFromUseCase converts a validation to response.
func RecipientValidationFromUseCase(v *usecase.RecipientValidation) *RecipientValidationResponse {
	return &RecipientValidationResponse{
		Exists:        v.Exists,
		FullName:      v.FullName,
		AccountNumber: v.AccountNumber,
		Error:         v.Error,
	}
}

// GroupResponse represents a recipient group in API responses.
type GroupResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OwnerPartyID string    `json:"owner_party_id"`
	IsActive     bool      `json:"is_active"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GroupFromDomain converts a domain group to response.
func GroupFromDomain(g *domain.RecipientGroup) *GroupResponse {
	return &GroupResponse{
		ID:           g.ID,
		Name:         g.Name,
		OwnerPartyID: g.OwnerPartyID,
		IsActive:     g.IsActive,
		Status:       string(g.Status),
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

// GroupRecipientResponse represents a group member in API responses.
type GroupRecipientResponse struct {
	ID            string           `json:"id"`
	PhoneNumber   string           `json:"phone_number"`
	BankCode      string           `json:"bank_code"`
	FullName      string           `json:"full_name,omitempty"`
	DefaultAmount *decimal.Decimal `json:"default_amount,omitempty"`
	Motive        string           `json:"motive,omitempty"`
	Status        string           `json:"status"`
	FailureReason *string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// GroupRecipientFromDomain converts a domain recipient to response.
func GroupRecipientFromDomain(r *domain.GroupRecipient) *GroupRecipientResponse {
	return &GroupRecipientResponse{
		ID:            r.ID,
		PhoneNumber:   r.PhoneNumber,
		BankCode:      r.BankCode,
		FullName:      r.FullName,
		DefaultAmount: r.DefaultAmount,
		Motive:        r.Motive,
		Status:        string(r.Status),
		FailureReason: r.FailureReason,
		CreatedAt:     r.CreatedAt,
	}
}

// GroupDetailResponse is a group with its recipients.
type GroupDetailResponse struct {
	*GroupResponse
	Recipients []*GroupRecipientResponse `json:"recipients"`
}

// GroupDetailFromUseCase converts a group detail to response.
func GroupDetailFromUseCase(d *usecase.GroupDetail) *GroupDetailResponse {
	recipients := make([]*GroupRecipientResponse, len(d.Recipients))
	for i, r := range d.Recipients {
		recipients[i] = GroupRecipientFromDomain(r)
	}
	return &GroupDetailResponse{GroupResponse: GroupFromDomain(d.Group), Recipients: recipients}
}

// CreateGroupResponse is returned when a group is created.
type CreateGroupResponse struct {
	*GroupResponse
	Queued bool `json:"queued"`
}

// FailedRecordResponse is a CSV row that could not be imported.
type FailedRecordResponse struct {
	Row         int    `json:"row"`
	PhoneNumber string `json:"phone_number"`
	Error       string `json:"error"`
}

// ImportSummaryResponse is the outcome of a CSV import.
type ImportSummaryResponse struct {
	Message           string                 `json:"message"`
	Status            string                 `json:"status"`
	SuccessfulCount   int                    `json:"successful_count"`
	TotalCount        int                    `json:"total_count"`
	SuccessPercentage float64                `json:"success_percentage"`
	FailedRecords     []FailedRecordResponse `json:"failed_records"`
}

// ImportSummaryFromUseCase converts an import summary to response.
func ImportSummaryFromUseCase(s *usecase.ImportSummary) *ImportSummaryResponse {
	failed := make([]FailedRecordResponse, len(s.FailedRecords))
	for i, f := range s.FailedRecords {
		failed[i] = FailedRecordResponse{Row: f.Row, PhoneNumber: f.PhoneNumber, Error: f.Error}
	}

	return &ImportSummaryResponse{
		Message:           s.Message(),
		Status:            string(s.Status),
		SuccessfulCount:   s.SuccessfulCount,
		TotalCount:        s.TotalCount,
		SuccessPercentage: s.SuccessPercentage,
		FailedRecords:     failed,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
