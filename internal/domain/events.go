package domain

import "time"

// Event types
const (
	EventTypeMassPaymentCreated  = "mass_payment.created"
	EventTypeMassPaymentFinished = "mass_payment.finished"
	EventTypeGroupCreated        = "recipient_group.created"
	EventTypeGroupFinished       = "recipient_group.finished"
)

// Aggregate types
const (
	AggregateTypeMassPayment = "mass_payment"
	AggregateTypeGroup       = "recipient_group"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// MassPaymentCreatedEvent payload
type MassPaymentCreatedEvent struct {
	MassPaymentID      string `json:"mass_payment_id"`
	ReferenceCode      string `json:"reference_code"`
	InitiatorAccountID string `json:"initiator_account_id"`
	TotalAmount        string `json:"total_amount"`
	FeeAmount          string `json:"fee_amount"`
	ItemCount          int    `json:"item_count"`
}

// MassPaymentFinishedEvent payload
type MassPaymentFinishedEvent struct {
	MassPaymentID string `json:"mass_payment_id"`
	Status        string `json:"status"`
	SuccessCount  int    `json:"success_count"`
	FailureCount  int    `json:"failure_count"`
}

// GroupCreatedEvent payload
type GroupCreatedEvent struct {
	GroupID        string `json:"group_id"`
	Name           string `json:"name"`
	RecipientCount int    `json:"recipient_count"`
}

// GroupFinishedEvent payload
type GroupFinishedEvent struct {
	GroupID     string `json:"group_id"`
	Status      string `json:"status"`
	FailedCount int    `json:"failed_count"`
}

// NewOutboxEvent builds an unpublished event from a payload struct.
func NewOutboxEvent(id, aggregateType, aggregateID, eventType string, payload map[string]any, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}

// Payload converts the event into the generic outbox payload.
func (e MassPaymentCreatedEvent) Payload() map[string]any {
	return map[string]any{
		"mass_payment_id":      e.MassPaymentID,
		"reference_code":       e.ReferenceCode,
		"initiator_account_id": e.InitiatorAccountID,
		"total_amount":         e.TotalAmount,
		"fee_amount":           e.FeeAmount,
		"item_count":           e.ItemCount,
	}
}

// Payload converts the event into the generic outbox payload.
func (e MassPaymentFinishedEvent) Payload() map[string]any {
	return map[string]any{
		"mass_payment_id": e.MassPaymentID,
		"status":          e.Status,
		"success_count":   e.SuccessCount,
		"failure_count":   e.FailureCount,
	}
}

// Payload converts the event into the generic outbox payload.
func (e GroupCreatedEvent) Payload() map[string]any {
	return map[string]any{
		"group_id":        e.GroupID,
		"name":            e.Name,
		"recipient_count": e.RecipientCount,
	}
}

// Payload converts the event into the generic outbox payload.
func (e GroupFinishedEvent) Payload() map[string]any {
	return map[string]any{
		"group_id":     e.GroupID,
		"status":       e.Status,
		"failed_count": e.FailedCount,
	}
}
