package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/masspay/internal/adapter/http/dto"
	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

// MassPaymentService defines the behavior needed by MassPaymentHandler.
type MassPaymentService interface {
	CreateMassPayment(ctx context.Context, input usecase.CreateMassPaymentInput) (*usecase.MassPaymentSummary, error)
	CreateFromGroup(ctx context.Context, input usecase.CreateFromGroupInput) (*usecase.MassPaymentSummary, error)
	GetMassPayment(ctx context.Context, id string) (*usecase.MassPaymentDetail, error)
	ListByAccount(ctx context.Context, input usecase.ListByAccountInput) ([]*domain.MassPayment, error)
	Reprocess(ctx context.Context, id string) error
	ValidateRecipient(ctx context.Context, phone, bankCode string) (*usecase.RecipientValidation, error)
}

// ConsistencyChecker verifies batch counters.
type ConsistencyChecker interface {
	CheckBatchConsistency(ctx context.Context, massPaymentID string) (*usecase.ConsistencyReport, error)
}

// MassPaymentHandler handles mass payment HTTP requests.
type MassPaymentHandler struct {
	massPaymentUC MassPaymentService
	checker       ConsistencyChecker
}

// NewMassPaymentHandler creates a new MassPaymentHandler.
func NewMassPaymentHandler(massPaymentUC MassPaymentService, checker ConsistencyChecker) *MassPaymentHandler {
	return &MassPaymentHandler{massPaymentUC: massPaymentUC, checker: checker}
}

// Create stores a mass payment and queues it for processing.
func (h *MassPaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMassPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	summary, err := h.massPaymentUC.CreateMassPayment(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create mass payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MassPaymentSummaryFromUseCase(summary))
}

// CreateFromGroup pays every valid recipient of a group its default amount.
func (h *MassPaymentHandler) CreateFromGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	var req dto.CreateFromGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	summary, err := h.massPaymentUC.CreateFromGroup(r.Context(), req.ToUseCaseInput(groupID))
	if err != nil {
		writeDomainError(w, "failed to create mass payment from group", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MassPaymentSummaryFromUseCase(summary))
}

// Get returns a mass payment with its items.
func (h *MassPaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing mass payment ID", "")
		return
	}

	detail, err := h.massPaymentUC.GetMassPayment(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get mass payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MassPaymentDetailFromUseCase(detail))
}

// Process dispatches a mass payment again.
func (h *MassPaymentHandler) Process(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing mass payment ID", "")
		return
	}

	if err := h.massPaymentUC.Reprocess(r.Context(), id); err != nil {
		writeDomainError(w, "failed to queue mass payment", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "queued"})
}

// Consistency compares the batch counters with its items.
func (h *MassPaymentHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing mass payment ID", "")
		return
	}

	report, err := h.checker.CheckBatchConsistency(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to check mass payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromUseCase(report))
}

// ListByAccount lists mass payments initiated from an account number.
func (h *MassPaymentHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		writeError(w, http.StatusBadRequest, "missing account number", "")
		return
	}

	batches, err := h.massPaymentUC.ListByAccount(r.Context(), usecase.ListByAccountInput{
		AccountNumber: number,
		Limit:         parseIntQuery(r, "limit", 20),
		Offset:        parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list mass payments", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MassPaymentsFromDomain(batches))
}

// ValidateRecipient looks up a phone number and bank code.
func (h *MassPaymentHandler) ValidateRecipient(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateRecipientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.massPaymentUC.ValidateRecipient(r.Context(), req.PhoneNumber, req.BankCode)
	if err != nil {
		writeDomainError(w, "failed to validate recipient", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RecipientValidationFromUseCase(result))
}
