package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/masspay/internal/adapter/http/dto"
	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

// maxCSVUpload bounds the size of an imported recipients file.
const maxCSVUpload = 10 << 20

// GroupService defines the behavior needed by GroupHandler.
type GroupService interface {
	CreateGroup(ctx context.Context, input usecase.CreateGroupInput) (*usecase.CreateGroupResult, error)
	AddRecipient(ctx context.Context, groupID string, input usecase.GroupRecipientInput) (*domain.GroupRecipient, error)
	ImportRecipientsCSV(ctx context.Context, groupID string, r io.Reader) (*usecase.ImportSummary, error)
	GetGroup(ctx context.Context, id string) (*usecase.GroupDetail, error)
	ProcessGroup(ctx context.Context, id string) error
}

// GroupHandler handles recipient group HTTP requests.
type GroupHandler struct {
	groupUC GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupUC GroupService) *GroupHandler {
	return &GroupHandler{groupUC: groupUC}
}

// Create creates a group; its recipients are validated in the background.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.groupUC.CreateGroup(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create group", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CreateGroupResponse{
		GroupResponse: dto.GroupFromDomain(result.Group),
		Queued:        result.Queued,
	})
}

// Get returns a group with its recipients.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	detail, err := h.groupUC.GetGroup(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get group", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupDetailFromUseCase(detail))
}

// AddRecipient validates and adds one recipient.
func (h *GroupHandler) AddRecipient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	var req dto.GroupRecipientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	recipient, err := h.groupUC.AddRecipient(r.Context(), id, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to add recipient", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.GroupRecipientFromDomain(recipient))
}

// ImportCSV reads recipients from a multipart "file" field or from the raw body.
func (h *GroupHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	body, closeBody, err := csvBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid CSV upload", err.Error())
		return
	}
	defer closeBody()

	summary, err := h.groupUC.ImportRecipientsCSV(r.Context(), id, body)
	if err != nil {
		writeDomainError(w, "failed to import recipients", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportSummaryFromUseCase(summary))
}

// Process queues recipient validation for a group.
func (h *GroupHandler) Process(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	if err := h.groupUC.ProcessGroup(r.Context(), id); err != nil {
		writeDomainError(w, "failed to queue group", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "queued"})
}

func csvBody(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCSVUpload)

	if err := r.ParseMultipartForm(maxCSVUpload); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return r.Body, func() {}, nil
		}
		return nil, nil, err
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}
