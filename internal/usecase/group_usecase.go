package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/masspay/internal/domain"
)

// CSV import row errors.
const (
	csvMissingFields    = "Missing required fields (phone_number or amount)"
	csvUserNotFound     = "User not found with this phone number"
	csvNoActiveAccount  = "No active account found for this user"
	csvRecipientExists  = "Recipient already exists in this group"
	csvInvalidAmountFmt = "Invalid amount %q"
)

// GroupUseCaseConfig holds the dependencies of a GroupUseCase.
type GroupUseCaseConfig struct {
	TxManager     TransactionManager
	PartyRepo     PartyRepository
	AccountRepo   AccountRepository
	GroupRepo     RecipientGroupRepository
	RecipientRepo GroupRecipientRepository
	OutboxRepo    OutboxRepository
	Resolver      *RecipientResolver
	Dispatcher    Dispatcher
	IDGen         IDGenerator
	Logger        zerolog.Logger
}

// GroupUseCase manages recipient groups.
type GroupUseCase struct {
	txManager     TransactionManager
	partyRepo     PartyRepository
	accountRepo   AccountRepository
	groupRepo     RecipientGroupRepository
	recipientRepo GroupRecipientRepository
	outboxRepo    OutboxRepository
	resolver      *RecipientResolver
	dispatcher    Dispatcher
	idGen         IDGenerator
	logger        zerolog.Logger
}

// NewGroupUseCase creates a new GroupUseCase.
func NewGroupUseCase(cfg GroupUseCaseConfig) *GroupUseCase {
	return &GroupUseCase{
		txManager:     cfg.TxManager,
		partyRepo:     cfg.PartyRepo,
		accountRepo:   cfg.AccountRepo,
		groupRepo:     cfg.GroupRepo,
		recipientRepo: cfg.RecipientRepo,
		outboxRepo:    cfg.OutboxRepo,
		resolver:      cfg.Resolver,
		dispatcher:    cfg.Dispatcher,
		idGen:         cfg.IDGen,
		logger:        cfg.Logger.With().Str("component", "group_usecase").Logger(),
	}
}

// GroupRecipientInput describes a recipient to add to a group.
type GroupRecipientInput struct {
	PhoneNumber   string
	BankCode      string
	DefaultAmount *decimal.Decimal
	Motive        string
}

// CreateGroupInput represents input for creating a recipient group.
type CreateGroupInput struct {
	Name         string
	OwnerPartyID string
	Recipients   []GroupRecipientInput
}

// GroupDetail is a group with its recipients.
type GroupDetail struct {
	Group      *domain.RecipientGroup
	Recipients []*domain.GroupRecipient
}

// CreateGroupResult is returned after a group is created.
type CreateGroupResult struct {
	Group  *domain.RecipientGroup
	Queued bool
}

// CreateGroup stores a group with pending recipients and dispatches their validation.
func (uc *GroupUseCase) CreateGroup(ctx context.Context, input CreateGroupInput) (*CreateGroupResult, error) {
	if err := domain.ValidateGroupName(input.Name); err != nil {
		return nil, err
	}
	if len(input.Recipients) > domain.MaxRecipientsPerBatch {
		return nil, domain.ErrTooManyRecipients
	}
	for i, r := range input.Recipients {
		if err := validateRecipientInput(r); err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i+1, err)
		}
	}

	if _, err := uc.partyRepo.GetByID(ctx, input.OwnerPartyID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	group := &domain.RecipientGroup{
		ID:           uc.idGen.Generate(),
		Name:         input.Name,
		OwnerPartyID: input.OwnerPartyID,
		IsActive:     true,
		Status:       domain.BatchStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.groupRepo.Create(ctx, tx, group); err != nil {
		return nil, err
	}

	for _, r := range input.Recipients {
		recipient := &domain.GroupRecipient{
			ID:            uc.idGen.Generate(),
			GroupID:       group.ID,
			PhoneNumber:   r.PhoneNumber,
			BankCode:      r.BankCode,
			DefaultAmount: r.DefaultAmount,
			Motive:        r.Motive,
			Status:        domain.RecipientStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := uc.recipientRepo.Create(ctx, tx, recipient); err != nil {
			return nil, fmt.Errorf("recipient %s/%s: %w", r.PhoneNumber, r.BankCode, err)
		}
	}

	event := domain.GroupCreatedEvent{GroupID: group.ID, Name: group.Name, RecipientCount: len(input.Recipients)}
	outboxEvent := domain.NewOutboxEvent(uc.idGen.Generate(), domain.AggregateTypeGroup, group.ID,
		domain.EventTypeGroupCreated, event.Payload(), now)
	if err := uc.outboxRepo.Create(ctx, tx, outboxEvent); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().Str("group_id", group.ID).Int("recipients", len(input.Recipients)).Msg("recipient group created")

	result := &CreateGroupResult{Group: group, Queued: true}
	if err := uc.dispatcher.DispatchGroup(ctx, group.ID); err != nil {
		uc.logger.Warn().Err(err).Str("group_id", group.ID).Msg("dispatch failed, group left for the sweeper")
		result.Queued = false
	}

	return result, nil
}

// AddRecipient validates a recipient and adds it to the group as validated.
func (uc *GroupUseCase) AddRecipient(ctx context.Context, groupID string, input GroupRecipientInput) (*domain.GroupRecipient, error) {
	if err := validateRecipientInput(input); err != nil {
		return nil, err
	}

	group, err := uc.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	validation, err := uc.resolver.Validate(ctx, input.PhoneNumber, input.BankCode)
	if err != nil {
		return nil, err
	}
	if !validation.Exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRecipient, validation.Error)
	}

	exists, err := uc.recipientRepo.Exists(ctx, group.ID, input.PhoneNumber, input.BankCode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrRecipientExists
	}

	now := time.Now().UTC()
	recipient := &domain.GroupRecipient{
		ID:            uc.idGen.Generate(),
		GroupID:       group.ID,
		PhoneNumber:   input.PhoneNumber,
		BankCode:      input.BankCode,
		FullName:      validation.FullName,
		DefaultAmount: input.DefaultAmount,
		Motive:        input.Motive,
		Status:        domain.RecipientStatusValidated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.recipientRepo.Create(ctx, tx, recipient); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().Str("group_id", group.ID).Str("recipient_id", recipient.ID).Msg("recipient added to group")
	return recipient, nil
}

// FailedRecord is a CSV row that could not be imported.
type FailedRecord struct {
	Row         int
	PhoneNumber string
	Error       string
}

// ImportSummary is the outcome of a CSV import.
type ImportSummary struct {
	SuccessfulCount   int
	TotalCount        int
	SuccessPercentage float64
	FailedRecords     []FailedRecord
	Status            domain.BatchStatus
}

// Message renders the summary the way it is reported to clients.
func (s *ImportSummary) Message() string {
	return fmt.Sprintf("%d successful out of %d! (%.1f%%)", s.SuccessfulCount, s.TotalCount, s.SuccessPercentage)
}

// ImportRecipientsCSV reads rows of phone_number, amount and motive. Each recipient is
// stored validated at the bank of their first active account; bad rows are reported.
func (uc *GroupUseCase) ImportRecipientsCSV(ctx context.Context, groupID string, r io.Reader) (*ImportSummary, error) {
	group, err := uc.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCSV, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["phone_number"]; !ok {
		return nil, fmt.Errorf("%w: missing phone_number column", domain.ErrInvalidCSV)
	}
	if _, ok := columns["amount"]; !ok {
		return nil, fmt.Errorf("%w: missing amount column", domain.ErrInvalidCSV)
	}
	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	summary := &ImportSummary{}
	seen := make(map[string]bool)
	now := time.Now().UTC()

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", domain.ErrInvalidCSV, row, err)
		}
		summary.TotalCount++

		phone := field(record, "phone_number")
		failure := func(reason string) {
			summary.FailedRecords = append(summary.FailedRecords, FailedRecord{Row: row, PhoneNumber: phone, Error: reason})
		}

		rawAmount := field(record, "amount")
		if phone == "" || rawAmount == "" {
			failure(csvMissingFields)
			continue
		}
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil || domain.ValidateAmount(amount) != nil {
			failure(fmt.Sprintf(csvInvalidAmountFmt, rawAmount))
			continue
		}

		party, err := uc.partyRepo.GetByPhone(ctx, phone)
		if errors.Is(err, domain.ErrPartyNotFound) {
			failure(csvUserNotFound)
			continue
		}
		if err != nil {
			return nil, err
		}

		account, err := uc.accountRepo.FindFirstActiveByParty(ctx, party.ID)
		if errors.Is(err, domain.ErrAccountNotFound) {
			failure(csvNoActiveAccount)
			continue
		}
		if err != nil {
			return nil, err
		}

		key := phone + "|" + account.BankCode
		if seen[key] {
			failure(csvRecipientExists)
			continue
		}
		exists, err := uc.recipientRepo.Exists(ctx, group.ID, phone, account.BankCode)
		if err != nil {
			return nil, err
		}
		if exists {
			failure(csvRecipientExists)
			continue
		}
		seen[key] = true

		recipient := &domain.GroupRecipient{
			ID:            uc.idGen.Generate(),
			GroupID:       group.ID,
			PhoneNumber:   phone,
			BankCode:      account.BankCode,
			FullName:      party.FullName(),
			DefaultAmount: &amount,
			Motive:        field(record, "motive"),
			Status:        domain.RecipientStatusValidated,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := uc.recipientRepo.Create(ctx, tx, recipient); err != nil {
			return nil, err
		}
		summary.SuccessfulCount++
	}

	if summary.TotalCount > 0 {
		summary.SuccessPercentage = float64(summary.SuccessfulCount) / float64(summary.TotalCount) * 100
	}
	summary.Status = domain.ImportStatusFor(summary.SuccessfulCount, summary.TotalCount)

	if err := uc.groupRepo.UpdateStatus(ctx, tx, group.ID, summary.Status, now); err != nil {
		return nil, err
	}

	event := domain.GroupFinishedEvent{GroupID: group.ID, Status: string(summary.Status), FailedCount: len(summary.FailedRecords)}
	outboxEvent := domain.NewOutboxEvent(uc.idGen.Generate(), domain.AggregateTypeGroup, group.ID,
		domain.EventTypeGroupFinished, event.Payload(), now)
	if err := uc.outboxRepo.Create(ctx, tx, outboxEvent); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("group_id", group.ID).
		Int("successful", summary.SuccessfulCount).
		Int("total", summary.TotalCount).
		Str("status", string(summary.Status)).
		Msg("recipients imported")

	return summary, nil
}

// GetGroup returns a group with its recipients.
func (uc *GroupUseCase) GetGroup(ctx context.Context, id string) (*GroupDetail, error) {
	group, err := uc.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	recipients, err := uc.recipientRepo.ListByGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	return &GroupDetail{Group: group, Recipients: recipients}, nil
}

// ProcessGroup dispatches validation of the group's pending recipients.
func (uc *GroupUseCase) ProcessGroup(ctx context.Context, id string) error {
	if _, err := uc.groupRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.dispatcher.DispatchGroup(ctx, id)
}

func validateRecipientInput(r GroupRecipientInput) error {
	if err := domain.ValidatePhoneNumber(r.PhoneNumber); err != nil {
		return err
	}
	if err := domain.ValidateBankCode(r.BankCode); err != nil {
		return err
	}
	if r.DefaultAmount != nil {
		if err := domain.ValidateAmount(*r.DefaultAmount); err != nil {
			return err
		}
	}
	return nil
}
