package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/masspay/internal/domain"
)

// MassPaymentUseCaseConfig holds the dependencies of a MassPaymentUseCase.
type MassPaymentUseCaseConfig struct {
	TxManager     TransactionManager
	AccountRepo   AccountRepository
	BatchRepo     MassPaymentRepository
	ItemRepo      MassPaymentItemRepository
	ProviderRepo  BankProviderRepository
	GroupRepo     RecipientGroupRepository
	RecipientRepo GroupRecipientRepository
	OutboxRepo    OutboxRepository
	Resolver      *RecipientResolver
	Dispatcher    Dispatcher
	IDGen         IDGenerator
	Logger        zerolog.Logger
	// FeePerTransaction is charged for every item; zero means DefaultFeePerTransaction.
	FeePerTransaction decimal.Decimal
}

// MassPaymentUseCase creates mass payments and serves their state.
type MassPaymentUseCase struct {
	txManager     TransactionManager
	accountRepo   AccountRepository
	batchRepo     MassPaymentRepository
	itemRepo      MassPaymentItemRepository
	providerRepo  BankProviderRepository
	groupRepo     RecipientGroupRepository
	recipientRepo GroupRecipientRepository
	outboxRepo    OutboxRepository
	resolver      *RecipientResolver
	dispatcher    Dispatcher
	idGen         IDGenerator
	logger        zerolog.Logger
	fee           decimal.Decimal
}

// NewMassPaymentUseCase creates a new MassPaymentUseCase.
func NewMassPaymentUseCase(cfg MassPaymentUseCaseConfig) *MassPaymentUseCase {
	fee := cfg.FeePerTransaction
	if fee.IsZero() {
		fee = decimal.RequireFromString(DefaultFeePerTransaction)
	}

	return &MassPaymentUseCase{
		txManager:     cfg.TxManager,
		accountRepo:   cfg.AccountRepo,
		batchRepo:     cfg.BatchRepo,
		itemRepo:      cfg.ItemRepo,
		providerRepo:  cfg.ProviderRepo,
		groupRepo:     cfg.GroupRepo,
		recipientRepo: cfg.RecipientRepo,
		outboxRepo:    cfg.OutboxRepo,
		resolver:      cfg.Resolver,
		dispatcher:    cfg.Dispatcher,
		idGen:         cfg.IDGen,
		logger:        cfg.Logger.With().Str("component", "mass_payment_usecase").Logger(),
		fee:           fee,
	}
}

// RecipientInput is one payment instruction of a new mass payment.
type RecipientInput struct {
	PhoneNumber string
	BankCode    string
	Amount      decimal.Decimal
}

// CreateMassPaymentInput represents input for creating a mass payment.
type CreateMassPaymentInput struct {
	InitiatorAccountNumber string
	Description            string
	ReferenceCode          string
	Recipients             []RecipientInput
}

// MassPaymentSummary is returned after a mass payment is created.
type MassPaymentSummary struct {
	MassPayment             *domain.MassPayment
	RecipientsCount         int
	ExternalRecipientsCount int
	EstimatedCompletionTime time.Time
	// Queued is false when the dispatch queue refused the batch; the sweeper picks it up later.
	Queued bool
}

// MassPaymentDetail is a mass payment with its items.
type MassPaymentDetail struct {
	MassPayment *domain.MassPayment
	Items       []*domain.MassPaymentItem
	// BankNames maps the destination bank codes of the items to provider names.
	BankNames map[string]string
}

// CreateMassPayment validates the request, stores the batch with its items and
// dispatches processing once the transaction has committed.
func (uc *MassPaymentUseCase) CreateMassPayment(ctx context.Context, input CreateMassPaymentInput) (*MassPaymentSummary, error) {
	// 0. Validate inputs before starting transaction
	if err := uc.validateInput(input); err != nil {
		return nil, err
	}

	// 1. Initiator must be active and unblocked
	initiator, err := uc.accountRepo.GetByNumber(ctx, input.InitiatorAccountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInitiatorUnavailable
		}
		return nil, err
	}
	if !initiator.CanTransact() {
		return nil, domain.ErrInitiatorUnavailable
	}

	// 2. Every recipient must be reachable, inside the ledger or through a provider
	if err := uc.checkRecipients(ctx, initiator, input.Recipients); err != nil {
		return nil, err
	}

	// 3. Funds must cover the total plus fees
	total := decimal.Zero
	for _, r := range input.Recipients {
		total = total.Add(r.Amount)
	}
	fees := uc.fee.Mul(decimal.NewFromInt(int64(len(input.Recipients))))
	if !initiator.HasFunds(total.Add(fees)) {
		return nil, domain.ErrInsufficientBatchFunds
	}

	// 4. Reference code
	reference := input.ReferenceCode
	if reference == "" {
		reference = NewReferenceCode()
	}
	exists, err := uc.batchRepo.ExistsByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateReference
	}

	// 5. Store batch, items and event atomically
	now := time.Now().UTC()
	batch := &domain.MassPayment{
		ID:                 uc.idGen.Generate(),
		ReferenceCode:      reference,
		InitiatorAccountID: initiator.ID,
		TotalAmount:        total,
		FeeAmount:          fees,
		Description:        input.Description,
		Status:             domain.BatchStatusProcessing,
		PendingCount:       len(input.Recipients),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := uc.store(ctx, batch, input.Recipients, now); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("batch_id", batch.ID).
		Str("reference", batch.ReferenceCode).
		Int("items", batch.PendingCount).
		Str("total_amount", total.StringFixed(2)).
		Msg("mass payment created")

	// 6. Dispatch after commit
	summary := &MassPaymentSummary{
		MassPayment:             batch,
		RecipientsCount:         len(input.Recipients),
		ExternalRecipientsCount: countExternal(initiator.BankCode, input.Recipients),
		EstimatedCompletionTime: now.Add(EstimatedCompletionWindow),
		Queued:                  true,
	}
	if err := uc.dispatcher.DispatchBatch(ctx, batch.ID); err != nil {
		uc.logger.Warn().Err(err).Str("batch_id", batch.ID).Msg("dispatch failed, batch left for the sweeper")
		summary.Queued = false
	}

	return summary, nil
}

func (uc *MassPaymentUseCase) validateInput(input CreateMassPaymentInput) error {
	if len(input.Recipients) == 0 {
		return domain.ErrNoRecipients
	}
	if len(input.Recipients) > domain.MaxRecipientsPerBatch {
		return fmt.Errorf("%w: at most %d per mass payment", domain.ErrTooManyRecipients, domain.MaxRecipientsPerBatch)
	}
	if len(input.Description) > domain.MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", domain.ErrInvalidRecipient, domain.MaxDescriptionLength)
	}
	if input.ReferenceCode != "" {
		if err := domain.ValidateReferenceCode(input.ReferenceCode); err != nil {
			return err
		}
	}

	for i, r := range input.Recipients {
		if err := domain.ValidatePhoneNumber(r.PhoneNumber); err != nil {
			return fmt.Errorf("recipient %d: %w", i+1, err)
		}
		if err := domain.ValidateBankCode(r.BankCode); err != nil {
			return fmt.Errorf("recipient %d: %w", i+1, err)
		}
		if err := domain.ValidateAmount(r.Amount); err != nil {
			return fmt.Errorf("recipient %d: %w", i+1, err)
		}
	}

	return nil
}

func (uc *MassPaymentUseCase) checkRecipients(ctx context.Context, initiator *domain.Account, recipients []RecipientInput) error {
	providers := make(map[string]bool)

	for i, r := range recipients {
		_, account, err := uc.resolver.Resolve(ctx, r.PhoneNumber, r.BankCode)
		if err == nil {
			if account.ID == initiator.ID {
				return fmt.Errorf("%w: recipient %d (%s): %s", domain.ErrInvalidRecipient, i+1, r.PhoneNumber, domain.ReasonSelfTransfer)
			}
			continue
		}
		if !IsUnresolved(err) {
			return err
		}

		active, ok := providers[r.BankCode]
		if !ok {
			provider, err := uc.providerRepo.GetByCode(ctx, r.BankCode)
			if err != nil && !errors.Is(err, domain.ErrBankProviderNotFound) {
				return err
			}
			active = err == nil && provider.IsActive
			providers[r.BankCode] = active
		}
		if !active {
			return fmt.Errorf("%w: recipient %d (%s): %s", domain.ErrInvalidRecipient, i+1, r.PhoneNumber, domain.ReasonBankNotSupported)
		}
	}

	return nil
}

func (uc *MassPaymentUseCase) store(ctx context.Context, batch *domain.MassPayment, recipients []RecipientInput, now time.Time) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.batchRepo.Create(ctx, tx, batch); err != nil {
		return err
	}

	for i, r := range recipients {
		item := &domain.MassPaymentItem{
			ID:                  uc.idGen.Generate(),
			MassPaymentID:       batch.ID,
			Position:            i,
			DestinationPhone:    r.PhoneNumber,
			DestinationBankCode: r.BankCode,
			Amount:              r.Amount,
			FeeAmount:           uc.fee,
			Status:              domain.ItemStatusPending,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := uc.itemRepo.Create(ctx, tx, item); err != nil {
			return err
		}
	}

	event := domain.MassPaymentCreatedEvent{
		MassPaymentID:      batch.ID,
		ReferenceCode:      batch.ReferenceCode,
		InitiatorAccountID: batch.InitiatorAccountID,
		TotalAmount:        batch.TotalAmount.StringFixed(2),
		FeeAmount:          batch.FeeAmount.StringFixed(2),
		ItemCount:          batch.PendingCount,
	}
	outboxEvent := domain.NewOutboxEvent(uc.idGen.Generate(), domain.AggregateTypeMassPayment, batch.ID,
		domain.EventTypeMassPaymentCreated, event.Payload(), now)
	if err := uc.outboxRepo.Create(ctx, tx, outboxEvent); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateFromGroupInput represents input for paying the recipients of a group.
type CreateFromGroupInput struct {
	GroupID                string
	InitiatorAccountNumber string
	Description            string
	ReferenceCode          string
}

// CreateFromGroup creates a mass payment from the group recipients that carry a default
// amount and still resolve to an account other than the initiator's.
func (uc *MassPaymentUseCase) CreateFromGroup(ctx context.Context, input CreateFromGroupInput) (*MassPaymentSummary, error) {
	group, err := uc.groupRepo.GetByID(ctx, input.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, domain.ErrGroupInactive
	}

	initiator, err := uc.accountRepo.GetByNumber(ctx, input.InitiatorAccountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInitiatorUnavailable
		}
		return nil, err
	}

	members, err := uc.recipientRepo.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, domain.ErrNoGroupRecipients
	}

	var recipients []RecipientInput
	for _, m := range members {
		if m.DefaultAmount == nil || !m.DefaultAmount.IsPositive() {
			continue
		}

		validation, err := uc.resolver.Validate(ctx, m.PhoneNumber, m.BankCode)
		if err != nil {
			return nil, err
		}
		if !validation.Exists || validation.AccountNumber == initiator.Number {
			continue
		}

		recipients = append(recipients, RecipientInput{
			PhoneNumber: m.PhoneNumber,
			BankCode:    m.BankCode,
			Amount:      *m.DefaultAmount,
		})
	}
	if len(recipients) == 0 {
		return nil, domain.ErrNoValidGroupRecipients
	}

	description := input.Description
	if description == "" {
		description = "Mass payment to group " + group.Name
	}

	return uc.CreateMassPayment(ctx, CreateMassPaymentInput{
		InitiatorAccountNumber: input.InitiatorAccountNumber,
		Description:            description,
		ReferenceCode:          input.ReferenceCode,
		Recipients:             recipients,
	})
}

// GetMassPayment returns a mass payment with its items.
func (uc *MassPaymentUseCase) GetMassPayment(ctx context.Context, id string) (*MassPaymentDetail, error) {
	batch, err := uc.batchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := uc.itemRepo.ListByMassPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	for _, item := range items {
		if _, ok := names[item.DestinationBankCode]; ok {
			continue
		}
		provider, err := uc.providerRepo.GetByCode(ctx, item.DestinationBankCode)
		switch {
		case errors.Is(err, domain.ErrBankProviderNotFound):
			names[item.DestinationBankCode] = domain.UnknownBankName
		case err != nil:
			return nil, err
		default:
			names[item.DestinationBankCode] = provider.Name
		}
	}

	return &MassPaymentDetail{MassPayment: batch, Items: items, BankNames: names}, nil
}

// ListByAccountInput represents input for listing the mass payments of an account.
type ListByAccountInput struct {
	AccountNumber string
	Limit         int
	Offset        int
}

// ListByAccount lists mass payments initiated from an account.
func (uc *MassPaymentUseCase) ListByAccount(ctx context.Context, input ListByAccountInput) ([]*domain.MassPayment, error) {
	limit, offset, err := domain.ValidatePagination(input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByNumber(ctx, input.AccountNumber)
	if err != nil {
		return nil, err
	}

	return uc.batchRepo.ListByInitiator(ctx, account.ID, limit, offset)
}

// Reprocess dispatches a mass payment again. Terminal batches are left untouched by the
// processor, so this is safe to call at any time.
func (uc *MassPaymentUseCase) Reprocess(ctx context.Context, id string) error {
	if _, err := uc.batchRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.dispatcher.DispatchBatch(ctx, id)
}

// ValidateRecipient checks a phone number and bank code without side effects.
func (uc *MassPaymentUseCase) ValidateRecipient(ctx context.Context, phone, bankCode string) (*RecipientValidation, error) {
	if err := domain.ValidatePhoneNumber(phone); err != nil {
		return nil, err
	}
	if err := domain.ValidateBankCode(bankCode); err != nil {
		return nil, err
	}
	return uc.resolver.Validate(ctx, phone, bankCode)
}

// NewReferenceCode returns "MP" followed by eight uppercase hex characters.
func NewReferenceCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return ReferencePrefix + strings.ToUpper(id[:8])
}

// countExternal counts recipients whose bank differs from the initiator's. It is a
// summary hint only; the router decides the real path per item.
func countExternal(initiatorBank string, recipients []RecipientInput) int {
	n := 0
	for _, r := range recipients {
		if r.BankCode != initiatorBank {
			n++
		}
	}
	return n
}
