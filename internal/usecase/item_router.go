package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/masspay/internal/domain"
)

// RouteKind tells how an item left the initiator account.
type RouteKind string

const (
	RouteInternal   RouteKind = "internal"
	RouteExternal   RouteKind = "external"
	RouteUnresolved RouteKind = "unresolved"
)

// RouteResult is the outcome of routing one item.
type RouteResult struct {
	Route   RouteKind
	Success bool
	// Skipped is set when the item was no longer pending and nothing was done.
	Skipped bool
	Reason  string
}

// ItemRouterConfig holds the dependencies of an ItemRouter.
type ItemRouterConfig struct {
	TxManager    TransactionManager
	AccountRepo  AccountRepository
	BatchRepo    MassPaymentRepository
	ItemRepo     MassPaymentItemRepository
	TxLogRepo    TransactionLogRepository
	ProviderRepo BankProviderRepository
	Resolver     *RecipientResolver
	Gateway      Gateway
	Retrier      Retrier
	IDGen        IDGenerator
	Recorder     Recorder
	Logger       zerolog.Logger
}

// ItemRouter moves the funds of a single mass payment item.
type ItemRouter struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	batchRepo    MassPaymentRepository
	itemRepo     MassPaymentItemRepository
	txLogRepo    TransactionLogRepository
	providerRepo BankProviderRepository
	resolver     *RecipientResolver
	gateway      Gateway
	retrier      Retrier
	idGen        IDGenerator
	recorder     Recorder
	logger       zerolog.Logger
}

// NewItemRouter creates a new ItemRouter.
func NewItemRouter(cfg ItemRouterConfig) *ItemRouter {
	if cfg.Recorder == nil {
		cfg.Recorder = NopRecorder{}
	}
	if cfg.Retrier == nil {
		cfg.Retrier = noRetry{}
	}

	return &ItemRouter{
		txManager:    cfg.TxManager,
		accountRepo:  cfg.AccountRepo,
		batchRepo:    cfg.BatchRepo,
		itemRepo:     cfg.ItemRepo,
		txLogRepo:    cfg.TxLogRepo,
		providerRepo: cfg.ProviderRepo,
		resolver:     cfg.Resolver,
		gateway:      cfg.Gateway,
		retrier:      cfg.Retrier,
		idGen:        cfg.IDGen,
		recorder:     cfg.Recorder,
		logger:       cfg.Logger.With().Str("component", "item_router").Logger(),
	}
}

// destination is what is known about an item's recipient before any lock is taken.
type destination struct {
	kind     RouteKind
	account  *domain.Account
	provider *domain.BankProvider
}

// Route drives item to success or failed and updates the batch counters in the same
// transaction. An error is returned only when not even the failure could be recorded.
func (r *ItemRouter) Route(ctx context.Context, batch *domain.MassPayment, item *domain.MassPaymentItem) (RouteResult, error) {
	start := time.Now()

	// 1. Claim the item
	claimed, err := r.itemRepo.MarkProcessing(ctx, item.ID, time.Now().UTC())
	if err != nil {
		return RouteResult{}, fmt.Errorf("mark item %s processing: %w", item.ID, err)
	}
	if !claimed {
		r.logger.Warn().Str("batch_id", batch.ID).Str("item_id", item.ID).Msg("item no longer pending, skipping")
		return RouteResult{Skipped: true}, nil
	}
	item.Status = domain.ItemStatusProcessing

	// 2. Resolve the destination before locking so locks can be taken in order
	dest, err := r.resolveDestination(ctx, item)
	if err != nil {
		return r.fail(ctx, batch, item, nil, RouteUnresolved, err, start)
	}

	// 3. Move funds; only internal attempts are safe to repeat
	var (
		result RouteResult
		entry  *domain.Transaction
	)
	attempt := func() error {
		var attemptErr error
		result, entry, attemptErr = r.transfer(ctx, batch, item, dest)
		return attemptErr
	}

	if dest.kind == RouteInternal {
		err = r.retrier.Retry(ctx, attempt)
	} else {
		err = attempt()
	}
	if err != nil {
		return r.fail(ctx, batch, item, entry, dest.kind, err, start)
	}

	r.recorder.ItemRouted(dest.kind, result.Success, time.Since(start))
	r.logger.Debug().
		Str("batch_id", batch.ID).
		Str("item_id", item.ID).
		Str("route", string(result.Route)).
		Bool("success", result.Success).
		Str("reason", result.Reason).
		Msg("item routed")

	return result, nil
}

func (r *ItemRouter) resolveDestination(ctx context.Context, item *domain.MassPaymentItem) (destination, error) {
	_, account, err := r.resolver.Resolve(ctx, item.DestinationPhone, item.DestinationBankCode)
	if err == nil {
		return destination{kind: RouteInternal, account: account}, nil
	}
	if !IsUnresolved(err) {
		return destination{}, err
	}

	provider, err := r.providerRepo.GetByCode(ctx, item.DestinationBankCode)
	if errors.Is(err, domain.ErrBankProviderNotFound) {
		return destination{kind: RouteExternal}, nil
	}
	if err != nil {
		return destination{}, err
	}
	if !provider.IsActive {
		provider = nil
	}

	return destination{kind: RouteExternal, provider: provider}, nil
}

// transfer runs one item transaction. A returned entry means a log entry was appended
// before the failure and must be preserved as a failure record.
func (r *ItemRouter) transfer(
	ctx context.Context,
	batch *domain.MassPayment,
	item *domain.MassPaymentItem,
	dest destination,
) (RouteResult, *domain.Transaction, error) {
	result := RouteResult{Route: dest.kind}

	// 1. Collect and sort account IDs (DEADLOCK PREVENTION)
	accountIDs := []string{batch.InitiatorAccountID}
	if dest.account != nil && dest.account.ID != batch.InitiatorAccountID {
		accountIDs = append(accountIDs, dest.account.ID)
	}
	sort.Strings(accountIDs)

	// 2. Begin transaction
	tx, err := r.txManager.Begin(ctx)
	if err != nil {
		return result, nil, err
	}
	defer tx.Rollback(ctx)

	// 3. Lock accounts in sorted order
	accounts, err := r.accountRepo.GetByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return result, nil, err
	}
	if len(accounts) != len(accountIDs) {
		return result, nil, domain.ErrAccountNotFound
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, acc := range accounts {
		accountMap[acc.ID] = acc
	}
	source := accountMap[batch.InitiatorAccountID]

	now := time.Now().UTC()

	// 4. Pre-checks fail the item without a log entry
	if reason := precheck(source, item, dest); reason != "" {
		item.Fail(reason, now)
		if err := r.finish(ctx, tx, batch.ID, item, now); err != nil {
			return result, nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return result, nil, err
		}
		result.Reason = reason
		return result, nil, nil
	}

	// 5. Append the log entry
	entry := &domain.Transaction{
		ID:              r.idGen.Generate(),
		Type:            domain.TransactionTypeTransfer,
		Status:          domain.TransactionStatusPending,
		Amount:          item.Amount,
		FeeAmount:       item.FeeAmount,
		SourceAccountID: source.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if dest.kind == RouteInternal {
		destinationID := dest.account.ID
		entry.DestinationAccountID = &destinationID
	}
	if err := r.txLogRepo.Create(ctx, tx, entry); err != nil {
		return result, entry, err
	}

	// 6. Move balances
	if dest.kind == RouteInternal {
		err = r.moveInternal(ctx, tx, source, accountMap[dest.account.ID], item, now)
	} else {
		err = r.moveExternal(ctx, tx, source, dest.provider, entry, item, now)
	}
	if err != nil {
		return result, entry, err
	}

	// 7. Flip the entry and finish the item
	if err := r.txLogRepo.UpdateStatus(ctx, tx, entry.ID, domain.TransactionStatusSuccess, now); err != nil {
		return result, entry, err
	}
	entry.Status = domain.TransactionStatusSuccess

	item.Succeed(entry.ID, entry.DestinationAccountID, now)
	if err := r.finish(ctx, tx, batch.ID, item, now); err != nil {
		return result, entry, err
	}

	if err := tx.Commit(ctx); err != nil {
		return result, entry, err
	}

	result.Success = true
	return result, entry, nil
}

func precheck(source *domain.Account, item *domain.MassPaymentItem, dest destination) string {
	switch {
	case !source.CanTransact():
		return domain.ReasonInitiatorUnavailable
	case !source.HasFunds(item.Total()):
		return domain.ReasonInsufficientFunds
	case dest.kind == RouteInternal && dest.account.ID == source.ID:
		return domain.ReasonSelfTransfer
	case dest.kind == RouteExternal && dest.provider == nil:
		return domain.ReasonBankNotSupported
	}
	return ""
}

func (r *ItemRouter) moveInternal(
	ctx context.Context,
	tx Transaction,
	source, target *domain.Account,
	item *domain.MassPaymentItem,
	now time.Time,
) error {
	if err := target.ValidateCredit(); err != nil {
		return fmt.Errorf("destination %s: %w", target.Number, err)
	}
	if err := source.ValidateDebit(item.Total()); err != nil {
		return err
	}

	sourceBalance := source.ApplyDebit(item.Total())
	targetBalance := target.ApplyCredit(item.Amount)

	if err := r.accountRepo.UpdateBalance(ctx, tx, source.ID, sourceBalance, now); err != nil {
		return err
	}
	if err := r.accountRepo.UpdateBalance(ctx, tx, target.ID, targetBalance, now); err != nil {
		return err
	}

	source.Balance = sourceBalance
	target.Balance = targetBalance
	return nil
}

func (r *ItemRouter) moveExternal(
	ctx context.Context,
	tx Transaction,
	source *domain.Account,
	provider *domain.BankProvider,
	entry *domain.Transaction,
	item *domain.MassPaymentItem,
	now time.Time,
) error {
	sourceBalance := source.ApplyDebit(item.Total())
	if err := r.accountRepo.UpdateBalance(ctx, tx, source.ID, sourceBalance, now); err != nil {
		return err
	}

	err := r.gateway.Transfer(ctx, ExternalTransfer{
		Reference:        entry.ID,
		Provider:         provider,
		DestinationPhone: item.DestinationPhone,
		Amount:           item.Amount,
	})
	if err != nil {
		return err
	}

	source.Balance = sourceBalance
	return nil
}

// finish persists the terminal item state and moves the batch counters with it.
func (r *ItemRouter) finish(ctx context.Context, tx Transaction, batchID string, item *domain.MassPaymentItem, now time.Time) error {
	if err := r.itemRepo.Finish(ctx, tx, item); err != nil {
		return err
	}
	return r.batchRepo.RecordItemOutcome(ctx, tx, batchID, item.Status == domain.ItemStatusSuccess, now)
}

func (r *ItemRouter) fail(
	ctx context.Context,
	batch *domain.MassPayment,
	item *domain.MassPaymentItem,
	entry *domain.Transaction,
	kind RouteKind,
	cause error,
	start time.Time,
) (RouteResult, error) {
	reason := failurePrefix(kind) + cause.Error()

	r.logger.Error().
		Err(cause).
		Str("batch_id", batch.ID).
		Str("item_id", item.ID).
		Str("route", string(kind)).
		Msg("item transfer failed")

	// The item transaction was rolled back; record the failure in a fresh one that
	// survives cancellation of the run.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTransactionTimeout)
	defer cancel()

	if err := r.recordFailure(recordCtx, batch.ID, item, entry, reason); err != nil {
		return RouteResult{Route: kind}, fmt.Errorf("record failure of item %s: %w", item.ID, err)
	}

	r.recorder.ItemRouted(kind, false, time.Since(start))
	return RouteResult{Route: kind, Reason: reason}, nil
}

func (r *ItemRouter) recordFailure(ctx context.Context, batchID string, item *domain.MassPaymentItem, entry *domain.Transaction, reason string) error {
	tx, err := r.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	item.Fail(reason, now)
	item.TransactionID = nil

	if entry != nil {
		entry.Status = domain.TransactionStatusFailure
		entry.UpdatedAt = now
		if err := r.txLogRepo.Create(ctx, tx, entry); err != nil {
			return err
		}
		item.TransactionID = &entry.ID
	}

	if err := r.finish(ctx, tx, batchID, item, now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func failurePrefix(kind RouteKind) string {
	switch kind {
	case RouteInternal:
		return domain.ReasonInternalFailedPrefix
	case RouteExternal:
		return domain.ReasonExternalFailedPrefix
	default:
		return domain.ReasonTransferFailedPrefix
	}
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}
