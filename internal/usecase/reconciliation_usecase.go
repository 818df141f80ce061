package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/masspay/internal/domain"
)

// ReconciliationConfig holds the dependencies of a ReconciliationUseCase.
type ReconciliationConfig struct {
	TxManager  TransactionManager
	BatchRepo  MassPaymentRepository
	ItemRepo   MassPaymentItemRepository
	GroupRepo  RecipientGroupRepository
	Resolver   *RecipientResolver
	Locker     RunLocker
	Dispatcher Dispatcher
	Recorder   Recorder
	Logger     zerolog.Logger
	// StuckAfter is how long a record may sit untouched before it is repaired.
	StuckAfter time.Duration
	// BatchSize caps how many records of each kind one sweep looks at.
	BatchSize int
}

// ReconciliationUseCase repairs runs that died midway and checks batch counters.
type ReconciliationUseCase struct {
	txManager  TransactionManager
	batchRepo  MassPaymentRepository
	itemRepo   MassPaymentItemRepository
	groupRepo  RecipientGroupRepository
	resolver   *RecipientResolver
	locker     RunLocker
	dispatcher Dispatcher
	recorder   Recorder
	logger     zerolog.Logger
	stuckAfter time.Duration
	batchSize  int
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(cfg ReconciliationConfig) *ReconciliationUseCase {
	if cfg.Recorder == nil {
		cfg.Recorder = NopRecorder{}
	}
	if cfg.StuckAfter <= 0 {
		cfg.StuckAfter = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	return &ReconciliationUseCase{
		txManager:  cfg.TxManager,
		batchRepo:  cfg.BatchRepo,
		itemRepo:   cfg.ItemRepo,
		groupRepo:  cfg.GroupRepo,
		resolver:   cfg.Resolver,
		locker:     cfg.Locker,
		dispatcher: cfg.Dispatcher,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger.With().Str("component", "reconciliation").Logger(),
		stuckAfter: cfg.StuckAfter,
		batchSize:  cfg.BatchSize,
	}
}

// SweepReport represents the outcome of one sweep
type SweepReport struct {
	ItemsFailed         int
	BatchesRedispatched int
	GroupsRedispatched  int
	CheckedAt           time.Time
}

// Sweep fails items stuck in processing, then re-dispatches batches and groups that have
// been idle past the threshold. A stuck item's transaction never committed, so its ledger
// balances are unchanged. An external item may still have reached the gateway, so it is
// failed with ReasonExternalUnconfirmed for manual reconciliation.
func (uc *ReconciliationUseCase) Sweep(ctx context.Context) (*SweepReport, error) {
	now := time.Now().UTC()
	before := now.Add(-uc.stuckAfter)
	report := &SweepReport{CheckedAt: now}

	// 1. Fail stuck items, grouped by batch
	stuck, err := uc.itemRepo.ListStuck(ctx, before, uc.batchSize)
	if err != nil {
		return report, fmt.Errorf("list stuck items: %w", err)
	}

	byBatch := make(map[string][]*domain.MassPaymentItem)
	var order []string
	for _, item := range stuck {
		if _, ok := byBatch[item.MassPaymentID]; !ok {
			order = append(order, item.MassPaymentID)
		}
		byBatch[item.MassPaymentID] = append(byBatch[item.MassPaymentID], item)
	}

	for _, batchID := range order {
		failed, err := uc.failStuckItems(ctx, batchID, byBatch[batchID], before)
		if err != nil {
			return report, err
		}
		report.ItemsFailed += failed
	}
	if report.ItemsFailed > 0 {
		uc.recorder.ItemsSwept(report.ItemsFailed)
	}

	// 2. Re-dispatch idle batches so they settle
	batches, err := uc.batchRepo.ListStale(ctx, domain.BatchStatusProcessing, before, uc.batchSize)
	if err != nil {
		return report, fmt.Errorf("list stale mass payments: %w", err)
	}
	for _, batch := range batches {
		if err := uc.dispatcher.DispatchBatch(ctx, batch.ID); err != nil {
			if errors.Is(err, domain.ErrQueueFull) {
				uc.logger.Warn().Msg("dispatch queue full, stopping sweep early")
				return report, nil
			}
			return report, fmt.Errorf("dispatch mass payment %s: %w", batch.ID, err)
		}
		report.BatchesRedispatched++
	}

	// 3. Re-dispatch idle groups
	groups, err := uc.groupRepo.ListStale(ctx, before, uc.batchSize)
	if err != nil {
		return report, fmt.Errorf("list stale recipient groups: %w", err)
	}
	for _, group := range groups {
		if err := uc.dispatcher.DispatchGroup(ctx, group.ID); err != nil {
			if errors.Is(err, domain.ErrQueueFull) {
				uc.logger.Warn().Msg("dispatch queue full, stopping sweep early")
				return report, nil
			}
			return report, fmt.Errorf("dispatch recipient group %s: %w", group.ID, err)
		}
		report.GroupsRedispatched++
	}

	if report.ItemsFailed+report.BatchesRedispatched+report.GroupsRedispatched > 0 {
		uc.logger.Info().
			Int("items_failed", report.ItemsFailed).
			Int("batches_redispatched", report.BatchesRedispatched).
			Int("groups_redispatched", report.GroupsRedispatched).
			Msg("sweep repaired stale runs")
	}

	return report, nil
}

// failStuckItems only touches a batch whose run lock is free; a live run owns its items.
func (uc *ReconciliationUseCase) failStuckItems(ctx context.Context, batchID string, items []*domain.MassPaymentItem, before time.Time) (int, error) {
	release, acquired, err := uc.locker.TryAcquire(ctx, MassPaymentLockKey(batchID))
	if err != nil {
		return 0, fmt.Errorf("lock mass payment %s: %w", batchID, err)
	}
	if !acquired {
		uc.logger.Debug().Str("batch_id", batchID).Msg("mass payment is running, leaving its items alone")
		return 0, nil
	}
	defer release()

	reasons := make([]string, len(items))
	for i, item := range items {
		reason, err := uc.stuckReason(ctx, item)
		if err != nil {
			return 0, fmt.Errorf("route stuck item %s: %w", item.ID, err)
		}
		reasons[i] = reason
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	failed := 0
	unconfirmed := 0
	for i, item := range items {
		ok, err := uc.itemRepo.FailStuck(ctx, tx, item.ID, reasons[i], before, now)
		if err != nil {
			return 0, fmt.Errorf("fail stuck item %s: %w", item.ID, err)
		}
		if !ok {
			continue
		}
		if err := uc.batchRepo.RecordItemOutcome(ctx, tx, batchID, false, now); err != nil {
			return 0, err
		}
		failed++
		if reasons[i] == domain.ReasonExternalUnconfirmed {
			unconfirmed++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	if failed > 0 {
		uc.logger.Warn().Str("batch_id", batchID).Int("items", failed).Msg("failed items stuck in processing")
	}
	if unconfirmed > 0 {
		uc.logger.Error().Str("batch_id", batchID).Int("items", unconfirmed).
			Msg("external transfers interrupted, reconcile with the bank provider")
	}
	return failed, nil
}

// stuckReason classifies a stuck item the way the router would have routed it.
// An item that does not resolve to a local account was headed for the gateway.
func (uc *ReconciliationUseCase) stuckReason(ctx context.Context, item *domain.MassPaymentItem) (string, error) {
	_, _, err := uc.resolver.Resolve(ctx, item.DestinationPhone, item.DestinationBankCode)
	switch {
	case err == nil:
		return domain.ReasonProcessingInterrupted, nil
	case IsUnresolved(err):
		return domain.ReasonExternalUnconfirmed, nil
	default:
		return "", err
	}
}

// ConsistencyReport compares the counters of a mass payment with its items.
type ConsistencyReport struct {
	MassPaymentID string
	Status        domain.BatchStatus
	ItemCount     int
	PendingCount  int
	SuccessCount  int
	FailureCount  int
	ItemStatuses  map[domain.ItemStatus]int
	Problems      []string
	CheckedAt     time.Time
}

// Consistent reports whether no problem was found.
func (r *ConsistencyReport) Consistent() bool {
	return len(r.Problems) == 0
}

// Err returns domain.ErrBatchInconsistent with the problems, or nil.
func (r *ConsistencyReport) Err() error {
	if r.Consistent() {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrBatchInconsistent, strings.Join(r.Problems, "; "))
}

// CheckBatchConsistency verifies that the stored counters match the item statuses and that
// pending + success + failure equals the number of items.
func (uc *ReconciliationUseCase) CheckBatchConsistency(ctx context.Context, massPaymentID string) (*ConsistencyReport, error) {
	batch, err := uc.batchRepo.GetByID(ctx, massPaymentID)
	if err != nil {
		return nil, err
	}

	statuses, err := uc.itemRepo.CountByStatus(ctx, massPaymentID)
	if err != nil {
		return nil, err
	}

	itemCount := 0
	for _, n := range statuses {
		itemCount += n
	}

	report := &ConsistencyReport{
		MassPaymentID: batch.ID,
		Status:        batch.Status,
		ItemCount:     itemCount,
		PendingCount:  batch.PendingCount,
		SuccessCount:  batch.SuccessCount,
		FailureCount:  batch.FailureCount,
		ItemStatuses:  statuses,
		CheckedAt:     time.Now().UTC(),
	}

	if batch.ItemCount() != itemCount {
		report.Problems = append(report.Problems,
			fmt.Sprintf("counters sum to %d but batch has %d items", batch.ItemCount(), itemCount))
	}
	if open := statuses[domain.ItemStatusPending] + statuses[domain.ItemStatusProcessing]; open != batch.PendingCount {
		report.Problems = append(report.Problems,
			fmt.Sprintf("pending_count=%d but %d items are not terminal", batch.PendingCount, open))
	}
	if n := statuses[domain.ItemStatusSuccess]; n != batch.SuccessCount {
		report.Problems = append(report.Problems,
			fmt.Sprintf("success_count=%d but %d items succeeded", batch.SuccessCount, n))
	}
	if n := statuses[domain.ItemStatusFailed]; n != batch.FailureCount {
		report.Problems = append(report.Problems,
			fmt.Sprintf("failure_count=%d but %d items failed", batch.FailureCount, n))
	}
	if batch.Status.IsTerminal() && batch.PendingCount != 0 {
		report.Problems = append(report.Problems,
			fmt.Sprintf("status %s with %d pending items", batch.Status, batch.PendingCount))
	}

	return report, nil
}
