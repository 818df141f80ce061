package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/masspay/internal/domain"
)

// BatchProcessorConfig holds the dependencies of a BatchProcessor.
type BatchProcessorConfig struct {
	TxManager  TransactionManager
	BatchRepo  MassPaymentRepository
	ItemRepo   MassPaymentItemRepository
	OutboxRepo OutboxRepository
	Router     *ItemRouter
	Locker     RunLocker
	IDGen      IDGenerator
	Recorder   Recorder
	Logger     zerolog.Logger
}

// BatchProcessor runs the pending items of a mass payment and settles its status.
type BatchProcessor struct {
	txManager  TransactionManager
	batchRepo  MassPaymentRepository
	itemRepo   MassPaymentItemRepository
	outboxRepo OutboxRepository
	router     *ItemRouter
	locker     RunLocker
	idGen      IDGenerator
	recorder   Recorder
	logger     zerolog.Logger
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(cfg BatchProcessorConfig) *BatchProcessor {
	if cfg.Recorder == nil {
		cfg.Recorder = NopRecorder{}
	}

	return &BatchProcessor{
		txManager:  cfg.TxManager,
		batchRepo:  cfg.BatchRepo,
		itemRepo:   cfg.ItemRepo,
		outboxRepo: cfg.OutboxRepo,
		router:     cfg.Router,
		locker:     cfg.Locker,
		idGen:      cfg.IDGen,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger.With().Str("component", "batch_processor").Logger(),
	}
}

// BatchRunResult summarizes one processing run.
type BatchRunResult struct {
	MassPaymentID string
	Status        domain.BatchStatus
	// Skipped is set when the batch was terminal or another run held the lock.
	Skipped   bool
	Processed int
	Succeeded int
	Failed    int
}

// Process routes every pending item of the mass payment. Re-running a terminal batch is
// a no-op. Unexpected errors mark the batch failed and are returned to the caller.
func (p *BatchProcessor) Process(ctx context.Context, massPaymentID string) (result *BatchRunResult, err error) {
	logger := p.logger.With().Str("batch_id", massPaymentID).Logger()

	release, acquired, err := p.locker.TryAcquire(ctx, MassPaymentLockKey(massPaymentID))
	if err != nil {
		return nil, fmt.Errorf("lock mass payment %s: %w", massPaymentID, err)
	}
	if !acquired {
		logger.Info().Msg("mass payment is being processed by another run")
		return &BatchRunResult{MassPaymentID: massPaymentID, Skipped: true}, nil
	}
	defer release()

	batch, err := p.batchRepo.GetByID(ctx, massPaymentID)
	if err != nil {
		return nil, fmt.Errorf("load mass payment %s: %w", massPaymentID, err)
	}

	if batch.Status.IsTerminal() {
		logger.Info().Str("status", string(batch.Status)).Msg("mass payment already finished, skipping")
		return &BatchRunResult{MassPaymentID: batch.ID, Status: batch.Status, Skipped: true}, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while processing mass payment %s: %v", massPaymentID, rec)
			p.markFailed(ctx, batch, err)
		}
	}()

	result, err = p.run(ctx, batch)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn().Err(err).Msg("mass payment run interrupted, remaining items stay pending")
			return result, err
		}
		p.markFailed(ctx, batch, err)
		return result, fmt.Errorf("process mass payment %s: %w", massPaymentID, err)
	}

	return result, nil
}

func (p *BatchProcessor) run(ctx context.Context, batch *domain.MassPayment) (*BatchRunResult, error) {
	result := &BatchRunResult{MassPaymentID: batch.ID, Status: domain.BatchStatusProcessing}

	// 1. Mark the batch processing
	if err := p.setStatus(ctx, batch.ID, domain.BatchStatusProcessing, nil); err != nil {
		return result, err
	}
	batch.Status = domain.BatchStatusProcessing

	// 2. Snapshot pending items
	items, err := p.itemRepo.ListPending(ctx, batch.ID)
	if err != nil {
		return result, err
	}

	p.logger.Info().Str("batch_id", batch.ID).Int("pending_items", len(items)).Msg("processing mass payment")

	// 3. Route each item in its own transaction
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		routed, err := p.router.Route(ctx, batch, item)
		if err != nil {
			return result, err
		}
		if routed.Skipped {
			continue
		}

		result.Processed++
		if routed.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	// 4. Settle the final status from the stored counters
	current, err := p.batchRepo.GetByID(ctx, batch.ID)
	if err != nil {
		return result, err
	}

	status, final := current.FinalStatus()
	if !final {
		p.logger.Warn().
			Str("batch_id", batch.ID).
			Int("pending_count", current.PendingCount).
			Msg("mass payment still has pending items after run")
		return result, nil
	}

	event := domain.MassPaymentFinishedEvent{
		MassPaymentID: current.ID,
		Status:        string(status),
		SuccessCount:  current.SuccessCount,
		FailureCount:  current.FailureCount,
	}
	if err := p.setStatus(ctx, batch.ID, status, event.Payload()); err != nil {
		return result, err
	}

	result.Status = status
	p.recorder.BatchFinished(status)
	p.logger.Info().
		Str("batch_id", batch.ID).
		Str("status", string(status)).
		Int("success_count", current.SuccessCount).
		Int("failure_count", current.FailureCount).
		Msg("mass payment finished")

	return result, nil
}

// setStatus updates the batch status and, when payload is set, writes the finished event
// in the same transaction.
func (p *BatchProcessor) setStatus(ctx context.Context, id string, status domain.BatchStatus, payload map[string]any) error {
	tx, err := p.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	if err := p.batchRepo.UpdateStatus(ctx, tx, id, status, now); err != nil {
		return err
	}

	if payload != nil {
		event := domain.NewOutboxEvent(p.idGen.Generate(), domain.AggregateTypeMassPayment, id,
			domain.EventTypeMassPaymentFinished, payload, now)
		if err := p.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// markFailed is best effort: a failure to save is logged and the run still ends.
func (p *BatchProcessor) markFailed(ctx context.Context, batch *domain.MassPayment, cause error) {
	p.recorder.RunFailed(domain.AggregateTypeMassPayment)
	p.logger.Error().Err(cause).Str("batch_id", batch.ID).Msg("mass payment run failed")

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTransactionTimeout)
	defer cancel()

	event := domain.MassPaymentFinishedEvent{
		MassPaymentID: batch.ID,
		Status:        string(domain.BatchStatusFailed),
		SuccessCount:  batch.SuccessCount,
		FailureCount:  batch.FailureCount,
	}
	if err := p.setStatus(saveCtx, batch.ID, domain.BatchStatusFailed, event.Payload()); err != nil {
		p.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to mark mass payment failed")
		return
	}
	p.recorder.BatchFinished(domain.BatchStatusFailed)
}
