package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/masspay/internal/domain"
)

// GroupProcessorConfig holds the dependencies of a GroupProcessor.
type GroupProcessorConfig struct {
	TxManager     TransactionManager
	GroupRepo     RecipientGroupRepository
	RecipientRepo GroupRecipientRepository
	OutboxRepo    OutboxRepository
	Resolver      *RecipientResolver
	Locker        RunLocker
	IDGen         IDGenerator
	Recorder      Recorder
	Logger        zerolog.Logger
	// Concurrency bounds parallel recipient lookups within one run.
	Concurrency int
}

// GroupProcessor validates the pending recipients of a group and settles its status.
type GroupProcessor struct {
	txManager     TransactionManager
	groupRepo     RecipientGroupRepository
	recipientRepo GroupRecipientRepository
	outboxRepo    OutboxRepository
	resolver      *RecipientResolver
	locker        RunLocker
	idGen         IDGenerator
	recorder      Recorder
	logger        zerolog.Logger
	concurrency   int
}

// NewGroupProcessor creates a new GroupProcessor.
func NewGroupProcessor(cfg GroupProcessorConfig) *GroupProcessor {
	if cfg.Recorder == nil {
		cfg.Recorder = NopRecorder{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultGroupValidationConcurrency
	}

	return &GroupProcessor{
		txManager:     cfg.TxManager,
		groupRepo:     cfg.GroupRepo,
		recipientRepo: cfg.RecipientRepo,
		outboxRepo:    cfg.OutboxRepo,
		resolver:      cfg.Resolver,
		locker:        cfg.Locker,
		idGen:         cfg.IDGen,
		recorder:      cfg.Recorder,
		logger:        cfg.Logger.With().Str("component", "group_processor").Logger(),
		concurrency:   cfg.Concurrency,
	}
}

// GroupRunResult summarizes one group run.
type GroupRunResult struct {
	GroupID   string
	Status    domain.BatchStatus
	Skipped   bool
	Validated int
	Failed    int
}

// Process validates every pending recipient of the group. Recipients that were already
// validated or failed are left alone, so re-running is safe. Unexpected errors mark the
// group failed and are returned to the caller.
func (p *GroupProcessor) Process(ctx context.Context, groupID string) (result *GroupRunResult, err error) {
	release, acquired, err := p.locker.TryAcquire(ctx, GroupLockKey(groupID))
	if err != nil {
		return nil, fmt.Errorf("lock recipient group %s: %w", groupID, err)
	}
	if !acquired {
		p.logger.Info().Str("group_id", groupID).Msg("recipient group is being processed by another run")
		return &GroupRunResult{GroupID: groupID, Skipped: true}, nil
	}
	defer release()

	group, err := p.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load recipient group %s: %w", groupID, err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while processing recipient group %s: %v", groupID, rec)
			p.markFailed(ctx, group.ID, err)
		}
	}()

	result, err = p.run(ctx, group)
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Warn().Err(err).Str("group_id", groupID).Msg("recipient group run interrupted")
			return result, err
		}
		p.markFailed(ctx, group.ID, err)
		return result, fmt.Errorf("process recipient group %s: %w", groupID, err)
	}

	return result, nil
}

func (p *GroupProcessor) run(ctx context.Context, group *domain.RecipientGroup) (*GroupRunResult, error) {
	result := &GroupRunResult{GroupID: group.ID, Status: domain.BatchStatusProcessing}

	if err := p.setStatus(ctx, group.ID, domain.BatchStatusProcessing, nil); err != nil {
		return result, err
	}

	recipients, err := p.recipientRepo.ListPending(ctx, group.ID)
	if err != nil {
		return result, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, recipient := range recipients {
		g.Go(func() error {
			validated, err := p.validate(gctx, recipient)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if validated {
				result.Validated++
			} else {
				result.Failed++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	// Failures from earlier runs count too
	failed, err := p.recipientRepo.CountByStatus(ctx, group.ID, domain.RecipientStatusFailed)
	if err != nil {
		return result, err
	}

	status := domain.GroupStatusFor(failed)
	event := domain.GroupFinishedEvent{
		GroupID:     group.ID,
		Status:      string(status),
		FailedCount: failed,
	}
	if err := p.setStatus(ctx, group.ID, status, event.Payload()); err != nil {
		return result, err
	}

	result.Status = status
	p.recorder.GroupFinished(status)
	p.logger.Info().
		Str("group_id", group.ID).
		Str("status", string(status)).
		Int("validated", result.Validated).
		Int("failed", result.Failed).
		Msg("recipient group processed")

	return result, nil
}

func (p *GroupProcessor) validate(ctx context.Context, recipient *domain.GroupRecipient) (bool, error) {
	validation, err := p.resolver.Validate(ctx, recipient.PhoneNumber, recipient.BankCode)
	if err != nil {
		return false, fmt.Errorf("validate recipient %s: %w", recipient.ID, err)
	}

	now := time.Now().UTC()
	if validation.Exists {
		recipient.Validate(validation.FullName, now)
	} else {
		recipient.Fail(validation.Error, now)
	}

	if err := p.recipientRepo.UpdateValidation(ctx, recipient); err != nil {
		return false, fmt.Errorf("save recipient %s: %w", recipient.ID, err)
	}

	return validation.Exists, nil
}

func (p *GroupProcessor) setStatus(ctx context.Context, id string, status domain.BatchStatus, payload map[string]any) error {
	tx, err := p.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	if err := p.groupRepo.UpdateStatus(ctx, tx, id, status, now); err != nil {
		return err
	}

	if payload != nil {
		event := domain.NewOutboxEvent(p.idGen.Generate(), domain.AggregateTypeGroup, id,
			domain.EventTypeGroupFinished, payload, now)
		if err := p.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (p *GroupProcessor) markFailed(ctx context.Context, groupID string, cause error) {
	p.recorder.RunFailed(domain.AggregateTypeGroup)
	p.logger.Error().Err(cause).Str("group_id", groupID).Msg("recipient group run failed")

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTransactionTimeout)
	defer cancel()

	event := domain.GroupFinishedEvent{GroupID: groupID, Status: string(domain.BatchStatusFailed)}
	if err := p.setStatus(saveCtx, groupID, domain.BatchStatusFailed, event.Payload()); err != nil {
		p.logger.Error().Err(err).Str("group_id", groupID).Msg("failed to mark recipient group failed")
		return
	}
	p.recorder.GroupFinished(domain.BatchStatusFailed)
}
