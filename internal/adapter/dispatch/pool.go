// Package dispatch runs batch and group processing off the request path.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

// ErrPoolStopped is returned by dispatches made after shutdown began.
var ErrPoolStopped = errors.New("dispatch pool is stopped")

const (
	kindBatch = "mass_payment"
	kindGroup = "recipient_group"
)

// BatchRunner processes one mass payment.
type BatchRunner interface {
	Process(ctx context.Context, massPaymentID string) (*usecase.BatchRunResult, error)
}

// GroupRunner validates one recipient group.
type GroupRunner interface {
	Process(ctx context.Context, groupID string) (*usecase.GroupRunResult, error)
}

// Config for Pool.
type Config struct {
	Batches  BatchRunner
	Groups   GroupRunner
	Recorder usecase.Recorder
	Logger   zerolog.Logger

	Workers        int
	QueueSize      int
	EnqueueTimeout time.Duration // How long a dispatch waits for queue space
	DrainTimeout   time.Duration // How long Run waits for queued runs on shutdown
}

type task struct {
	kind string
	id   string
}

// Pool is a bounded worker pool implementing usecase.Dispatcher.
// A full queue rejects new work with domain.ErrQueueFull after EnqueueTimeout.
type Pool struct {
	batches  BatchRunner
	groups   GroupRunner
	recorder usecase.Recorder
	logger   zerolog.Logger

	workers        int
	enqueueTimeout time.Duration
	drainTimeout   time.Duration

	tasks chan task

	mu     sync.RWMutex
	closed bool

	// runs outlive the request that dispatched them
	runCtx    context.Context
	cancelRun context.CancelFunc
	wg        sync.WaitGroup
}

// NewPool creates a pool. Call Run to start the workers.
func NewPool(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 30 * time.Second
	}
	if cfg.Recorder == nil {
		cfg.Recorder = usecase.NopRecorder{}
	}

	runCtx, cancel := context.WithCancel(context.Background())

	return &Pool{
		batches:        cfg.Batches,
		groups:         cfg.Groups,
		recorder:       cfg.Recorder,
		logger:         cfg.Logger.With().Str("component", "dispatch_pool").Logger(),
		workers:        cfg.Workers,
		enqueueTimeout: cfg.EnqueueTimeout,
		drainTimeout:   cfg.DrainTimeout,
		tasks:          make(chan task, cfg.QueueSize),
		runCtx:         runCtx,
		cancelRun:      cancel,
	}
}

func (p *Pool) DispatchBatch(ctx context.Context, massPaymentID string) error {
	return p.enqueue(ctx, task{kind: kindBatch, id: massPaymentID})
}

func (p *Pool) DispatchGroup(ctx context.Context, groupID string) error {
	return p.enqueue(ctx, task{kind: kindGroup, id: groupID})
}

// Depth returns the number of queued runs.
func (p *Pool) Depth() int {
	return len(p.tasks)
}

func (p *Pool) enqueue(ctx context.Context, t task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolStopped
	}

	timer := time.NewTimer(p.enqueueTimeout)
	defer timer.Stop()

	select {
	case p.tasks <- t:
		p.recorder.TaskQueued(t.kind, len(p.tasks))
		return nil
	case <-timer.C:
		p.recorder.TaskRejected(t.kind)
		p.logger.Warn().Str("kind", t.kind).Str("id", t.id).Msg("dispatch queue full, run rejected")
		return domain.ErrQueueFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the workers and blocks until ctx is cancelled. It then stops accepting work
// and waits up to DrainTimeout for queued runs before cancelling the ones still going.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info().Int("workers", p.workers).Int("queue_size", cap(p.tasks)).Msg("dispatch pool started")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	<-ctx.Done()
	p.logger.Info().Int("queued", len(p.tasks)).Msg("dispatch pool draining")

	p.mu.Lock()
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(p.drainTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		p.logger.Warn().Msg("drain timeout reached, cancelling running work")
		p.cancelRun()
		<-done
	}
	p.cancelRun()

	p.logger.Info().Msg("dispatch pool stopped")
	return nil
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for t := range p.tasks {
		if p.runCtx.Err() != nil {
			// Left pending for the sweeper.
			continue
		}
		p.execute(t)
	}
}

func (p *Pool) execute(t task) {
	logger := p.logger.With().Str("kind", t.kind).Str("id", t.id).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			p.recorder.RunFailed(t.kind)
			logger.Error().Interface("panic", rec).Msg("run panicked")
		}
	}()

	start := time.Now()
	// Run failures are counted by the processors; only panics escape them.
	err := p.process(t)
	if err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("run failed")
		return
	}
	logger.Debug().Dur("duration", time.Since(start)).Msg("run finished")
}

func (p *Pool) process(t task) error {
	switch t.kind {
	case kindBatch:
		_, err := p.batches.Process(p.runCtx, t.id)
		return err
	case kindGroup:
		_, err := p.groups.Process(p.runCtx, t.id)
		return err
	default:
		return fmt.Errorf("unknown task kind %q", t.kind)
	}
}
