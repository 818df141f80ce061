// Package sweeper runs the stale-run repair on a fixed interval.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/masspay/internal/usecase"
)

// Sweeper repairs stale processing state.
type Sweeper interface {
	Sweep(ctx context.Context) (*usecase.SweepReport, error)
}

// Runner calls Sweep every interval until its context ends.
type Runner struct {
	sweeper  Sweeper
	interval time.Duration
	logger   zerolog.Logger
}

func NewRunner(sweeper Sweeper, interval time.Duration, logger zerolog.Logger) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Logger(),
	}
}

// Start sweeps once immediately and then on every tick. It returns ctx.Err() on shutdown.
func (r *Runner) Start(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.interval).Msg("sweeper started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	report, err := r.sweeper.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Error().Err(err).Msg("sweep failed")
		return
	}
	r.logger.Debug().
		Int("items_failed", report.ItemsFailed).
		Int("batches_redispatched", report.BatchesRedispatched).
		Int("groups_redispatched", report.GroupsRedispatched).
		Msg("sweep finished")
}
