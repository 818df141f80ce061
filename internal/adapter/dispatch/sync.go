package dispatch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// SyncDispatcher runs work inline in the caller's goroutine. The CLI uses it so a command
// returns only once its run is finished.
type SyncDispatcher struct {
	batches BatchRunner
	groups  GroupRunner
	logger  zerolog.Logger
}

func NewSyncDispatcher(batches BatchRunner, groups GroupRunner, logger zerolog.Logger) *SyncDispatcher {
	return &SyncDispatcher{batches: batches, groups: groups, logger: logger}
}

func (d *SyncDispatcher) DispatchBatch(ctx context.Context, massPaymentID string) error {
	result, err := d.batches.Process(ctx, massPaymentID)
	if err != nil {
		return err
	}
	if result.Skipped {
		d.logger.Info().Str("batch_id", massPaymentID).Msg("mass payment skipped")
		return nil
	}
	d.logger.Info().
		Str("batch_id", massPaymentID).
		Str("status", string(result.Status)).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("mass payment processed")
	return nil
}

func (d *SyncDispatcher) DispatchGroup(ctx context.Context, groupID string) error {
	result, err := d.groups.Process(ctx, groupID)
	if err != nil {
		return fmt.Errorf("group %s: %w", groupID, err)
	}
	d.logger.Info().
		Str("group_id", groupID).
		Str("status", string(result.Status)).
		Bool("skipped", result.Skipped).
		Int("validated", result.Validated).
		Int("failed", result.Failed).
		Msg("recipient group processed")
	return nil
}
