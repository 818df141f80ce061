// Package eventpublisher relays outbox events to an external sink after the
// transaction that produced them has committed.
package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

const (
	defaultBatchSize       = 100
	defaultInterval        = 5 * time.Second
	defaultCleanupInterval = time.Hour
	// maxDrainRounds bounds how many full batches one tick relays.
	maxDrainRounds = 10
)

// Publisher delivers one event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher. Zero durations and sizes take the defaults.
type Config struct {
	OutboxRepo      usecase.OutboxRepository
	Publisher       Publisher
	Logger          zerolog.Logger
	BatchSize       int
	Interval        time.Duration
	CleanupInterval time.Duration
	// Retention is how long published events are kept. Zero keeps them forever.
	Retention time.Duration
	// OnPublished is called after an event is marked published.
	OnPublished func(eventType string)
}

// EventPublisher polls the outbox and relays unpublished events in creation order.
// An event that fails to publish stays unpublished and is retried on the next tick.
type EventPublisher struct {
	outboxRepo      usecase.OutboxRepository
	publisher       Publisher
	logger          zerolog.Logger
	batchSize       int
	interval        time.Duration
	cleanupInterval time.Duration
	retention       time.Duration
	onPublished     func(eventType string)
	now             func() time.Time
}

func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	if cfg.OnPublished == nil {
		cfg.OnPublished = func(string) {}
	}

	return &EventPublisher{
		outboxRepo:      cfg.OutboxRepo,
		publisher:       cfg.Publisher,
		logger:          cfg.Logger.With().Str("component", "event_publisher").Logger(),
		batchSize:       cfg.BatchSize,
		interval:        cfg.Interval,
		cleanupInterval: cfg.CleanupInterval,
		retention:       cfg.Retention,
		onPublished:     cfg.OnPublished,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Start relays events until ctx is cancelled and returns ctx.Err().
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Dur("retention", ep.retention).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()
	cleanupTicker := time.NewTicker(ep.cleanupInterval)
	defer cleanupTicker.Stop()

	ep.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			ep.tick(ctx)
		case <-cleanupTicker.C:
			if err := ep.cleanup(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("error deleting published events")
			}
		}
	}
}

// tick keeps fetching while the outbox returns full batches.
func (ep *EventPublisher) tick(ctx context.Context) {
	total := 0
	for round := 0; round < maxDrainRounds; round++ {
		fetched, published, err := ep.processEvents(ctx)
		total += published
		if err != nil {
			ep.logger.Error().Err(err).Msg("error processing events")
			break
		}
		if fetched < ep.batchSize || published == 0 || ctx.Err() != nil {
			break
		}
	}
	if total > 0 {
		ep.logger.Debug().Int("published", total).Msg("relayed outbox events")
	}
}

// processEvents relays one batch and reports how many events it fetched and published.
func (ep *EventPublisher) processEvents(ctx context.Context) (int, int, error) {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return 0, 0, err
	}

	published := 0
	for _, event := range events {
		log := ep.logger.With().Str("event_id", event.ID).Str("event_type", event.EventType).Logger()

		if err := ep.publisher.Publish(ctx, event); err != nil {
			log.Error().Err(err).Msg("failed to publish event")
			continue
		}
		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now()); err != nil {
			log.Error().Err(err).Msg("failed to mark event as published")
			continue
		}
		ep.onPublished(event.EventType)
		published++
	}

	return len(events), published, nil
}

func (ep *EventPublisher) cleanup(ctx context.Context) error {
	if ep.retention <= 0 {
		return nil
	}
	deleted, err := ep.outboxRepo.DeletePublished(ctx, ep.now().Add(-ep.retention))
	if err != nil {
		return err
	}
	if deleted > 0 {
		ep.logger.Info().Int64("deleted", deleted).Dur("retention", ep.retention).Msg("pruned published events")
	}
	return nil
}

// LogPublisher writes each event to the log. It is the sink when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}
