package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iho/masspay/internal/adapter/dispatch"
	httpAdapter "github.com/iho/masspay/internal/adapter/http"
	"github.com/iho/masspay/internal/adapter/http/handler"
	"github.com/iho/masspay/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/masspay/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/masspay/internal/adapter/repository/redis"
	"github.com/iho/masspay/internal/app"
	"github.com/iho/masspay/internal/infrastructure/config"
	"github.com/iho/masspay/internal/infrastructure/eventpublisher"
	"github.com/iho/masspay/internal/infrastructure/logger"
	"github.com/iho/masspay/internal/infrastructure/metrics"
	"github.com/iho/masspay/internal/infrastructure/postgres"
	"github.com/iho/masspay/internal/infrastructure/redis"
	"github.com/iho/masspay/internal/infrastructure/sweeper"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logg := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "masspay",
		Version: version,
	})
	log.Logger = logg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DatabaseMaxConns,
		MinConns:        cfg.DatabaseMinConns,
		ConnectTimeout:  cfg.DatabaseTimeout,
		ApplicationName: "masspay",
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	logg.Info().Msg("connected to postgres")

	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logg); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to Redis
	redisClient, err := redis.NewClientWithOptions(ctx, cfg.RedisURL, redis.Options{PoolSize: cfg.RedisPoolSize})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	logg.Info().Msg("connected to redis")

	// HTTP middleware metrics live on the default registry too; /metrics serves it.
	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories
	repos := app.NewRepositories(pool, cfg.DatabaseLockTimeout)
	repos.CacheProviders(redisClient, cfg.BankProviderCacheTTL, logg)
	locker := app.NewRunLocker(cfg, pool, redisClient, logg)

	// Initialize processors and the dispatch pool
	procs := app.NewProcessors(app.ProcessorConfig{
		Repos:            repos,
		Gateway:          app.NewGateway(cfg, logg, m),
		Locker:           locker,
		Retrier:          postgresRepo.NewRetrier(logg),
		Recorder:         m,
		Logger:           logg,
		GroupConcurrency: cfg.GroupValidationConcurrency,
	})

	dispatcher := dispatch.NewPool(dispatch.Config{
		Batches:        procs.Batches,
		Groups:         procs.Groups,
		Recorder:       m,
		Logger:         logg,
		Workers:        cfg.DispatchWorkers,
		QueueSize:      cfg.DispatchQueueSize,
		EnqueueTimeout: cfg.DispatchEnqueueTimeout,
		DrainTimeout:   cfg.HTTPShutdownTimeout,
	})

	// Initialize use cases
	ucs := app.NewUseCases(app.UseCaseConfig{
		Repos:             repos,
		Resolver:          procs.Resolver,
		Dispatcher:        dispatcher,
		Locker:            locker,
		Recorder:          m,
		Logger:            logg,
		FeePerTransaction: cfg.FeePerTransaction,
		SweepStuckAfter:   cfg.SweepStuckAfter,
		SweepBatchSize:    cfg.SweepBatchSize,
	})

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo:      repos.Outbox,
		Publisher:       newEventSink(cfg, redisClient, logg),
		Logger:          logg,
		Interval:        cfg.EventPublishInterval,
		CleanupInterval: cfg.EventCleanupInterval,
		Retention:       cfg.EventRetention,
		OnPublished:     m.EventPublished,
	})
	sweep := sweeper.NewRunner(ucs.Reconciliation, cfg.SweepInterval, logg)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		MassPaymentHandler: handler.NewMassPaymentHandler(ucs.MassPayments, ucs.Reconciliation),
		GroupHandler:       handler.NewGroupHandler(ucs.Groups),
		HealthHandler: handler.NewHealthHandler(
			handler.PingFunc(pool.Ping),
			handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		),
		IdempotencyStore: redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      limiter,
		HTTPMetrics:      middleware.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Logger:           logg,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error { return ignoreCanceled(publisher.Start(gctx)) })
	g.Go(func() error { return ignoreCanceled(sweep.Start(gctx)) })
	g.Go(func() error { return limiter.Run(gctx, time.Minute) })
	g.Go(func() error {
		logg.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logg.Info().Msg("server stopped")
	return nil
}

// newEventSink returns where the outbox publisher delivers events.
func newEventSink(cfg *config.Config, client goredis.UniversalClient, logger zerolog.Logger) eventpublisher.Publisher {
	if cfg.EventSink == config.EventSinkRedis && client != nil {
		return redisRepo.NewChannelPublisher(client, cfg.EventChannel)
	}
	return eventpublisher.NewLogPublisher(logger)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
