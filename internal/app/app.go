// Package app assembles the repositories, processors and use cases shared by the
// server and the CLI.
package app

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/iho/masspay/internal/adapter/gateway"
	"github.com/iho/masspay/internal/adapter/lock"
	postgresRepo "github.com/iho/masspay/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/masspay/internal/adapter/repository/redis"
	"github.com/iho/masspay/internal/infrastructure/config"
	"github.com/iho/masspay/internal/infrastructure/metrics"
	"github.com/iho/masspay/internal/usecase"
)

const bankProviderNamespace = "bank_providers"

// Repositories groups the storage ports.
type Repositories struct {
	TxManager  usecase.TransactionManager
	Accounts   usecase.AccountRepository
	Parties    usecase.PartyRepository
	Providers  usecase.BankProviderRepository
	Batches    usecase.MassPaymentRepository
	Items      usecase.MassPaymentItemRepository
	TxLogs     usecase.TransactionLogRepository
	Groups     usecase.RecipientGroupRepository
	Recipients usecase.GroupRecipientRepository
	Outbox     usecase.OutboxRepository
	IDGen      usecase.IDGenerator
}

// NewRepositories creates the PostgreSQL repositories. lockTimeout bounds row lock waits; zero leaves the server default.
func NewRepositories(pool *pgxpool.Pool, lockTimeout time.Duration) *Repositories {
	return &Repositories{
		TxManager:  postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(lockTimeout)),
		Accounts:   postgresRepo.NewAccountRepository(pool),
		Parties:    postgresRepo.NewPartyRepository(pool),
		Providers:  postgresRepo.NewBankProviderRepository(pool),
		Batches:    postgresRepo.NewMassPaymentRepository(pool),
		Items:      postgresRepo.NewMassPaymentItemRepository(pool),
		TxLogs:     postgresRepo.NewTransactionLogRepository(pool),
		Groups:     postgresRepo.NewRecipientGroupRepository(pool),
		Recipients: postgresRepo.NewGroupRecipientRepository(pool),
		Outbox:     postgresRepo.NewOutboxRepository(pool),
		IDGen:      postgresRepo.NewULIDGenerator(),
	}
}

// CacheProviders puts a Redis read-through cache in front of bank provider lookups.
func (r *Repositories) CacheProviders(client redis.UniversalClient, ttl time.Duration, logger zerolog.Logger) {
	cache := redisRepo.NewCache(client, bankProviderNamespace)
	r.Providers = redisRepo.NewCachedBankProviderRepository(r.Providers, cache, ttl, logger)
}

// NewGateway builds the external transfer chain for cfg.GatewayMode:
// instrumented, then bounded by GatewayTimeout, then guarded by a per-bank breaker.
func NewGateway(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) usecase.Gateway {
	var base usecase.Gateway
	switch cfg.GatewayMode {
	case config.GatewayModeHTTP:
		base = gateway.NewHTTPGateway(&http.Client{})
	default:
		base = gateway.NewSimulatedGateway(logger)
	}

	breakerCfg := gateway.DefaultBreakerConfig()
	breakerCfg.ConsecutiveFailures = cfg.BreakerFailureThreshold
	breakerCfg.Timeout = cfg.BreakerOpenTimeout

	breaker := gateway.NewBreakerGateway(base, breakerCfg, logger, func(bankCode string, _, to gobreaker.State) {
		m.SetBreakerOpen(bankCode, to != gobreaker.StateClosed)
	})

	return gateway.NewInstrumentedGateway(gateway.NewTimeoutGateway(breaker, cfg.GatewayTimeout), m)
}

// NewRunLocker returns the run lock for cfg.LockBackend.
func NewRunLocker(cfg *config.Config, pool *pgxpool.Pool, client redis.UniversalClient, logger zerolog.Logger) usecase.RunLocker {
	if cfg.LockBackend == config.LockBackendRedis && client != nil {
		return lock.NewRedisRunLocker(client, cfg.LockTTL, logger)
	}
	return lock.NewPostgresRunLocker(pool, logger)
}

// ProcessorConfig holds the dependencies of the background processors.
type ProcessorConfig struct {
	Repos            *Repositories
	Gateway          usecase.Gateway
	Locker           usecase.RunLocker
	Retrier          usecase.Retrier
	Recorder         usecase.Recorder
	Logger           zerolog.Logger
	GroupConcurrency int
}

// Processors are the runners behind a dispatcher.
type Processors struct {
	Resolver *usecase.RecipientResolver
	Batches  *usecase.BatchProcessor
	Groups   *usecase.GroupProcessor
}

// NewProcessors wires the item router into the batch processor and builds the group processor.
func NewProcessors(cfg ProcessorConfig) *Processors {
	if cfg.Recorder == nil {
		cfg.Recorder = usecase.NopRecorder{}
	}
	repos := cfg.Repos
	resolver := usecase.NewRecipientResolver(repos.Parties, repos.Accounts)

	router := usecase.NewItemRouter(usecase.ItemRouterConfig{
		TxManager:    repos.TxManager,
		AccountRepo:  repos.Accounts,
		BatchRepo:    repos.Batches,
		ItemRepo:     repos.Items,
		TxLogRepo:    repos.TxLogs,
		ProviderRepo: repos.Providers,
		Resolver:     resolver,
		Gateway:      cfg.Gateway,
		Retrier:      cfg.Retrier,
		IDGen:        repos.IDGen,
		Recorder:     cfg.Recorder,
		Logger:       cfg.Logger,
	})

	return &Processors{
		Resolver: resolver,
		Batches: usecase.NewBatchProcessor(usecase.BatchProcessorConfig{
			TxManager:  repos.TxManager,
			BatchRepo:  repos.Batches,
			ItemRepo:   repos.Items,
			OutboxRepo: repos.Outbox,
			Router:     router,
			Locker:     cfg.Locker,
			IDGen:      repos.IDGen,
			Recorder:   cfg.Recorder,
			Logger:     cfg.Logger,
		}),
		Groups: usecase.NewGroupProcessor(usecase.GroupProcessorConfig{
			TxManager:     repos.TxManager,
			GroupRepo:     repos.Groups,
			RecipientRepo: repos.Recipients,
			OutboxRepo:    repos.Outbox,
			Resolver:      resolver,
			Locker:        cfg.Locker,
			IDGen:         repos.IDGen,
			Recorder:      cfg.Recorder,
			Logger:        cfg.Logger,
			Concurrency:   cfg.GroupConcurrency,
		}),
	}
}

// UseCaseConfig holds the dependencies of the request-facing use cases.
type UseCaseConfig struct {
	Repos             *Repositories
	Resolver          *usecase.RecipientResolver
	Dispatcher        usecase.Dispatcher
	Locker            usecase.RunLocker
	Recorder          usecase.Recorder
	Logger            zerolog.Logger
	FeePerTransaction decimal.Decimal
	SweepStuckAfter   time.Duration
	SweepBatchSize    int
}

// UseCases are the operations exposed over HTTP and the CLI.
type UseCases struct {
	MassPayments   *usecase.MassPaymentUseCase
	Groups         *usecase.GroupUseCase
	Reconciliation *usecase.ReconciliationUseCase
}

func NewUseCases(cfg UseCaseConfig) *UseCases {
	if cfg.Recorder == nil {
		cfg.Recorder = usecase.NopRecorder{}
	}
	repos := cfg.Repos

	return &UseCases{
		MassPayments: usecase.NewMassPaymentUseCase(usecase.MassPaymentUseCaseConfig{
			TxManager:         repos.TxManager,
			AccountRepo:       repos.Accounts,
			BatchRepo:         repos.Batches,
			ItemRepo:          repos.Items,
			ProviderRepo:      repos.Providers,
			GroupRepo:         repos.Groups,
			RecipientRepo:     repos.Recipients,
			OutboxRepo:        repos.Outbox,
			Resolver:          cfg.Resolver,
			Dispatcher:        cfg.Dispatcher,
			IDGen:             repos.IDGen,
			Logger:            cfg.Logger,
			FeePerTransaction: cfg.FeePerTransaction,
		}),
		Groups: usecase.NewGroupUseCase(usecase.GroupUseCaseConfig{
			TxManager:     repos.TxManager,
			PartyRepo:     repos.Parties,
			AccountRepo:   repos.Accounts,
			GroupRepo:     repos.Groups,
			RecipientRepo: repos.Recipients,
			OutboxRepo:    repos.Outbox,
			Resolver:      cfg.Resolver,
			Dispatcher:    cfg.Dispatcher,
			IDGen:         repos.IDGen,
			Logger:        cfg.Logger,
		}),
		Reconciliation: usecase.NewReconciliationUseCase(usecase.ReconciliationConfig{
			TxManager:  repos.TxManager,
			BatchRepo:  repos.Batches,
			ItemRepo:   repos.Items,
			GroupRepo:  repos.Groups,
			Resolver:   cfg.Resolver,
			Locker:     cfg.Locker,
			Dispatcher: cfg.Dispatcher,
			Recorder:   cfg.Recorder,
			Logger:     cfg.Logger,
			StuckAfter: cfg.SweepStuckAfter,
			BatchSize:  cfg.SweepBatchSize,
		}),
	}
}
