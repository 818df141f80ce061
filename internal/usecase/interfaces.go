package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/masspay/internal/domain"
)

// AccountRepository defines data access for ledger accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	// FindActiveByPartyAndBank returns an active, unblocked account of the party at bankCode.
	FindActiveByPartyAndBank(ctx context.Context, partyID, bankCode string) (*domain.Account, error)
	FindFirstActiveByParty(ctx context.Context, partyID string) (*domain.Account, error)
	// GetByIDsForUpdate locks rows in ascending ID order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

// PartyRepository defines data access for parties.
type PartyRepository interface {
	Create(ctx context.Context, party *domain.Party) error
	GetByID(ctx context.Context, id string) (*domain.Party, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Party, error)
}

// BankProviderRepository defines data access for bank providers.
type BankProviderRepository interface {
	Create(ctx context.Context, provider *domain.BankProvider) error
	GetByCode(ctx context.Context, bankCode string) (*domain.BankProvider, error)
}

// MassPaymentRepository defines data access for mass payments.
type MassPaymentRepository interface {
	Create(ctx context.Context, tx Transaction, mp *domain.MassPayment) error
	GetByID(ctx context.Context, id string) (*domain.MassPayment, error)
	ExistsByReference(ctx context.Context, referenceCode string) (bool, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.BatchStatus, updatedAt time.Time) error
	// RecordItemOutcome decrements pending_count and increments success_count or failure_count.
	RecordItemOutcome(ctx context.Context, tx Transaction, id string, success bool, updatedAt time.Time) error
	ListByInitiator(ctx context.Context, accountID string, limit, offset int) ([]*domain.MassPayment, error)
	// ListStale returns batches in status whose updated_at is before the cutoff.
	ListStale(ctx context.Context, status domain.BatchStatus, before time.Time, limit int) ([]*domain.MassPayment, error)
}

// MassPaymentItemRepository defines data access for mass payment items.
type MassPaymentItemRepository interface {
	Create(ctx context.Context, tx Transaction, item *domain.MassPaymentItem) error
	ListByMassPayment(ctx context.Context, massPaymentID string) ([]*domain.MassPaymentItem, error)
	// ListPending returns pending items ordered by position.
	ListPending(ctx context.Context, massPaymentID string) ([]*domain.MassPaymentItem, error)
	// MarkProcessing moves a pending item to processing. It reports false if the item was not pending.
	MarkProcessing(ctx context.Context, id string, updatedAt time.Time) (bool, error)
	// Finish writes the terminal state of an item that is processing.
	Finish(ctx context.Context, tx Transaction, item *domain.MassPaymentItem) error
	ListStuck(ctx context.Context, before time.Time, limit int) ([]*domain.MassPaymentItem, error)
	// FailStuck fails an item still processing since before. It reports false if the item moved on.
	FailStuck(ctx context.Context, tx Transaction, id, reason string, before, updatedAt time.Time) (bool, error)
	CountByStatus(ctx context.Context, massPaymentID string) (map[domain.ItemStatus]int, error)
}

// TransactionLogRepository defines data access for the transaction log.
type TransactionLogRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error
}

// RecipientGroupRepository defines data access for recipient groups.
type RecipientGroupRepository interface {
	Create(ctx context.Context, tx Transaction, group *domain.RecipientGroup) error
	GetByID(ctx context.Context, id string) (*domain.RecipientGroup, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.BatchStatus, updatedAt time.Time) error
	// ListStale returns groups that are pending or processing and untouched since before.
	ListStale(ctx context.Context, before time.Time, limit int) ([]*domain.RecipientGroup, error)
}

// GroupRecipientRepository defines data access for group recipients.
type GroupRecipientRepository interface {
	Create(ctx context.Context, tx Transaction, recipient *domain.GroupRecipient) error
	ListByGroup(ctx context.Context, groupID string) ([]*domain.GroupRecipient, error)
	ListPending(ctx context.Context, groupID string) ([]*domain.GroupRecipient, error)
	Exists(ctx context.Context, groupID, phone, bankCode string) (bool, error)
	UpdateValidation(ctx context.Context, recipient *domain.GroupRecipient) error
	CountByStatus(ctx context.Context, groupID string, status domain.RecipientStatus) (int, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	// DeletePublished removes events published before the cutoff and returns how many.
	DeletePublished(ctx context.Context, before time.Time) (int64, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries operations that failed with transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// RunLocker grants exclusive processing rights for a batch or group.
type RunLocker interface {
	// TryAcquire returns acquired=false without error when another holder owns key.
	TryAcquire(ctx context.Context, key string) (release func(), acquired bool, err error)
}

// ExternalTransfer is a payment leaving the ledger through a bank provider.
type ExternalTransfer struct {
	Reference        string
	Provider         *domain.BankProvider
	DestinationPhone string
	Amount           decimal.Decimal
}

// Gateway moves money to an external bank. A nil error means the transfer succeeded.
type Gateway interface {
	Transfer(ctx context.Context, transfer ExternalTransfer) error
}

// Dispatcher schedules processing runs after their records are committed.
type Dispatcher interface {
	DispatchBatch(ctx context.Context, massPaymentID string) error
	DispatchGroup(ctx context.Context, groupID string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not succeed so the client can retry.
	Release(ctx context.Context, key string) error
}
