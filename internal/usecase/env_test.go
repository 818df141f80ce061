package usecase_test

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
	"github.com/iho/masspay/internal/usecase/mocks"
)

// testEnv wires the mock repositories around one shared store.
type testEnv struct {
	store      *mocks.Store
	txManager  *mocks.MockTransactionManager
	accounts   *mocks.MockAccountRepository
	parties    *mocks.MockPartyRepository
	providers  *mocks.MockBankProviderRepository
	batches    *mocks.MockMassPaymentRepository
	items      *mocks.MockItemRepository
	txLog      *mocks.MockTransactionLogRepository
	groups     *mocks.MockRecipientGroupRepository
	recipients *mocks.MockGroupRecipientRepository
	outbox     *mocks.MockOutboxRepository
	ids        *mocks.MockIDGenerator
	locker     *mocks.MockRunLocker
	recorder   usecase.Recorder
	resolver   *usecase.RecipientResolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := mocks.NewStore()
	env := &testEnv{
		store:      store,
		txManager:  mocks.NewMockTransactionManager(store),
		accounts:   mocks.NewMockAccountRepository(store),
		parties:    mocks.NewMockPartyRepository(store),
		providers:  mocks.NewMockBankProviderRepository(store),
		batches:    mocks.NewMockMassPaymentRepository(store),
		items:      mocks.NewMockItemRepository(store),
		txLog:      mocks.NewMockTransactionLogRepository(store),
		groups:     mocks.NewMockRecipientGroupRepository(store),
		recipients: mocks.NewMockGroupRecipientRepository(store),
		outbox:     mocks.NewMockOutboxRepository(store),
		ids:        mocks.NewMockIDGenerator(),
		locker:     mocks.NewMockRunLocker(),
	}
	env.resolver = usecase.NewRecipientResolver(env.parties, env.accounts)
	return env
}

func (e *testEnv) router(gateway usecase.Gateway) *usecase.ItemRouter {
	return usecase.NewItemRouter(usecase.ItemRouterConfig{
		TxManager:    e.txManager,
		AccountRepo:  e.accounts,
		BatchRepo:    e.batches,
		ItemRepo:     e.items,
		TxLogRepo:    e.txLog,
		ProviderRepo: e.providers,
		Resolver:     e.resolver,
		Gateway:      gateway,
		IDGen:        e.ids,
		Logger:       zerolog.Nop(),
	})
}

func (e *testEnv) batchProcessor(gateway usecase.Gateway) *usecase.BatchProcessor {
	return usecase.NewBatchProcessor(usecase.BatchProcessorConfig{
		TxManager:  e.txManager,
		BatchRepo:  e.batches,
		ItemRepo:   e.items,
		OutboxRepo: e.outbox,
		Router:     e.router(gateway),
		Locker:     e.locker,
		Recorder:   e.recorder,
		IDGen:      e.ids,
		Logger:     zerolog.Nop(),
	})
}

func (e *testEnv) groupProcessor() *usecase.GroupProcessor {
	return usecase.NewGroupProcessor(usecase.GroupProcessorConfig{
		TxManager:     e.txManager,
		GroupRepo:     e.groups,
		RecipientRepo: e.recipients,
		OutboxRepo:    e.outbox,
		Resolver:      e.resolver,
		Locker:        e.locker,
		Recorder:      e.recorder,
		IDGen:         e.ids,
		Logger:        zerolog.Nop(),
		Concurrency:   2,
	})
}

// failureRecorder counts failed runs per kind.
type failureRecorder struct {
	usecase.NopRecorder
	mu     sync.Mutex
	failed map[string]int
}

func (r *failureRecorder) RunFailed(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed == nil {
		r.failed = make(map[string]int)
	}
	r.failed[kind]++
}

func (r *failureRecorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed[kind]
}

// addUser seeds a party with one active account.
func (e *testEnv) addUser(partyID, phone, accountID, number, bank, balance string) {
	e.store.AddParty(&domain.Party{
		ID:          partyID,
		PhoneNumber: phone,
		FirstName:   "First" + partyID,
		LastName:    "Last",
	})
	e.store.AddAccount(&domain.Account{
		ID:        accountID,
		Number:    number,
		PartyID:   partyID,
		BankCode:  bank,
		Balance:   dec(balance),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
}

type itemSpec struct {
	phone  string
	bank   string
	amount string
}

// addBatch seeds a processing batch with pending items and returns it.
func (e *testEnv) addBatch(id, initiatorID string, specs ...itemSpec) *domain.MassPayment {
	now := time.Now().UTC()
	fee := dec(usecase.DefaultFeePerTransaction)
	total := decimal.Zero

	for i, s := range specs {
		total = total.Add(dec(s.amount))
		e.store.AddItem(&domain.MassPaymentItem{
			ID:                  id + "-item-" + string(rune('a'+i)),
			MassPaymentID:       id,
			Position:            i,
			DestinationPhone:    s.phone,
			DestinationBankCode: s.bank,
			Amount:              dec(s.amount),
			FeeAmount:           fee,
			Status:              domain.ItemStatusPending,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}

	batch := &domain.MassPayment{
		ID:                 id,
		ReferenceCode:      "REF-" + id,
		InitiatorAccountID: initiatorID,
		TotalAmount:        total,
		FeeAmount:          fee.Mul(decimal.NewFromInt(int64(len(specs)))),
		Status:             domain.BatchStatusProcessing,
		PendingCount:       len(specs),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	e.store.AddBatch(batch)
	return batch
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertBalance(t *testing.T, store *mocks.Store, accountID, want string) {
	t.Helper()
	acc := store.Account(accountID)
	if acc == nil {
		t.Fatalf("account %s not found", accountID)
	}
	if !acc.Balance.Equal(dec(want)) {
		t.Fatalf("account %s balance = %s, want %s", accountID, acc.Balance, want)
	}
}

func assertCountersSum(t *testing.T, batch *domain.MassPayment, items int) {
	t.Helper()
	if got := batch.PendingCount + batch.SuccessCount + batch.FailureCount; got != items {
		t.Fatalf("counters sum to %d, want %d (pending=%d success=%d failure=%d)",
			got, items, batch.PendingCount, batch.SuccessCount, batch.FailureCount)
	}
}
