package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

// Store is the in-memory state shared by the mock repositories. Writes made through a
// MockTransaction are applied on Commit and dropped on Rollback.
type Store struct {
	mu         sync.Mutex
	accounts   map[string]*domain.Account
	parties    map[string]*domain.Party
	providers  map[string]*domain.BankProvider
	batches    map[string]*domain.MassPayment
	items      map[string]*domain.MassPaymentItem
	entries    map[string]*domain.Transaction
	groups     map[string]*domain.RecipientGroup
	recipients map[string]*domain.GroupRecipient
	events     []*domain.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]*domain.Account),
		parties:    make(map[string]*domain.Party),
		providers:  make(map[string]*domain.BankProvider),
		batches:    make(map[string]*domain.MassPayment),
		items:      make(map[string]*domain.MassPaymentItem),
		entries:    make(map[string]*domain.Transaction),
		groups:     make(map[string]*domain.RecipientGroup),
		recipients: make(map[string]*domain.GroupRecipient),
	}
}

// write applies op now, or on commit when tx is a MockTransaction bound to this store.
func (s *Store) write(tx usecase.Transaction, op func()) {
	if mtx, ok := tx.(*MockTransaction); ok && mtx.store == s {
		mtx.ops = append(mtx.ops, op)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	op()
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

// Seed helpers write directly, outside any transaction.

func (s *Store) AddParty(p *domain.Party) {
	s.write(nil, func() { s.parties[p.ID] = clone(p) })
}

func (s *Store) AddAccount(a *domain.Account) {
	s.write(nil, func() { s.accounts[a.ID] = clone(a) })
}

func (s *Store) AddProvider(p *domain.BankProvider) {
	s.write(nil, func() { s.providers[p.BankCode] = clone(p) })
}

func (s *Store) AddBatch(b *domain.MassPayment) {
	s.write(nil, func() { s.batches[b.ID] = clone(b) })
}

func (s *Store) AddItem(i *domain.MassPaymentItem) {
	s.write(nil, func() { s.items[i.ID] = clone(i) })
}

func (s *Store) AddGroup(g *domain.RecipientGroup) {
	s.write(nil, func() { s.groups[g.ID] = clone(g) })
}

func (s *Store) AddRecipient(r *domain.GroupRecipient) {
	s.write(nil, func() { s.recipients[r.ID] = clone(r) })
}

// Accessors return copies of the committed state.

func (s *Store) Account(id string) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		return clone(a)
	}
	return nil
}

func (s *Store) Batch(id string) *domain.MassPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.batches[id]; ok {
		return clone(b)
	}
	return nil
}

func (s *Store) Item(id string) *domain.MassPaymentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.items[id]; ok {
		return clone(i)
	}
	return nil
}

func (s *Store) Group(id string) *domain.RecipientGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[id]; ok {
		return clone(g)
	}
	return nil
}

// Items returns the items of a batch ordered by position.
func (s *Store) Items(batchID string) []*domain.MassPaymentItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked(func(i *domain.MassPaymentItem) bool { return i.MassPaymentID == batchID })
}

func (s *Store) itemsLocked(keep func(*domain.MassPaymentItem) bool) []*domain.MassPaymentItem {
	var out []*domain.MassPaymentItem
	for _, i := range s.items {
		if keep(i) {
			out = append(out, clone(i))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].MassPaymentID != out[b].MassPaymentID {
			return out[a].MassPaymentID < out[b].MassPaymentID
		}
		return out[a].Position < out[b].Position
	})
	return out
}

// Entries returns all transaction log entries ordered by ID.
func (s *Store) Entries() []*domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Transaction, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, clone(e))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Recipients returns the recipients of a group in insertion order.
func (s *Store) Recipients(groupID string) []*domain.GroupRecipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recipientsLocked(func(r *domain.GroupRecipient) bool { return r.GroupID == groupID })
}

func (s *Store) recipientsLocked(keep func(*domain.GroupRecipient) bool) []*domain.GroupRecipient {
	var out []*domain.GroupRecipient
	for _, r := range s.recipients {
		if keep(r) {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.Before(out[b].CreatedAt)
		}
		return out[a].ID < out[b].ID
	})
	return out
}

// Events returns outbox events of eventType, or all events when eventType is empty.
func (s *Store) Events(eventType string) []*domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range s.events {
		if eventType == "" || e.EventType == eventType {
			out = append(out, clone(e))
		}
	}
	return out
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	store     *Store
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
	// CommitErr, when set, fails every commit.
	CommitErr error
}

func NewMockTransactionManager(store *Store) *MockTransactionManager {
	return &MockTransactionManager{store: store}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &MockTransaction{store: m.store}
	if m.CommitErr != nil {
		err := m.CommitErr
		tx.CommitFunc = func(context.Context) error { return err }
	}
	return tx, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	store *Store
	ops   []func()
	done  bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	if m.done {
		return fmt.Errorf("transaction already closed")
	}
	m.done = true
	if m.store != nil {
		m.store.mu.Lock()
		defer m.store.mu.Unlock()
		for _, op := range m.ops {
			op()
		}
	}
	m.ops = nil
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.done = true
	m.ops = nil
	return nil
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	store *Store

	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

func NewMockAccountRepository(store *Store) *MockAccountRepository {
	return &MockAccountRepository{store: store}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	m.store.AddAccount(account)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if acc := m.store.Account(id); acc != nil {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return m.find(func(a *domain.Account) bool { return a.Number == number })
}

func (m *MockAccountRepository) FindActiveByPartyAndBank(ctx context.Context, partyID, bankCode string) (*domain.Account, error) {
	return m.find(func(a *domain.Account) bool {
		return a.PartyID == partyID && a.BankCode == bankCode && a.CanTransact()
	})
}

func (m *MockAccountRepository) FindFirstActiveByParty(ctx context.Context, partyID string) (*domain.Account, error) {
	return m.find(func(a *domain.Account) bool { return a.PartyID == partyID && a.CanTransact() })
}

// find returns the oldest matching account.
func (m *MockAccountRepository) find(match func(*domain.Account) bool) (*domain.Account, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	var found *domain.Account
	for _, a := range m.store.accounts {
		if !match(a) {
			continue
		}
		if found == nil || a.CreatedAt.Before(found.CreatedAt) ||
			(a.CreatedAt.Equal(found.CreatedAt) && a.ID < found.ID) {
			found = a
		}
	}
	if found == nil {
		return nil, domain.ErrAccountNotFound
	}
	return clone(found), nil
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.store.accounts[id]; ok {
			accounts = append(accounts, clone(a))
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	if m.store.Account(id) == nil {
		return domain.ErrAccountNotFound
	}
	m.store.write(tx, func() {
		a := m.store.accounts[id]
		a.Balance = balance
		a.UpdatedAt = updatedAt
	})
	return nil
}

// MockPartyRepository is a mock implementation of PartyRepository.
type MockPartyRepository struct {
	store *Store

	GetByPhoneFunc func(ctx context.Context, phone string) (*domain.Party, error)
}

func NewMockPartyRepository(store *Store) *MockPartyRepository {
	return &MockPartyRepository{store: store}
}

func (m *MockPartyRepository) Create(ctx context.Context, party *domain.Party) error {
	m.store.AddParty(party)
	return nil
}

func (m *MockPartyRepository) GetByID(ctx context.Context, id string) (*domain.Party, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if p, ok := m.store.parties[id]; ok {
		return clone(p), nil
	}
	return nil, domain.ErrPartyNotFound
}

func (m *MockPartyRepository) GetByPhone(ctx context.Context, phone string) (*domain.Party, error) {
	if m.GetByPhoneFunc != nil {
		return m.GetByPhoneFunc(ctx, phone)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, p := range m.store.parties {
		if p.PhoneNumber == phone {
			return clone(p), nil
		}
	}
	return nil, domain.ErrPartyNotFound
}

// MockBankProviderRepository is a mock implementation of BankProviderRepository.
type MockBankProviderRepository struct {
	store *Store
}

func NewMockBankProviderRepository(store *Store) *MockBankProviderRepository {
	return &MockBankProviderRepository{store: store}
}

func (m *MockBankProviderRepository) Create(ctx context.Context, provider *domain.BankProvider) error {
	m.store.AddProvider(provider)
	return nil
}

func (m *MockBankProviderRepository) GetByCode(ctx context.Context, bankCode string) (*domain.BankProvider, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if p, ok := m.store.providers[bankCode]; ok {
		return clone(p), nil
	}
	return nil, domain.ErrBankProviderNotFound
}

// MockMassPaymentRepository is a mock implementation of MassPaymentRepository.
type MockMassPaymentRepository struct {
	store *Store

	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, id string, status domain.BatchStatus, updatedAt time.Time) error
}

func NewMockMassPaymentRepository(store *Store) *MockMassPaymentRepository {
	return &MockMassPaymentRepository{store: store}
}

func (m *MockMassPaymentRepository) Create(ctx context.Context, tx usecase.Transaction, mp *domain.MassPayment) error {
	c := clone(mp)
	m.store.write(tx, func() { m.store.batches[c.ID] = c })
	return nil
}

func (m *MockMassPaymentRepository) GetByID(ctx context.Context, id string) (*domain.MassPayment, error) {
	if b := m.store.Batch(id); b != nil {
		return b, nil
	}
	return nil, domain.ErrMassPaymentNotFound
}

func (m *MockMassPaymentRepository) ExistsByReference(ctx context.Context, referenceCode string) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, b := range m.store.batches {
		if b.ReferenceCode == referenceCode {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockMassPaymentRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.BatchStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, updatedAt)
	}
	if m.store.Batch(id) == nil {
		return domain.ErrMassPaymentNotFound
	}
	m.store.write(tx, func() {
		b := m.store.batches[id]
		b.Status = status
		b.UpdatedAt = updatedAt
	})
	return nil
}

func (m *MockMassPaymentRepository) RecordItemOutcome(ctx context.Context, tx usecase.Transaction, id string, success bool, updatedAt time.Time) error {
	if m.store.Batch(id) == nil {
		return domain.ErrMassPaymentNotFound
	}
	m.store.write(tx, func() {
		b := m.store.batches[id]
		b.RecordOutcome(success)
		b.UpdatedAt = updatedAt
	})
	return nil
}

func (m *MockMassPaymentRepository) ListByInitiator(ctx context.Context, accountID string, limit, offset int) ([]*domain.MassPayment, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	var out []*domain.MassPayment
	for _, b := range m.store.batches {
		if b.InitiatorAccountID == accountID {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return page(out, limit, offset), nil
}

func (m *MockMassPaymentRepository) ListStale(ctx context.Context, status domain.BatchStatus, before time.Time, limit int) ([]*domain.MassPayment, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	var out []*domain.MassPayment
	for _, b := range m.store.batches {
		if b.Status == status && b.UpdatedAt.Before(before) {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].UpdatedAt.Before(out[b].UpdatedAt) })
	return page(out, limit, 0), nil
}

// MockItemRepository is a mock implementation of MassPaymentItemRepository.
type MockItemRepository struct {
	store *Store

	ListPendingFunc    func(ctx context.Context, massPaymentID string) ([]*domain.MassPaymentItem, error)
	MarkProcessingFunc func(ctx context.Context, id string, updatedAt time.Time) (bool, error)
}

func NewMockItemRepository(store *Store) *MockItemRepository {
	return &MockItemRepository{store: store}
}

func (m *MockItemRepository) Create(ctx context.Context, tx usecase.Transaction, item *domain.MassPaymentItem) error {
	c := clone(item)
	m.store.write(tx, func() { m.store.items[c.ID] = c })
	return nil
}

func (m *MockItemRepository) ListByMassPayment(ctx context.Context, massPaymentID string) ([]*domain.MassPaymentItem, error) {
	return m.store.Items(massPaymentID), nil
}

func (m *MockItemRepository) ListPending(ctx context.Context, massPaymentID string) ([]*domain.MassPaymentItem, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, massPaymentID)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return m.store.itemsLocked(func(i *domain.MassPaymentItem) bool {
		return i.MassPaymentID == massPaymentID && i.Status == domain.ItemStatusPending
	}), nil
}

func (m *MockItemRepository) MarkProcessing(ctx context.Context, id string, updatedAt time.Time) (bool, error) {
	if m.MarkProcessingFunc != nil {
		return m.MarkProcessingFunc(ctx, id, updatedAt)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	i, ok := m.store.items[id]
	if !ok {
		return false, domain.ErrItemNotFound
	}
	if i.Status != domain.ItemStatusPending {
		return false, nil
	}
	i.Status = domain.ItemStatusProcessing
	i.UpdatedAt = updatedAt
	return true, nil
}

func (m *MockItemRepository) Finish(ctx context.Context, tx usecase.Transaction, item *domain.MassPaymentItem) error {
	current := m.store.Item(item.ID)
	if current == nil {
		return domain.ErrItemNotFound
	}
	if !current.Status.CanTransitionTo(item.Status) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, current.Status, item.Status)
	}
	c := clone(item)
	m.store.write(tx, func() { m.store.items[c.ID] = c })
	return nil
}

func (m *MockItemRepository) ListStuck(ctx context.Context, before time.Time, limit int) ([]*domain.MassPaymentItem, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	items := m.store.itemsLocked(func(i *domain.MassPaymentItem) bool {
		return i.Status == domain.ItemStatusProcessing && i.UpdatedAt.Before(before)
	})
	return page(items, limit, 0), nil
}

func (m *MockItemRepository) FailStuck(ctx context.Context, tx usecase.Transaction, id, reason string, before, updatedAt time.Time) (bool, error) {
	current := m.store.Item(id)
	if current == nil || current.Status != domain.ItemStatusProcessing || !current.UpdatedAt.Before(before) {
		return false, nil
	}
	m.store.write(tx, func() {
		m.store.items[id].Fail(reason, updatedAt)
	})
	return true, nil
}

func (m *MockItemRepository) CountByStatus(ctx context.Context, massPaymentID string) (map[domain.ItemStatus]int, error) {
	counts := make(map[domain.ItemStatus]int)
	for _, i := range m.store.Items(massPaymentID) {
		counts[i.Status]++
	}
	return counts, nil
}

// MockTransactionLogRepository is a mock implementation of TransactionLogRepository.
type MockTransactionLogRepository struct {
	store *Store

	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error
}

func NewMockTransactionLogRepository(store *Store) *MockTransactionLogRepository {
	return &MockTransactionLogRepository{store: store}
}

func (m *MockTransactionLogRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Transaction) error {
	c := clone(entry)
	m.store.write(tx, func() { m.store.entries[c.ID] = c })
	return nil
}

func (m *MockTransactionLogRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if e, ok := m.store.entries[id]; ok {
		return clone(e), nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionLogRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, updatedAt)
	}
	m.store.write(tx, func() {
		if e, ok := m.store.entries[id]; ok {
			e.Status = status
			e.UpdatedAt = updatedAt
		}
	})
	return nil
}

// MockRecipientGroupRepository is a mock implementation of RecipientGroupRepository.
type MockRecipientGroupRepository struct {
	store *Store
}

func NewMockRecipientGroupRepository(store *Store) *MockRecipientGroupRepository {
	return &MockRecipientGroupRepository{store: store}
}

func (m *MockRecipientGroupRepository) Create(ctx context.Context, tx usecase.Transaction, group *domain.RecipientGroup) error {
	c := clone(group)
	m.store.write(tx, func() { m.store.groups[c.ID] = c })
	return nil
}

func (m *MockRecipientGroupRepository) GetByID(ctx context.Context, id string) (*domain.RecipientGroup, error) {
	if g := m.store.Group(id); g != nil {
		return g, nil
	}
	return nil, domain.ErrGroupNotFound
}

func (m *MockRecipientGroupRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.BatchStatus, updatedAt time.Time) error {
	if m.store.Group(id) == nil {
		return domain.ErrGroupNotFound
	}
	m.store.write(tx, func() {
		g := m.store.groups[id]
		g.Status = status
		g.UpdatedAt = updatedAt
	})
	return nil
}

func (m *MockRecipientGroupRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]*domain.RecipientGroup, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	var out []*domain.RecipientGroup
	for _, g := range m.store.groups {
		open := g.Status == domain.BatchStatusPending || g.Status == domain.BatchStatusProcessing
		if open && g.IsActive && g.UpdatedAt.Before(before) {
			out = append(out, clone(g))
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].UpdatedAt.Before(out[b].UpdatedAt) })
	return page(out, limit, 0), nil
}

// MockGroupRecipientRepository is a mock implementation of GroupRecipientRepository.
type MockGroupRecipientRepository struct {
	store *Store

	UpdateValidationFunc func(ctx context.Context, recipient *domain.GroupRecipient) error
}

func NewMockGroupRecipientRepository(store *Store) *MockGroupRecipientRepository {
	return &MockGroupRecipientRepository{store: store}
}

func (m *MockGroupRecipientRepository) Create(ctx context.Context, tx usecase.Transaction, recipient *domain.GroupRecipient) error {
	exists, _ := m.Exists(ctx, recipient.GroupID, recipient.PhoneNumber, recipient.BankCode)
	if exists {
		return domain.ErrRecipientExists
	}
	c := clone(recipient)
	m.store.write(tx, func() { m.store.recipients[c.ID] = c })
	return nil
}

func (m *MockGroupRecipientRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.GroupRecipient, error) {
	return m.store.Recipients(groupID), nil
}

func (m *MockGroupRecipientRepository) ListPending(ctx context.Context, groupID string) ([]*domain.GroupRecipient, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return m.store.recipientsLocked(func(r *domain.GroupRecipient) bool {
		return r.GroupID == groupID && r.Status == domain.RecipientStatusPending
	}), nil
}

func (m *MockGroupRecipientRepository) Exists(ctx context.Context, groupID, phone, bankCode string) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, r := range m.store.recipients {
		if r.GroupID == groupID && r.PhoneNumber == phone && r.BankCode == bankCode {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockGroupRecipientRepository) UpdateValidation(ctx context.Context, recipient *domain.GroupRecipient) error {
	if m.UpdateValidationFunc != nil {
		return m.UpdateValidationFunc(ctx, recipient)
	}
	c := clone(recipient)
	m.store.write(nil, func() { m.store.recipients[c.ID] = c })
	return nil
}

func (m *MockGroupRecipientRepository) CountByStatus(ctx context.Context, groupID string, status domain.RecipientStatus) (int, error) {
	n := 0
	for _, r := range m.store.Recipients(groupID) {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	store *Store
}

func NewMockOutboxRepository(store *Store) *MockOutboxRepository {
	return &MockOutboxRepository{store: store}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	c := clone(event)
	m.store.write(tx, func() { m.store.events = append(m.store.events, c) })
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.store.events {
		if !e.Published {
			out = append(out, clone(e))
		}
	}
	return page(out, limit, 0), nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.store.write(nil, func() {
		for _, e := range m.store.events {
			if e.ID == id {
				e.Published = true
				e.PublishedAt = &publishedAt
			}
		}
	})
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	m.store.write(nil, func() {
		kept := m.store.events[:0]
		for _, e := range m.store.events {
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				deleted++
				continue
			}
			kept = append(kept, e)
		}
		m.store.events = kept
	})
	return deleted, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%04d", m.counter)
}

// MockRunLocker is an in-process RunLocker.
type MockRunLocker struct {
	mu   sync.Mutex
	held map[string]bool

	TryAcquireFunc func(ctx context.Context, key string) (func(), bool, error)
}

func NewMockRunLocker() *MockRunLocker {
	return &MockRunLocker{held: make(map[string]bool)}
}

func (m *MockRunLocker) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	if m.TryAcquireFunc != nil {
		return m.TryAcquireFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return nil, false, nil
	}
	m.held[key] = true
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, key)
	}, true, nil
}

// Hold takes key until the returned func is called.
func (m *MockRunLocker) Hold(key string) func() {
	release, _, _ := m.TryAcquire(context.Background(), key)
	return release
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
