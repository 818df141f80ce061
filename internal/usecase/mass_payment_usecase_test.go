package usecase_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
	"github.com/iho/masspay/internal/usecase/mocks"
)

func (e *testEnv) massPaymentUseCase(dispatcher usecase.Dispatcher) *usecase.MassPaymentUseCase {
	return usecase.NewMassPaymentUseCase(usecase.MassPaymentUseCaseConfig{
		TxManager:     e.txManager,
		AccountRepo:   e.accounts,
		BatchRepo:     e.batches,
		ItemRepo:      e.items,
		ProviderRepo:  e.providers,
		GroupRepo:     e.groups,
		RecipientRepo: e.recipients,
		OutboxRepo:    e.outbox,
		Resolver:      e.resolver,
		Dispatcher:    dispatcher,
		IDGen:         e.ids,
		Logger:        zerolog.Nop(),
	})
}

func seedCreationFixtures(env *testEnv) {
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addUser("p2", "22200002", "acc-2", "ACC002", "SEDAD", "0")
	env.store.AddProvider(&domain.BankProvider{ID: "bp-1", BankCode: "BIMBANK", Name: "BIM Bank", IsActive: true})
}

func TestCreateMassPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)

	env := newTestEnv(t)
	seedCreationFixtures(env)
	uc := env.massPaymentUseCase(dispatcher)

	var dispatched string
	dispatcher.EXPECT().DispatchBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string) error {
			// The batch must be committed before dispatch
			if env.store.Batch(id) == nil {
				t.Errorf("batch %s dispatched before commit", id)
			}
			dispatched = id
			return nil
		})

	summary, err := uc.CreateMassPayment(context.Background(), usecase.CreateMassPaymentInput{
		InitiatorAccountNumber: "ACC001",
		Description:            "salaries",
		Recipients: []usecase.RecipientInput{
			{PhoneNumber: "22200002", BankCode: "SEDAD", Amount: dec("100")},
			{PhoneNumber: "22277777", BankCode: "BIMBANK", Amount: dec("50.25")},
		},
	})
	if err != nil {
		t.Fatalf("CreateMassPayment() error = %v", err)
	}

	batch := summary.MassPayment
	if dispatched != batch.ID || !summary.Queued {
		t.Fatalf("dispatched = %q queued = %v, want %q queued", dispatched, summary.Queued, batch.ID)
	}
	if summary.RecipientsCount != 2 || summary.ExternalRecipientsCount != 1 {
		t.Fatalf("recipients = %d external = %d, want 2/1", summary.RecipientsCount, summary.ExternalRecipientsCount)
	}
	if !regexp.MustCompile(`^MP[0-9A-F]{8}$`).MatchString(batch.ReferenceCode) {
		t.Fatalf("reference %q has wrong format", batch.ReferenceCode)
	}
	if !summary.EstimatedCompletionTime.After(batch.CreatedAt) {
		t.Fatalf("estimated completion %s not after creation %s", summary.EstimatedCompletionTime, batch.CreatedAt)
	}

	stored := env.store.Batch(batch.ID)
	if stored == nil {
		t.Fatalf("batch %s not stored", batch.ID)
	}
	if stored.Status != domain.BatchStatusProcessing || stored.PendingCount != 2 {
		t.Fatalf("stored = %s pending %d, want processing pending 2", stored.Status, stored.PendingCount)
	}
	if !stored.TotalAmount.Equal(dec("150.25")) || !stored.FeeAmount.Equal(dec("1.00")) {
		t.Fatalf("total = %s fee = %s, want 150.25/1.00", stored.TotalAmount, stored.FeeAmount)
	}

	items := env.store.Items(batch.ID)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].DestinationPhone != "22200002" || items[1].DestinationPhone != "22277777" {
		t.Fatalf("item order = %s, %s", items[0].DestinationPhone, items[1].DestinationPhone)
	}
	for _, item := range items {
		if item.Status != domain.ItemStatusPending || !item.FeeAmount.Equal(dec("0.50")) {
			t.Fatalf("item = %+v, want pending with 0.50 fee", item)
		}
	}

	if events := env.store.Events(domain.EventTypeMassPaymentCreated); len(events) != 1 {
		t.Fatalf("created events = %d, want 1", len(events))
	}
	// Creation never touches balances
	assertBalance(t, env.store, "acc-1", "1000")
}

func TestCreateMassPayment_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(env *testEnv)
		input   usecase.CreateMassPaymentInput
		wantErr error
	}{
		{
			name: "unknown initiator",
			input: usecase.CreateMassPaymentInput{
				InitiatorAccountNumber: "NOPE",
				Recipients:             []usecase.RecipientInput{{PhoneNumber: "22200002", BankCode: "SEDAD", Amount: dec("1")}},
			},
			wantErr: domain.ErrInitiatorUnavailable,
		},
		{
			name: "blocked initiator",
			setup: func(env *testEnv) {
				acc := env.store.Account("acc-1")
				acc.IsBlocked = true
				env.store.AddAccount(acc)
			},
			input: usecase.CreateMassPaymentInput{
				InitiatorAccountNumber: "ACC001",
				Recipients:             []usecase.RecipientInput{{PhoneNumber: "22200002", BankCode: "SEDAD", Amount: dec("1")}},
			},
			wantErr: domain.ErrInitiatorUnavailable,
		},
		{
			name:    "no recipients",
			input:   usecase.CreateMassPaymentInput{InitiatorAccountNumber: "ACC001"},
			wantErr: domain.ErrNoRecipients,
		},
		{
			name: "zero amount",
			input: usecase.CreateMassPaymentInput{
				InitiatorAccountNumber: "ACC001",
				Recipients:             []usecase.RecipientInput{{PhoneNumber: "22200002", BankCode: "SEDAD", Amount: decimal.Zero}},
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "unreachable recipient",
			input: usecase.CreateMassPaymentInput{
				InitiatorAccountNumber: "ACC001",
				Recipients:             []usecase.RecipientInput{{PhoneNumber: "22299999", BankCode: "NOBANK", Amount: dec("1")}},
			},
			wantErr: domain.ErrInvalidRecipient,
		},
		{
			name: "insufficient funds for total and fees",
			input: usecase.CreateMassPaymentInput{
				InitiatorAccountNumber: "ACC001",
				Recipients:             []usecase.RecipientInput{{PhoneNumber: "22200002", BankCode: "SEDAD", Amount: dec("999.75")}},
			},
			wantErr: domain.ErrInsufficientBatchFunds,
		},
		{
			name: "duplicate reference",
			setup: func(env *testEnv) {
				env.addBatch("existing", "acc-1")
			},
			input: usecase.CreateMassPaymentInput{
				InitiatorAccountNumber: "ACC001",
				ReferenceCode:          "REF-existing",
				Recipients:             []usecase.RecipientInput{{PhoneNumber: "22200002", BankCode: "SEDAD", Amount: dec("1")}},
			},
			wantErr: domain.ErrDuplicateReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			dispatcher := mocks.NewMockDispatcher(ctrl)

			env := newTestEnv(t)
			seedCreationFixtures(env)
			if tt.setup != nil {
				tt.setup(env)
			}

			_, err := env.massPaymentUseCase(dispatcher).CreateMassPayment(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if n := len(env.store.Events(domain.EventTypeMassPaymentCreated)); n != 0 {
				t.Fatalf("created events = %d, want 0", n)
			}
		})
	}
}

func TestCreateMassPayment_DispatchFailureStillCreates(t *testing.T) {
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	dispatcher.EXPECT().DispatchBatch(gomock.Any(), gomock.Any()).Return(domain.ErrQueueFull)

	env := newTestEnv(t)
	seedCreationFixtures(env)

	summary, err := env.massPaymentUseCase(dispatcher).CreateMassPayment(context.Background(), usecase.CreateMassPaymentInput{
		InitiatorAccountNumber: "ACC001",
		Recipients:             []usecase.RecipientInput{{PhoneNumber: "22200002", BankCode: "SEDAD", Amount: dec("10")}},
	})
	if err != nil {
		t.Fatalf("CreateMassPayment() error = %v", err)
	}
	if summary.Queued {
		t.Fatal("expected queued = false after dispatch failure")
	}
	if env.store.Batch(summary.MassPayment.ID) == nil {
		t.Fatal("batch was not stored")
	}
}

func TestCreateFromGroup(t *testing.T) {
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	dispatcher.EXPECT().DispatchBatch(gomock.Any(), gomock.Any()).Return(nil)

	env := newTestEnv(t)
	seedCreationFixtures(env)
	env.addUser("p3", "22200003", "acc-3", "ACC003", "SEDAD", "0")
	env.addGroup("g-1", "22200002", "22200001", "22299999", "22200003")

	// Amounts: initiator and unknown recipient are skipped, the last has no default amount
	amount := dec("25")
	for _, r := range env.store.Recipients("g-1") {
		if r.PhoneNumber != "22200003" {
			r.DefaultAmount = &amount
			env.store.AddRecipient(r)
		}
	}

	summary, err := env.massPaymentUseCase(dispatcher).CreateFromGroup(context.Background(), usecase.CreateFromGroupInput{
		GroupID:                "g-1",
		InitiatorAccountNumber: "ACC001",
	})
	if err != nil {
		t.Fatalf("CreateFromGroup() error = %v", err)
	}
	if summary.RecipientsCount != 1 {
		t.Fatalf("recipients = %d, want 1", summary.RecipientsCount)
	}
	if got := summary.MassPayment.Description; got != "Mass payment to group group g-1" {
		t.Fatalf("description = %q", got)
	}

	items := env.store.Items(summary.MassPayment.ID)
	if len(items) != 1 || items[0].DestinationPhone != "22200002" {
		t.Fatalf("items = %+v, want one item for 22200002", items)
	}
}

func TestCreateFromGroup_NoValidRecipients(t *testing.T) {
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)

	env := newTestEnv(t)
	seedCreationFixtures(env)
	env.addGroup("g-empty")
	env.addGroup("g-1", "22299999")

	uc := env.massPaymentUseCase(dispatcher)

	_, err := uc.CreateFromGroup(context.Background(), usecase.CreateFromGroupInput{GroupID: "g-empty", InitiatorAccountNumber: "ACC001"})
	if !errors.Is(err, domain.ErrNoGroupRecipients) {
		t.Fatalf("empty group error = %v, want %v", err, domain.ErrNoGroupRecipients)
	}

	_, err = uc.CreateFromGroup(context.Background(), usecase.CreateFromGroupInput{GroupID: "g-1", InitiatorAccountNumber: "ACC001"})
	if !errors.Is(err, domain.ErrNoValidGroupRecipients) {
		t.Fatalf("unreachable group error = %v, want %v", err, domain.ErrNoValidGroupRecipients)
	}
}

func TestGetMassPayment_BankNames(t *testing.T) {
	env := newTestEnv(t)
	seedCreationFixtures(env)
	env.addBatch("mp-1", "acc-1",
		itemSpec{"22277777", "BIMBANK", "10"},
		itemSpec{"22288888", "NOBANK", "10"},
	)

	detail, err := env.massPaymentUseCase(nil).GetMassPayment(context.Background(), "mp-1")
	if err != nil {
		t.Fatalf("GetMassPayment() error = %v", err)
	}
	if len(detail.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(detail.Items))
	}
	if got := detail.BankNames["BIMBANK"]; got != "BIM Bank" {
		t.Fatalf("BIMBANK name = %q", got)
	}
	if got := detail.BankNames["NOBANK"]; got != domain.UnknownBankName {
		t.Fatalf("NOBANK name = %q, want %q", got, domain.UnknownBankName)
	}
}

func TestListByAccount(t *testing.T) {
	env := newTestEnv(t)
	seedCreationFixtures(env)
	env.addBatch("mp-1", "acc-1")
	env.addBatch("mp-2", "acc-1")
	env.addBatch("mp-3", "acc-2")

	batches, err := env.massPaymentUseCase(nil).ListByAccount(context.Background(), usecase.ListByAccountInput{AccountNumber: "ACC001"})
	if err != nil {
		t.Fatalf("ListByAccount() error = %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}

	_, err = env.massPaymentUseCase(nil).ListByAccount(context.Background(), usecase.ListByAccountInput{AccountNumber: "NOPE"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("unknown account error = %v, want %v", err, domain.ErrAccountNotFound)
	}
}

func TestValidateRecipient(t *testing.T) {
	env := newTestEnv(t)
	seedCreationFixtures(env)
	uc := env.massPaymentUseCase(nil)

	found, err := uc.ValidateRecipient(context.Background(), "22200002", "SEDAD")
	if err != nil {
		t.Fatalf("ValidateRecipient() error = %v", err)
	}
	if !found.Exists || found.AccountNumber != "ACC002" {
		t.Fatalf("found = %+v, want ACC002", found)
	}

	missing, err := uc.ValidateRecipient(context.Background(), "22299999", "SEDAD")
	if err != nil {
		t.Fatalf("ValidateRecipient() error = %v", err)
	}
	if missing.Exists || missing.Error != domain.ReasonPartyNotFound {
		t.Fatalf("missing = %+v, want %q", missing, domain.ReasonPartyNotFound)
	}

	_, err = uc.ValidateRecipient(context.Background(), "abc", "SEDAD")
	if !errors.Is(err, domain.ErrInvalidPhoneNumber) {
		t.Fatalf("bad phone error = %v, want %v", err, domain.ErrInvalidPhoneNumber)
	}
}

func TestNewReferenceCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := usecase.NewReferenceCode()
		if !regexp.MustCompile(`^MP[0-9A-F]{8}$`).MatchString(ref) {
			t.Fatalf("reference %q has wrong format", ref)
		}
		seen[ref] = true
	}
	if len(seen) < 99 {
		t.Fatalf("too many collisions: %d unique of 100", len(seen))
	}
}
