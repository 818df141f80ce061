package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/masspay/internal/adapter/dispatch"
	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
	"github.com/iho/masspay/internal/usecase/mocks"
)

func TestBatchProcessor_AllInternalSucceed(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addUser("pa", "22200010", "acc-a", "ACC010", "SEDAD", "0")
	env.addUser("pb", "22200011", "acc-b", "ACC011", "SEDAD", "0")
	env.addBatch("mp-1", "acc-1",
		itemSpec{"22200010", "SEDAD", "100"},
		itemSpec{"22200011", "SEDAD", "200"},
	)

	result, err := env.batchProcessor(nil).Process(context.Background(), "mp-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.BatchStatusCompleted || result.Succeeded != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}

	assertBalance(t, env.store, "acc-1", "699")
	assertBalance(t, env.store, "acc-a", "100")
	assertBalance(t, env.store, "acc-b", "200")

	batch := env.store.Batch("mp-1")
	if batch.Status != domain.BatchStatusCompleted {
		t.Fatalf("status = %s, want completed", batch.Status)
	}
	assertCountersSum(t, batch, 2)

	for _, entry := range env.store.Entries() {
		if entry.Status != domain.TransactionStatusSuccess {
			t.Fatalf("entry %s status = %s", entry.ID, entry.Status)
		}
	}
	if n := len(env.store.Events(domain.EventTypeMassPaymentFinished)); n != 1 {
		t.Fatalf("finished events = %d, want 1", n)
	}
}

func TestBatchProcessor_InsufficientFundsMidBatch(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "150")
	env.addUser("pa", "22200010", "acc-a", "ACC010", "SEDAD", "0")
	env.addUser("pb", "22200011", "acc-b", "ACC011", "SEDAD", "0")
	env.addBatch("mp-1", "acc-1",
		itemSpec{"22200010", "SEDAD", "100"},
		itemSpec{"22200011", "SEDAD", "100"},
	)

	result, err := env.batchProcessor(nil).Process(context.Background(), "mp-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.BatchStatusPartiallyCompleted {
		t.Fatalf("status = %s, want partially_completed", result.Status)
	}

	items := env.store.Items("mp-1")
	if items[0].Status != domain.ItemStatusSuccess {
		t.Fatalf("first item = %s, want success", items[0].Status)
	}
	if items[1].Status != domain.ItemStatusFailed || *items[1].FailureReason != domain.ReasonInsufficientFunds {
		t.Fatalf("second item = %+v", items[1])
	}
	if n := len(env.store.Entries()); n != 1 {
		t.Fatalf("entries = %d, want 1 (none for the pre-check failure)", n)
	}

	assertBalance(t, env.store, "acc-1", "49.50")
	assertCountersSum(t, env.store.Batch("mp-1"), 2)
}

func TestBatchProcessor_AllExternalUnknownBank(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addBatch("mp-1", "acc-1",
		itemSpec{"22299991", "NOBANK", "10"},
		itemSpec{"22299992", "NOBANK", "20"},
	)

	result, err := env.batchProcessor(nil).Process(context.Background(), "mp-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.BatchStatusFailed || result.Failed != 2 {
		t.Fatalf("result = %+v", result)
	}
	for _, item := range env.store.Items("mp-1") {
		if *item.FailureReason != domain.ReasonBankNotSupported {
			t.Fatalf("reason = %q", *item.FailureReason)
		}
	}
	assertBalance(t, env.store, "acc-1", "1000")
	if n := len(env.store.Entries()); n != 0 {
		t.Fatalf("entries = %d, want 0", n)
	}
}

func TestBatchProcessor_MixedRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	gateway.EXPECT().Transfer(gomock.Any(), gomock.Any()).Return(nil)

	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addUser("pa", "22200010", "acc-a", "ACC010", "SEDAD", "0")
	env.store.AddProvider(&domain.BankProvider{ID: "bp-1", BankCode: "BIMBANK", Name: "BIM", IsActive: true})
	env.addBatch("mp-1", "acc-1",
		itemSpec{"22200010", "SEDAD", "100"},
		itemSpec{"22277777", "BIMBANK", "50"},
	)

	result, err := env.batchProcessor(gateway).Process(context.Background(), "mp-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.BatchStatusCompleted {
		t.Fatalf("status = %s", result.Status)
	}

	entries := env.store.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	external := 0
	for _, e := range entries {
		if e.IsExternal() {
			external++
		}
	}
	if external != 1 {
		t.Fatalf("external entries = %d, want 1", external)
	}
	assertBalance(t, env.store, "acc-1", "849")
}

func TestBatchProcessor_TerminalBatchIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addUser("pa", "22200010", "acc-a", "ACC010", "SEDAD", "0")
	env.addBatch("mp-1", "acc-1", itemSpec{"22200010", "SEDAD", "100"})

	processor := env.batchProcessor(nil)
	if _, err := processor.Process(context.Background(), "mp-1"); err != nil {
		t.Fatalf("first Process() error = %v", err)
	}
	before := env.store.Batch("mp-1")
	entriesBefore := len(env.store.Entries())

	result, err := processor.Process(context.Background(), "mp-1")
	if err != nil {
		t.Fatalf("second Process() error = %v", err)
	}
	if !result.Skipped {
		t.Fatalf("result = %+v, want skipped", result)
	}

	after := env.store.Batch("mp-1")
	if after.Status != before.Status || after.SuccessCount != before.SuccessCount || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("batch changed on rerun: before=%+v after=%+v", before, after)
	}
	if len(env.store.Entries()) != entriesBefore {
		t.Fatal("rerun appended log entries")
	}
	assertBalance(t, env.store, "acc-1", "899.50")
}

func TestBatchProcessor_ZeroItemsCompletes(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addBatch("mp-empty", "acc-1")

	result, err := env.batchProcessor(nil).Process(context.Background(), "mp-empty")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.BatchStatusCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
}

func TestBatchProcessor_SkipsWhenLocked(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addBatch("mp-1", "acc-1", itemSpec{"22200010", "SEDAD", "100"})

	release := env.locker.Hold(usecase.MassPaymentLockKey("mp-1"))
	defer release()

	result, err := env.batchProcessor(nil).Process(context.Background(), "mp-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !result.Skipped {
		t.Fatalf("result = %+v, want skipped", result)
	}
	if item := env.store.Items("mp-1")[0]; item.Status != domain.ItemStatusPending {
		t.Fatalf("item status = %s, want pending", item.Status)
	}
}

func TestBatchProcessor_CancelledLeavesRemainingPending(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addUser("pa", "22200010", "acc-a", "ACC010", "SEDAD", "0")
	env.addBatch("mp-1", "acc-1",
		itemSpec{"22200010", "SEDAD", "100"},
		itemSpec{"22200010", "SEDAD", "100"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	env.items.MarkProcessingFunc = func(_ context.Context, id string, at time.Time) (bool, error) {
		calls++
		cancel()
		// Behave like the real repository for the first item
		item := env.store.Item(id)
		item.Status = domain.ItemStatusProcessing
		item.UpdatedAt = at
		env.store.AddItem(item)
		return true, nil
	}

	_, err := env.batchProcessor(nil).Process(ctx, "mp-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Process() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("MarkProcessing calls = %d, want 1", calls)
	}

	batch := env.store.Batch("mp-1")
	if batch.Status != domain.BatchStatusProcessing {
		t.Fatalf("status = %s, want processing", batch.Status)
	}
	if items := env.store.Items("mp-1"); items[1].Status != domain.ItemStatusPending {
		t.Fatalf("second item = %s, want pending", items[1].Status)
	}
	assertCountersSum(t, batch, 2)
}

func TestBatchProcessor_RunErrorMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addBatch("mp-1", "acc-1", itemSpec{"22200010", "SEDAD", "100"})

	env.items.ListPendingFunc = func(context.Context, string) ([]*domain.MassPaymentItem, error) {
		return nil, errors.New("connection refused")
	}

	_, err := env.batchProcessor(nil).Process(context.Background(), "mp-1")
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if got := env.store.Batch("mp-1").Status; got != domain.BatchStatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}

func TestBatchProcessor_FailedRunCountedOnceThroughPool(t *testing.T) {
	env := newTestEnv(t)
	recorder := &failureRecorder{}
	env.recorder = recorder
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addBatch("mp-1", "acc-1", itemSpec{"22200010", "SEDAD", "100"})

	env.items.ListPendingFunc = func(context.Context, string) ([]*domain.MassPaymentItem, error) {
		return nil, errors.New("connection refused")
	}

	pool := dispatch.NewPool(dispatch.Config{
		Batches:  env.batchProcessor(nil),
		Recorder: recorder,
		Logger:   zerolog.Nop(),
		Workers:  1,
	})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = pool.Run(ctx)
		close(stopped)
	}()

	if err := pool.DispatchBatch(context.Background(), "mp-1"); err != nil {
		t.Fatalf("DispatchBatch() error = %v", err)
	}
	// Run drains queued work before returning.
	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop")
	}

	if got := env.store.Batch("mp-1").Status; got != domain.BatchStatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
	if got := recorder.count(domain.AggregateTypeMassPayment); got != 1 {
		t.Fatalf("failed runs = %d, want 1", got)
	}
}

func TestBatchProcessor_PanicMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "1000")
	env.addBatch("mp-1", "acc-1", itemSpec{"22200010", "SEDAD", "100"})

	env.items.MarkProcessingFunc = func(context.Context, string, time.Time) (bool, error) {
		panic("boom")
	}

	_, err := env.batchProcessor(nil).Process(context.Background(), "mp-1")
	if err == nil {
		t.Fatal("expected error from panic")
	}
	if got := env.store.Batch("mp-1").Status; got != domain.BatchStatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
}

func TestBatchProcessor_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.batchProcessor(nil).Process(context.Background(), "missing")
	if !errors.Is(err, domain.ErrMassPaymentNotFound) {
		t.Fatalf("error = %v, want ErrMassPaymentNotFound", err)
	}
}
