package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iho/masspay/internal/domain"
	"github.com/iho/masspay/internal/usecase"
)

func (e *testEnv) addGroup(id string, phones ...string) {
	now := time.Now().UTC()
	e.store.AddGroup(&domain.RecipientGroup{
		ID:        id,
		Name:      "group " + id,
		IsActive:  true,
		Status:    domain.BatchStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	for i, phone := range phones {
		e.store.AddRecipient(&domain.GroupRecipient{
			ID:          id + "-r" + string(rune('0'+i)),
			GroupID:     id,
			PhoneNumber: phone,
			BankCode:    "SEDAD",
			Status:      domain.RecipientStatusPending,
			CreatedAt:   now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt:   now,
		})
	}
}

func TestGroupProcessor_MixedRecipients(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "0")
	env.addUser("p2", "22200002", "acc-2", "ACC002", "SEDAD", "0")
	env.addGroup("g-1", "22200001", "22299999", "22200002")

	result, err := env.groupProcessor().Process(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.BatchStatusPartiallyCompleted || result.Validated != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v, want partially completed 2/1", result)
	}

	recipients := env.store.Recipients("g-1")
	if len(recipients) != 3 {
		t.Fatalf("recipients = %d, want 3", len(recipients))
	}
	if recipients[0].Status != domain.RecipientStatusValidated || recipients[0].FullName != "Firstp1 Last" {
		t.Fatalf("first recipient = %+v", recipients[0])
	}
	if recipients[1].Status != domain.RecipientStatusFailed || recipients[1].FailureReason == nil {
		t.Fatalf("second recipient = %+v, want failed with reason", recipients[1])
	}
	if *recipients[1].FailureReason != domain.ReasonPartyNotFound {
		t.Fatalf("reason = %q, want %q", *recipients[1].FailureReason, domain.ReasonPartyNotFound)
	}
	if recipients[2].Status != domain.RecipientStatusValidated {
		t.Fatalf("third recipient = %s, want validated", recipients[2].Status)
	}

	if got := env.store.Group("g-1").Status; got != domain.BatchStatusPartiallyCompleted {
		t.Fatalf("group status = %s, want partially completed", got)
	}
	if events := env.store.Events(domain.EventTypeGroupFinished); len(events) != 1 {
		t.Fatalf("finished events = %d, want 1", len(events))
	}
}

func TestGroupProcessor_NoActiveAccountReason(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "BIMBANK", "0")
	env.addGroup("g-1", "22200001")

	result, err := env.groupProcessor().Process(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.BatchStatusPartiallyCompleted {
		t.Fatalf("status = %s, want partially completed", result.Status)
	}

	recipient := env.store.Recipients("g-1")[0]
	if recipient.FailureReason == nil || *recipient.FailureReason != domain.ReasonNoActiveAccount {
		t.Fatalf("reason = %v, want %q", recipient.FailureReason, domain.ReasonNoActiveAccount)
	}
}

func TestGroupProcessor_EmptyGroupCompletes(t *testing.T) {
	env := newTestEnv(t)
	env.addGroup("g-empty")

	result, err := env.groupProcessor().Process(context.Background(), "g-empty")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != domain.BatchStatusCompleted {
		t.Fatalf("status = %s, want completed", result.Status)
	}
	if got := env.store.Group("g-empty").Status; got != domain.BatchStatusCompleted {
		t.Fatalf("stored status = %s, want completed", got)
	}
}

func TestGroupProcessor_RerunKeepsEarlierFailures(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "0")
	env.addGroup("g-1", "22200001", "22299999")

	processor := env.groupProcessor()
	if _, err := processor.Process(context.Background(), "g-1"); err != nil {
		t.Fatalf("first Process() error = %v", err)
	}

	result, err := processor.Process(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("second Process() error = %v", err)
	}
	if result.Validated+result.Failed != 0 {
		t.Fatalf("rerun touched %d recipients, want none pending", result.Validated+result.Failed)
	}
	if result.Status != domain.BatchStatusPartiallyCompleted {
		t.Fatalf("status = %s, want partially completed", result.Status)
	}
}

func TestGroupProcessor_StorageErrorMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	recorder := &failureRecorder{}
	env.recorder = recorder
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "0")
	env.addGroup("g-1", "22200001")

	env.recipients.UpdateValidationFunc = func(context.Context, *domain.GroupRecipient) error {
		return errors.New("write timeout")
	}

	if _, err := env.groupProcessor().Process(context.Background(), "g-1"); err == nil {
		t.Fatal("expected error to be returned")
	}
	if got := env.store.Group("g-1").Status; got != domain.BatchStatusFailed {
		t.Fatalf("status = %s, want failed", got)
	}
	if got := recorder.count(domain.AggregateTypeGroup); got != 1 {
		t.Fatalf("failed runs = %d, want 1", got)
	}
}

func TestGroupProcessor_SkipsWhenLocked(t *testing.T) {
	env := newTestEnv(t)
	env.addGroup("g-1", "22200001")

	release := env.locker.Hold(usecase.GroupLockKey("g-1"))
	defer release()

	result, err := env.groupProcessor().Process(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !result.Skipped {
		t.Fatalf("result = %+v, want skipped", result)
	}
	if got := env.store.Group("g-1").Status; got != domain.BatchStatusPending {
		t.Fatalf("status = %s, want pending", got)
	}
}

func TestRecipientResolver_Deterministic(t *testing.T) {
	env := newTestEnv(t)
	env.addUser("p1", "22200001", "acc-1", "ACC001", "SEDAD", "0")

	first, err := env.resolver.Validate(context.Background(), "22200001", "SEDAD")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	second, err := env.resolver.Validate(context.Background(), "22200001", "SEDAD")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if *first != *second {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
	if !first.Exists || first.AccountNumber != "ACC001" {
		t.Fatalf("validation = %+v", first)
	}
}

func TestRecipientResolver_StorageErrorIsReturned(t *testing.T) {
	env := newTestEnv(t)
	env.parties.GetByPhoneFunc = func(context.Context, string) (*domain.Party, error) {
		return nil, errors.New("timeout")
	}

	_, err := env.resolver.Validate(context.Background(), "22200001", "SEDAD")
	if err == nil {
		t.Fatal("expected error")
	}
	if usecase.IsUnresolved(err) {
		t.Fatalf("storage error %v reported as unresolved", err)
	}
}
