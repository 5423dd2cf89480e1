package settlement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-assets/core"
)

type rejectingInvoker struct{}

func (rejectingInvoker) InvokeFungible(context.Context, core.BalanceTransfer, uint64) Outcome {
	return FailedOutcome()
}

func (rejectingInvoker) InvokeToken(context.Context, core.TokenTransfer, uint64) Outcome {
	return FailedOutcome()
}

func seedPendingBalance(t *testing.T, store *MemoryStore, id string) Pending {
	t.Helper()
	msg := "handle"
	pending, err := store.Create(context.Background(), Pending{
		ID:    id,
		Asset: core.AssetFungible,
		Balance: &core.BalanceTransfer{
			Sender:   "alice.test",
			Receiver: "escrow.test",
			Amount:   core.Q64(10),
			Msg:      &msg,
		},
		Budget:         30,
		ReceiverBudget: 25,
	})
	if err != nil {
		t.Fatalf("seed settlement: %v", err)
	}
	return pending
}

func TestDispatchDueRetriesFailedDrive(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.Now = func() time.Time { return now }

	seedPendingBalance(t, store, "s-retry")

	dispatcher, err := NewDispatcher(store, rejectingInvoker{}, func(context.Context, string, Outcome) error {
		return fmt.Errorf("resolver offline")
	}, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	dispatcher.now = func() time.Time { return now }

	stats, err := dispatcher.DispatchDue(ctx, 10)
	if err == nil {
		t.Fatal("expected dispatch error from failing resolver")
	}
	if stats.Claimed != 1 || stats.Retried != 1 || stats.Resolved != 0 {
		t.Fatalf("unexpected stats after failure: %+v", stats)
	}

	released, err := store.Get(ctx, "s-retry")
	if err != nil {
		t.Fatalf("get settlement: %v", err)
	}
	if released.Status != StatusPending {
		t.Fatalf("failed drive must release the claim, status = %s", released.Status)
	}
	if released.NextAttemptAt.IsZero() || !released.NextAttemptAt.After(now) {
		t.Fatalf("expected a future next attempt, got %v", released.NextAttemptAt)
	}

	// Still inside the backoff window: nothing to claim.
	stats, err = dispatcher.DispatchDue(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch during backoff: %v", err)
	}
	if stats.Claimed != 0 {
		t.Fatalf("expected backoff to hide the settlement, claimed %d", stats.Claimed)
	}

	// Past the backoff a healthy resolver settles it.
	now = released.NextAttemptAt.Add(time.Second)
	dispatcher.ResolveBalance = func(ctx context.Context, id string, _ Outcome) error {
		_, err := store.Transition(ctx, id, StatusSettled, nil)
		return err
	}
	stats, err = dispatcher.DispatchDue(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch after backoff: %v", err)
	}
	if stats.Claimed != 1 || stats.Resolved != 1 {
		t.Fatalf("unexpected stats after recovery: %+v", stats)
	}
	settled, err := store.Get(ctx, "s-retry")
	if err != nil {
		t.Fatalf("get settled: %v", err)
	}
	if settled.Status != StatusSettled || settled.Attempts != 2 {
		t.Fatalf("expected settled after 2 attempts, got %s attempts=%d", settled.Status, settled.Attempts)
	}
}

func TestDispatchDueAbandonsAtMaxAttempts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.Now = func() time.Time { return now }

	seedPendingBalance(t, store, "s-abandon")

	dispatcher, err := NewDispatcher(store, rejectingInvoker{}, func(context.Context, string, Outcome) error {
		return fmt.Errorf("resolver offline")
	}, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	dispatcher.MaxAttempts = 2
	dispatcher.now = func() time.Time { return now }

	stats, _ := dispatcher.DispatchDue(ctx, 10)
	if stats.Retried != 1 {
		t.Fatalf("first attempt should be retried, stats %+v", stats)
	}
	released, err := store.Get(ctx, "s-abandon")
	if err != nil {
		t.Fatalf("get settlement: %v", err)
	}

	now = released.NextAttemptAt.Add(time.Second)
	stats, _ = dispatcher.DispatchDue(ctx, 10)
	if stats.Abandoned != 1 {
		t.Fatalf("final attempt should abandon, stats %+v", stats)
	}

	abandoned, err := store.Get(ctx, "s-abandon")
	if err != nil {
		t.Fatalf("get abandoned: %v", err)
	}
	if abandoned.Status != StatusAbandoned {
		t.Fatalf("expected abandoned status, got %s", abandoned.Status)
	}
	if abandoned.LastError == "" {
		t.Fatal("expected the drive error to be recorded")
	}

	// Terminal for good: no further claims.
	stats, err = dispatcher.DispatchDue(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch after abandon: %v", err)
	}
	if stats.Claimed != 0 {
		t.Fatalf("abandoned settlement must not be reclaimed, claimed %d", stats.Claimed)
	}
}
