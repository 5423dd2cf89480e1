package nonfungible

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/settlement"
)

type tokenReceiverFunc func(ctx context.Context, sender, previousOwner, tokenID, msg string) (bool, error)

func (f tokenReceiverFunc) OnTransfer(ctx context.Context, sender, previousOwner, tokenID, msg string) (bool, error) {
	return f(ctx, sender, previousOwner, tokenID, msg)
}

type tokenCallFixture struct {
	exec     *Executor
	store    *settlement.MemoryStore
	notifier *Notifier
	resolver *Resolver
	registry *settlement.ReceiverRegistry
}

func newTokenCallFixture(t *testing.T) *tokenCallFixture {
	t.Helper()
	exec := NewExecutor(NewMemoryLedger())
	store := settlement.NewMemoryStore()
	resolver := NewResolver(exec, store)
	registry := settlement.NewReceiverRegistry()
	scheduler := &settlement.InlineScheduler{
		Store:        store,
		Invoker:      registry,
		ResolveToken: resolver.ResolveFunc(),
	}
	notifier := NewNotifier(exec, store, scheduler, core.SettlementConfig{})
	return &tokenCallFixture{exec: exec, store: store, notifier: notifier, resolver: resolver, registry: registry}
}

func msgPtr(s string) *string { return &s }

func TestTokenTransferCallBudgetFailsBeforeMutation(t *testing.T) {
	fx := newTokenCallFixture(t)
	mustMint(t, fx.exec, "token-1", "alice")

	_, err := fx.notifier.TransferCall(context.Background(), core.TokenTransfer{
		TokenID:  "token-1",
		Owner:    "alice",
		Sender:   "alice",
		Receiver: "gallery",
		Msg:      msgPtr("exhibit"),
	}, core.DefaultTransferCallBudget-1)

	var budget *core.InsufficientBudgetError
	if !errors.As(err, &budget) {
		t.Fatalf("expected insufficient budget, got %v", err)
	}
	if owner, _ := ownerOf(t, fx.exec, "token-1"); owner != "alice" {
		t.Fatalf("underfunded call moved token to %q", owner)
	}
}

func TestTokenTransferCallReceiverKeeps(t *testing.T) {
	fx := newTokenCallFixture(t)
	ctx := context.Background()
	mustMint(t, fx.exec, "token-1", "alice")

	fx.registry.RegisterToken("gallery", tokenReceiverFunc(
		func(_ context.Context, sender, previousOwner, tokenID, msg string) (bool, error) {
			if sender != "alice" || previousOwner != "alice" || tokenID != "token-1" {
				t.Fatalf("unexpected receiver arguments: %q %q %q", sender, previousOwner, tokenID)
			}
			if msg != "exhibit" {
				t.Fatalf("unexpected msg %q", msg)
			}
			// false = keep the token.
			return false, nil
		}))

	pending, err := fx.notifier.TransferCall(ctx, core.TokenTransfer{
		TokenID:  "token-1",
		Owner:    "alice",
		Sender:   "alice",
		Receiver: "gallery",
		Msg:      msgPtr("exhibit"),
	}, core.DefaultTransferCallBudget)
	if err != nil {
		t.Fatalf("transfer call: %v", err)
	}

	if owner, _ := ownerOf(t, fx.exec, "token-1"); owner != "gallery" {
		t.Fatalf("expected gallery to keep token, got %q", owner)
	}
	resolved, _ := fx.store.Get(ctx, pending.ID)
	if resolved.Status != settlement.StatusSettled {
		t.Fatalf("expected settled, got %s", resolved.Status)
	}
}

func TestTokenTransferCallReceiverReturns(t *testing.T) {
	fx := newTokenCallFixture(t)
	ctx := context.Background()
	mustMint(t, fx.exec, "token-1", "alice")

	fx.registry.RegisterToken("gallery", tokenReceiverFunc(
		func(context.Context, string, string, string, string) (bool, error) {
			return true, nil
		}))

	pending, err := fx.notifier.TransferCall(ctx, core.TokenTransfer{
		TokenID:  "token-1",
		Owner:    "alice",
		Sender:   "alice",
		Receiver: "gallery",
		Msg:      msgPtr("exhibit"),
	}, core.DefaultTransferCallBudget)
	if err != nil {
		t.Fatalf("transfer call: %v", err)
	}

	if owner, _ := ownerOf(t, fx.exec, "token-1"); owner != "alice" {
		t.Fatalf("expected token returned to alice, got %q", owner)
	}
	resolved, _ := fx.store.Get(ctx, pending.ID)
	if resolved.Status != settlement.StatusReverted {
		t.Fatalf("expected reverted, got %s", resolved.Status)
	}
}

func TestTokenTransferCallReceiverPanicReverts(t *testing.T) {
	fx := newTokenCallFixture(t)
	ctx := context.Background()
	mustMint(t, fx.exec, "token-1", "alice")

	fx.registry.RegisterToken("gallery", tokenReceiverFunc(
		func(context.Context, string, string, string, string) (bool, error) {
			panic("receiver exploded")
		}))

	pending, err := fx.notifier.TransferCall(ctx, core.TokenTransfer{
		TokenID:  "token-1",
		Owner:    "alice",
		Sender:   "alice",
		Receiver: "gallery",
		Msg:      msgPtr("exhibit"),
	}, core.DefaultTransferCallBudget)
	if err != nil {
		t.Fatalf("transfer call: %v", err)
	}

	if owner, _ := ownerOf(t, fx.exec, "token-1"); owner != "alice" {
		t.Fatalf("expected token returned after receiver panic, got %q", owner)
	}
	resolved, _ := fx.store.Get(ctx, pending.ID)
	if resolved.Status != settlement.StatusReverted {
		t.Fatalf("expected reverted, got %s", resolved.Status)
	}
}

func TestTokenResolveSkipsReversalWhenReceiverMovedToken(t *testing.T) {
	fx := newTokenCallFixture(t)
	ctx := context.Background()
	mustMint(t, fx.exec, "token-1", "alice")

	exec := fx.exec
	// The receiver flips the token to a third party during its callback
	// and then asks for a return. The reversal must be skipped because
	// the receiver no longer owns the token.
	fx.registry.RegisterToken("gallery", tokenReceiverFunc(
		func(ctx context.Context, _, _, tokenID, _ string) (bool, error) {
			err := exec.Transfer(ctx, core.TokenTransfer{
				TokenID:  tokenID,
				Owner:    "gallery",
				Sender:   "gallery",
				Receiver: "collector",
			})
			if err != nil {
				t.Fatalf("receiver re-transfer: %v", err)
			}
			return true, nil
		}))

	pending, err := fx.notifier.TransferCall(ctx, core.TokenTransfer{
		TokenID:  "token-1",
		Owner:    "alice",
		Sender:   "alice",
		Receiver: "gallery",
		Msg:      msgPtr("exhibit"),
	}, core.DefaultTransferCallBudget)
	if err != nil {
		t.Fatalf("transfer call: %v", err)
	}

	if owner, _ := ownerOf(t, fx.exec, "token-1"); owner != "collector" {
		t.Fatalf("expected collector to keep token, got %q", owner)
	}
	resolved, _ := fx.store.Get(ctx, pending.ID)
	if resolved.Status != settlement.StatusSettled {
		t.Fatalf("expected settled with reversal skipped, got %s", resolved.Status)
	}
	if resolved.LastError == "" {
		t.Fatal("expected skipped reversal to record a cause")
	}
}

func TestTokenResolveIsIdempotent(t *testing.T) {
	fx := newTokenCallFixture(t)
	ctx := context.Background()
	mustMint(t, fx.exec, "token-1", "alice")

	fx.registry.RegisterToken("gallery", tokenReceiverFunc(
		func(context.Context, string, string, string, string) (bool, error) {
			return true, nil
		}))

	pending, err := fx.notifier.TransferCall(ctx, core.TokenTransfer{
		TokenID:  "token-1",
		Owner:    "alice",
		Sender:   "alice",
		Receiver: "gallery",
		Msg:      msgPtr("exhibit"),
	}, core.DefaultTransferCallBudget)
	if err != nil {
		t.Fatalf("transfer call: %v", err)
	}

	res, err := fx.resolver.Resolve(ctx, pending.ID, settlement.BoolOutcome(true))
	var settled *core.TransferAlreadySettledError
	if !errors.As(err, &settled) {
		t.Fatalf("expected already settled, got %v", err)
	}
	if !res.AlreadySettled {
		t.Fatalf("expected AlreadySettled resolution, got %+v", res)
	}
	if owner, _ := ownerOf(t, fx.exec, "token-1"); owner != "alice" {
		t.Fatalf("duplicate resolve moved token to %q", owner)
	}
}
