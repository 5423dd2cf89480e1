package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOutboxDispatcherDeliversInOccurredAtOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOutboxStore()
	projector := &recordingProjector{}
	dispatcher, err := NewOutboxDispatcher(store, NewProjectorList(projector), OutboxDispatcherConfig{})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	base := time.Now().UTC()
	newer := LedgerEvent{
		ID:         "evt-newer",
		Asset:      AssetFungible,
		Kind:       EventKindMint,
		Account:    "alice.test",
		OccurredAt: base,
	}
	older := LedgerEvent{
		ID:         "evt-older",
		Asset:      AssetFungible,
		Kind:       EventKindTransfer,
		Sender:     "alice.test",
		Receiver:   "bob.test",
		OccurredAt: base.Add(-time.Minute),
	}
	if err := store.Enqueue(ctx, newer); err != nil {
		t.Fatalf("enqueue newer: %v", err)
	}
	if err := store.Enqueue(ctx, older); err != nil {
		t.Fatalf("enqueue older: %v", err)
	}

	stats, err := dispatcher.DispatchPending(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if stats.Claimed != 2 || stats.Delivered != 2 {
		t.Fatalf("expected 2 claimed and delivered, got %+v", stats)
	}
	if len(projector.events) != 2 {
		t.Fatalf("expected 2 projected events, got %d", len(projector.events))
	}
	if projector.events[0].ID != "evt-older" {
		t.Fatalf("expected oldest event first, got %s", projector.events[0].ID)
	}

	// Delivered events never come back.
	stats, err = dispatcher.DispatchPending(ctx, 10)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if stats.Claimed != 0 {
		t.Fatalf("expected empty second pass, got %+v", stats)
	}
}

func TestOutboxDispatcherRetriesWithBackoffThenFails(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	store := NewMemoryOutboxStore()
	store.Now = func() time.Time { return now }

	projector := &recordingProjector{err: errors.New("projector offline")}
	dispatcher, err := NewOutboxDispatcher(store, NewProjectorList(projector), OutboxDispatcherConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Second,
	})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	dispatcher.now = func() time.Time { return now }

	event := LedgerEvent{
		ID:         "evt-1",
		Asset:      AssetFungible,
		Kind:       EventKindMint,
		Account:    "alice.test",
		OccurredAt: now,
	}
	if err := store.Enqueue(ctx, event); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	stats, err := dispatcher.DispatchPending(ctx, 10)
	if err == nil {
		t.Fatalf("expected dispatch error from failing projector")
	}
	if stats.Retried != 1 || stats.Failed != 0 {
		t.Fatalf("expected one retried event, got %+v", stats)
	}

	// The retried event is invisible until its backoff elapses.
	stats, err = dispatcher.DispatchPending(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch during backoff: %v", err)
	}
	if stats.Claimed != 0 {
		t.Fatalf("expected event hidden during backoff, got %+v", stats)
	}

	now = now.Add(2 * time.Second)
	stats, err = dispatcher.DispatchPending(ctx, 10)
	if err == nil {
		t.Fatalf("expected dispatch error on final attempt")
	}
	if stats.Failed != 1 {
		t.Fatalf("expected event to fail at max attempts, got %+v", stats)
	}

	// Failed events are dead, not redelivered.
	now = now.Add(time.Hour)
	stats, err = dispatcher.DispatchPending(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch after failure: %v", err)
	}
	if stats.Claimed != 0 {
		t.Fatalf("expected dead event stays dead, got %+v", stats)
	}
}

func TestOutboxEventSinkValidatesAndEnqueues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOutboxStore()
	sink := OutboxEventSink{Store: store}

	if err := sink.Emit(ctx, LedgerEvent{}); err == nil {
		t.Fatalf("expected invalid event to be rejected")
	}

	event := LedgerEvent{
		ID:         "evt-1",
		Asset:      AssetNonFungible,
		Kind:       EventKindBurn,
		Account:    "alice.test",
		TokenID:    "token-1",
		OccurredAt: time.Now().UTC(),
	}
	if err := sink.Emit(ctx, event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := sink.Emit(ctx, event); err == nil {
		t.Fatalf("expected duplicate event id to be rejected")
	}

	claimed, err := store.ClaimBatch(ctx, 1)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != "evt-1" {
		t.Fatalf("expected emitted event claimable, got %d", len(claimed))
	}
}

type recordingProjector struct {
	events []LedgerEvent
	err    error
}

func (p *recordingProjector) Handle(_ context.Context, event LedgerEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}
