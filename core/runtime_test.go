package core

import (
	"context"
	"testing"
	"time"
)

func TestNewRuntimeBackfillsDefaults(t *testing.T) {
	runtime, err := NewRuntime(Config{})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	if runtime.Config().ServiceName != "assets" {
		t.Fatalf("expected default service name, got %q", runtime.Config().ServiceName)
	}
	if runtime.Logger() == nil {
		t.Fatalf("expected a logger")
	}
	if runtime.OutboxStore() == nil {
		t.Fatalf("expected a default outbox store")
	}
	if runtime.SettlementClaims() == nil {
		t.Fatalf("expected a default claims ledger")
	}
	if runtime.EventSink() == nil {
		t.Fatalf("expected an event sink over the outbox")
	}
	if runtime.Dispatcher() == nil {
		t.Fatalf("expected an outbox dispatcher")
	}
}

func TestNewRuntimeAppliesRuntimeConfigLayer(t *testing.T) {
	cfg := Config{}
	cfg.Settlement.TransferCallBudget = 60_000_000_000_000

	runtime, err := NewRuntime(cfg)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	if got := runtime.Config().Settlement.TransferCallBudget; got != 60_000_000_000_000 {
		t.Fatalf("expected runtime budget override, got %d", got)
	}
	if got := runtime.Config().Settlement.ResolverBudget; got != DefaultResolverBudget {
		t.Fatalf("expected defaulted resolver budget, got %d", got)
	}
}

func TestNewRuntimeRejectsInvalidLoadedConfig(t *testing.T) {
	provider := NewCfgxConfigProvider(staticRawConfigLoader{Values: map[string]any{
		"settlement": map[string]any{
			"resolver_budget":      uint64(10),
			"transfer_call_budget": uint64(5),
		},
	}})

	if _, err := NewRuntime(Config{}, WithConfigProvider(provider)); err == nil {
		t.Fatalf("expected invalid loaded config to be rejected")
	}
}

func TestRuntimeEventsFlowThroughRegisteredProjectors(t *testing.T) {
	ctx := context.Background()
	runtime, err := NewRuntime(Config{})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	projector := &recordingProjector{}
	runtime.RegisterProjector(projector)

	event := LedgerEvent{
		ID:         "evt-runtime",
		Asset:      AssetFungible,
		Kind:       EventKindMint,
		Account:    "alice.test",
		OccurredAt: time.Now().UTC(),
	}
	if err := runtime.EventSink().Emit(ctx, event); err != nil {
		t.Fatalf("emit: %v", err)
	}

	stats, err := runtime.Dispatcher().DispatchPending(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if stats.Delivered != 1 {
		t.Fatalf("expected one delivered event, got %+v", stats)
	}
	if len(projector.events) != 1 || projector.events[0].ID != "evt-runtime" {
		t.Fatalf("expected projector to receive the emitted event")
	}
}
