package assets

import (
	"context"
	"testing"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/metadata"
)

func TestServiceEndToEnd_FungibleTransferCall(t *testing.T) {
	ctx := context.Background()
	svc, err := Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	svc.Receivers().RegisterFungible("escrow.test", fungibleReceiverFunc(
		func(_ context.Context, _ string, _ string, amount core.Quantity, _ string) (core.Quantity, error) {
			// Keep 70, refund the rest.
			refund, _ := core.SubQuantity(amount, core.Q64(70))
			return refund, nil
		},
	))

	fungibleAPI := svc.Fungible()
	if err := fungibleAPI.Mint(ctx, "alice.test", core.Q64(1000), "genesis"); err != nil {
		t.Fatalf("mint: %v", err)
	}

	msg := "stake"
	pending, err := fungibleAPI.TransferCall(ctx, core.BalanceTransfer{
		Sender:   "alice.test",
		Receiver: "escrow.test",
		Amount:   core.Q64(100),
		Msg:      &msg,
	}, core.DefaultTransferCallBudget)
	if err != nil {
		t.Fatalf("transfer call: %v", err)
	}
	if pending.ID == "" {
		t.Fatalf("expected a settlement id")
	}

	// Inline scheduling resolves within the call.
	aliceBalance, err := fungibleAPI.BalanceOf(ctx, "alice.test")
	if err != nil {
		t.Fatalf("balance of alice: %v", err)
	}
	if aliceBalance.Cmp(core.Q64(930)) != 0 {
		t.Fatalf("expected alice balance 930 after 30 refunded, got %s", aliceBalance)
	}
	escrowBalance, err := fungibleAPI.BalanceOf(ctx, "escrow.test")
	if err != nil {
		t.Fatalf("balance of escrow: %v", err)
	}
	if escrowBalance.Cmp(core.Q64(70)) != 0 {
		t.Fatalf("expected escrow to keep 70, got %s", escrowBalance)
	}
}

func TestServiceDeferredSettlementDispatch(t *testing.T) {
	ctx := context.Background()
	svc, err := Setup(WithDeferredSettlement())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	svc.Receivers().RegisterFungible("escrow.test", fungibleReceiverFunc(
		func(context.Context, string, string, core.Quantity, string) (core.Quantity, error) {
			return core.ZeroQuantity, nil
		},
	))

	fungibleAPI := svc.Fungible()
	if err := fungibleAPI.Mint(ctx, "alice.test", core.Q64(100), ""); err != nil {
		t.Fatalf("mint: %v", err)
	}

	msg := "hold"
	if _, err := fungibleAPI.TransferCall(ctx, core.BalanceTransfer{
		Sender:   "alice.test",
		Receiver: "escrow.test",
		Amount:   core.Q64(40),
		Msg:      &msg,
	}, core.DefaultTransferCallBudget); err != nil {
		t.Fatalf("transfer call: %v", err)
	}

	// The optimistic mutation commits, resolution waits for a dispatch
	// pass.
	escrowBalance, _ := fungibleAPI.BalanceOf(ctx, "escrow.test")
	if escrowBalance.Cmp(core.Q64(40)) != 0 {
		t.Fatalf("expected optimistic credit of 40, got %s", escrowBalance)
	}

	stats, err := svc.DispatchSettlements(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch settlements: %v", err)
	}
	if stats.Claimed != 1 || stats.Resolved != 1 {
		t.Fatalf("expected one resolved settlement, got %+v", stats)
	}

	// Receiver kept everything, nothing moves back.
	escrowBalance, _ = fungibleAPI.BalanceOf(ctx, "escrow.test")
	if escrowBalance.Cmp(core.Q64(40)) != 0 {
		t.Fatalf("expected escrow to keep 40, got %s", escrowBalance)
	}

	stats, err = svc.DispatchSettlements(ctx, 10)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if stats.Claimed != 0 {
		t.Fatalf("expected no further due settlements, got %+v", stats)
	}
}

func TestServiceOutboxFeedsProjectors(t *testing.T) {
	ctx := context.Background()
	projector := &capturingProjector{}
	svc, err := Setup(WithRuntimeOptions(core.WithProjector(projector)))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	tokenAPI := svc.Token()
	if err := tokenAPI.Mint(ctx, "token-1", "alice.test"); err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if err := tokenAPI.Transfer(ctx, core.TokenTransfer{
		TokenID:  "token-1",
		Owner:    "alice.test",
		Sender:   "alice.test",
		Receiver: "bob.test",
	}); err != nil {
		t.Fatalf("transfer token: %v", err)
	}

	stats, err := svc.DispatchOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("dispatch outbox: %v", err)
	}
	if stats.Delivered != 2 {
		t.Fatalf("expected mint and transfer events delivered, got %+v", stats)
	}
	if len(projector.events) != 2 {
		t.Fatalf("expected 2 projected events, got %d", len(projector.events))
	}
	kinds := map[core.EventKind]bool{}
	for _, event := range projector.events {
		kinds[event.Kind] = true
	}
	if !kinds[core.EventKindMint] || !kinds[core.EventKindTransfer] {
		t.Fatalf("expected a mint and a transfer event, got %v", kinds)
	}
}

func TestServiceMetadataManagerBoundToTokenExecutor(t *testing.T) {
	ctx := context.Background()
	svc, err := Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	view, err := svc.Metadata().MintWithMetadata(ctx, "alice.test", metadata.TokenMetadata{
		TokenID: "token-1",
		Title:   "First",
	})
	if err != nil {
		t.Fatalf("mint with metadata: %v", err)
	}
	if view.Owner != "alice.test" || view.Metadata.Title != "First" {
		t.Fatalf("expected minted token view, got %+v", view)
	}

	owner, exists, err := svc.Token().OwnerOf(ctx, "token-1")
	if err != nil || !exists || owner != "alice.test" {
		t.Fatalf("expected token owned by alice, got %q exists=%v err=%v", owner, exists, err)
	}
}

func TestNewFacadeWiresCommandHandlers(t *testing.T) {
	svc, err := Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	facade, err := NewFacade(svc)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	commands := facade.Commands()
	if commands.FungibleTransfer == nil || commands.FungibleTransferCall == nil {
		t.Fatalf("expected fungible command handlers to be wired")
	}
	if commands.TokenMint == nil || commands.TokenBurn == nil {
		t.Fatalf("expected token command handlers to be wired")
	}
	if commands.FungibleResolve == nil || commands.TokenResolve == nil {
		t.Fatalf("expected resolve command handlers to be wired")
	}
	if commands.DispatchSettlements == nil || commands.DispatchOutbox == nil {
		t.Fatalf("expected dispatch command handlers to be wired")
	}

	if _, err := NewFacade(nil); err == nil {
		t.Fatalf("expected nil service to be rejected")
	}
}

func TestServiceOperationsReportMetrics(t *testing.T) {
	ctx := context.Background()
	recorder := &recordingMetrics{}
	svc, err := Setup(WithRuntimeOptions(core.WithMetricsRecorder(recorder)))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	fungibleAPI := svc.Fungible()
	if err := fungibleAPI.Mint(ctx, "alice.test", core.Q64(100), ""); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := fungibleAPI.Transfer(ctx, core.BalanceTransfer{
		Sender:   "alice.test",
		Receiver: "bob.test",
		Amount:   core.Q64(10),
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	// Burning more than the balance fails and must still be counted.
	if err := fungibleAPI.Burn(ctx, "bob.test", core.Q64(500), ""); err == nil {
		t.Fatal("expected burn underflow")
	}

	if got := recorder.counter("assets.fungible.mint.total", "success"); got != 1 {
		t.Fatalf("expected 1 successful mint counted, got %d", got)
	}
	if got := recorder.counter("assets.fungible.transfer.total", "success"); got != 1 {
		t.Fatalf("expected 1 successful transfer counted, got %d", got)
	}
	if got := recorder.counter("assets.fungible.burn.total", "failure"); got != 1 {
		t.Fatalf("expected 1 failed burn counted, got %d", got)
	}
	if len(recorder.histograms["assets.fungible.transfer.duration_ms"]) != 1 {
		t.Fatalf("expected a transfer duration sample, got %v", recorder.histograms)
	}

	tokenAPI := svc.Token()
	if err := tokenAPI.Mint(ctx, "token-1", "alice.test"); err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if got := recorder.counter("assets.token.mint.total", "success"); got != 1 {
		t.Fatalf("expected 1 token mint counted, got %d", got)
	}
}

type metricSample struct {
	name string
	tags map[string]string
}

type recordingMetrics struct {
	counters   []metricSample
	histograms map[string][]float64
}

func (r *recordingMetrics) IncCounter(_ context.Context, name string, _ int64, tags map[string]string) {
	r.counters = append(r.counters, metricSample{name: name, tags: tags})
}

func (r *recordingMetrics) ObserveHistogram(_ context.Context, name string, value float64, _ map[string]string) {
	if r.histograms == nil {
		r.histograms = map[string][]float64{}
	}
	r.histograms[name] = append(r.histograms[name], value)
}

func (r *recordingMetrics) counter(name, status string) int {
	count := 0
	for _, sample := range r.counters {
		if sample.name == name && sample.tags["status"] == status {
			count++
		}
	}
	return count
}

type fungibleReceiverFunc func(ctx context.Context, sender string, previousOwner string, amount core.Quantity, msg string) (core.Quantity, error)

func (f fungibleReceiverFunc) OnTransfer(ctx context.Context, sender string, previousOwner string, amount core.Quantity, msg string) (core.Quantity, error) {
	return f(ctx, sender, previousOwner, amount, msg)
}

type capturingProjector struct {
	events []core.LedgerEvent
}

func (p *capturingProjector) Handle(_ context.Context, event core.LedgerEvent) error {
	p.events = append(p.events, event)
	return nil
}
