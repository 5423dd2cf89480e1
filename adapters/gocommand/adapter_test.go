package gocommand_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	"github.com/goliatone/go-assets/adapters/gocommand"
	assetscommand "github.com/goliatone/go-assets/command"
	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/settlement"
)

func TestDispatchThroughRegisteredCommand(t *testing.T) {
	svc := &stubFungibleService{}
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())

	sub, err := gocommand.RegisterAndSubscribe(adapter, assetscommand.NewFungibleTransferCommand(svc))
	if err != nil {
		t.Fatalf("register transfer command: %v", err)
	}
	defer sub.Unsubscribe()

	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	msg := assetscommand.FungibleTransferMessage{
		Transfer: core.BalanceTransfer{
			Sender:   "alice.test",
			Receiver: "bob.test",
			Amount:   core.Q64(5),
		},
	}
	if err := gocommand.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if svc.transfers != 1 || svc.lastReceiver != "bob.test" {
		t.Fatalf("expected dispatch to reach the service, got %d calls", svc.transfers)
	}
}

func TestQueueResolverMirrorsCommands(t *testing.T) {
	queueRegistry := jobqueuecommand.NewRegistry()
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if !adapter.HasResolver("queue") {
		t.Fatalf("expected queue resolver to be registered")
	}

	if err := adapter.RegisterCommand(assetscommand.NewDispatchOutboxCommand(nil)); err != nil {
		t.Fatalf("register dispatch command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if _, ok := queueRegistry.Get(assetscommand.TypeDispatchOutbox); !ok {
		t.Fatalf("expected dispatch command mirrored into the queue registry")
	}
}

func TestValidateMessageContract(t *testing.T) {
	if err := gocommand.ValidateMessageContract(assetscommand.DispatchSettlementsMessage{Limit: 10}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := gocommand.ValidateMessageContract(struct{}{}); err == nil {
		t.Fatalf("expected typeless message to be rejected")
	}
}

type stubFungibleService struct {
	transfers    int
	lastReceiver string
}

func (s *stubFungibleService) Transfer(_ context.Context, transfer core.BalanceTransfer) error {
	s.transfers++
	s.lastReceiver = transfer.Receiver
	return nil
}

func (s *stubFungibleService) TransferCall(context.Context, core.BalanceTransfer, uint64) (settlement.Pending, error) {
	return settlement.Pending{}, nil
}

func (s *stubFungibleService) Mint(context.Context, string, core.Quantity, string) error {
	return nil
}

func (s *stubFungibleService) Burn(context.Context, string, core.Quantity, string) error {
	return nil
}
