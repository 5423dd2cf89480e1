package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/fungible"
	"github.com/goliatone/go-assets/nonfungible"
	"github.com/goliatone/go-assets/settlement"
)

// FungibleService is the balance-side surface the commands drive.
type FungibleService interface {
	Transfer(ctx context.Context, transfer core.BalanceTransfer) error
	TransferCall(ctx context.Context, transfer core.BalanceTransfer, budget uint64) (settlement.Pending, error)
	Mint(ctx context.Context, account string, amount core.Quantity, memo string) error
	Burn(ctx context.Context, account string, amount core.Quantity, memo string) error
}

// TokenService is the ownership-side surface the commands drive.
type TokenService interface {
	Transfer(ctx context.Context, transfer core.TokenTransfer) error
	TransferCall(ctx context.Context, transfer core.TokenTransfer, budget uint64) (settlement.Pending, error)
	Mint(ctx context.Context, tokenID, owner string) error
	Burn(ctx context.Context, tokenID, owner string) error
}

// FungibleResolveService settles pending balance transfers with a
// receiver outcome.
type FungibleResolveService interface {
	Resolve(ctx context.Context, settlementID string, outcome settlement.Outcome) (fungible.Resolution, error)
}

// TokenResolveService settles pending token transfers with a receiver
// outcome.
type TokenResolveService interface {
	Resolve(ctx context.Context, settlementID string, outcome settlement.Outcome) (nonfungible.Resolution, error)
}

// SettlementDispatchService drains due settlements.
type SettlementDispatchService interface {
	DispatchDue(ctx context.Context, limit int) (settlement.Stats, error)
}

// OutboxDispatchService drains pending ledger events.
type OutboxDispatchService interface {
	DispatchPending(ctx context.Context, batchSize int) (core.DispatchStats, error)
}

type FungibleTransferCommand struct {
	service FungibleService
}

func NewFungibleTransferCommand(service FungibleService) *FungibleTransferCommand {
	return &FungibleTransferCommand{service: service}
}

func (c *FungibleTransferCommand) Execute(ctx context.Context, msg FungibleTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: fungible service is required")
	}
	return c.service.Transfer(ctx, msg.Transfer)
}

type FungibleTransferCallCommand struct {
	service FungibleService
}

func NewFungibleTransferCallCommand(service FungibleService) *FungibleTransferCallCommand {
	return &FungibleTransferCallCommand{service: service}
}

func (c *FungibleTransferCallCommand) Execute(ctx context.Context, msg FungibleTransferCallMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: fungible service is required")
	}
	out, err := c.service.TransferCall(ctx, msg.Transfer, msg.Budget)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type FungibleMintCommand struct {
	service FungibleService
}

func NewFungibleMintCommand(service FungibleService) *FungibleMintCommand {
	return &FungibleMintCommand{service: service}
}

func (c *FungibleMintCommand) Execute(ctx context.Context, msg FungibleMintMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: fungible service is required")
	}
	return c.service.Mint(ctx, msg.Account, msg.Amount, msg.Memo)
}

type FungibleBurnCommand struct {
	service FungibleService
}

func NewFungibleBurnCommand(service FungibleService) *FungibleBurnCommand {
	return &FungibleBurnCommand{service: service}
}

func (c *FungibleBurnCommand) Execute(ctx context.Context, msg FungibleBurnMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: fungible service is required")
	}
	return c.service.Burn(ctx, msg.Account, msg.Amount, msg.Memo)
}

type FungibleResolveCommand struct {
	service FungibleResolveService
}

func NewFungibleResolveCommand(service FungibleResolveService) *FungibleResolveCommand {
	return &FungibleResolveCommand{service: service}
}

func (c *FungibleResolveCommand) Execute(ctx context.Context, msg FungibleResolveMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: fungible resolve service is required")
	}
	out, err := c.service.Resolve(ctx, msg.SettlementID, msg.Outcome)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type TokenTransferCommand struct {
	service TokenService
}

func NewTokenTransferCommand(service TokenService) *TokenTransferCommand {
	return &TokenTransferCommand{service: service}
}

func (c *TokenTransferCommand) Execute(ctx context.Context, msg TokenTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return c.service.Transfer(ctx, msg.Transfer)
}

type TokenTransferCallCommand struct {
	service TokenService
}

func NewTokenTransferCallCommand(service TokenService) *TokenTransferCallCommand {
	return &TokenTransferCallCommand{service: service}
}

func (c *TokenTransferCallCommand) Execute(ctx context.Context, msg TokenTransferCallMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	out, err := c.service.TransferCall(ctx, msg.Transfer, msg.Budget)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type TokenMintCommand struct {
	service TokenService
}

func NewTokenMintCommand(service TokenService) *TokenMintCommand {
	return &TokenMintCommand{service: service}
}

func (c *TokenMintCommand) Execute(ctx context.Context, msg TokenMintMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return c.service.Mint(ctx, msg.TokenID, msg.Owner)
}

type TokenBurnCommand struct {
	service TokenService
}

func NewTokenBurnCommand(service TokenService) *TokenBurnCommand {
	return &TokenBurnCommand{service: service}
}

func (c *TokenBurnCommand) Execute(ctx context.Context, msg TokenBurnMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token service is required")
	}
	return c.service.Burn(ctx, msg.TokenID, msg.Owner)
}

type TokenResolveCommand struct {
	service TokenResolveService
}

func NewTokenResolveCommand(service TokenResolveService) *TokenResolveCommand {
	return &TokenResolveCommand{service: service}
}

func (c *TokenResolveCommand) Execute(ctx context.Context, msg TokenResolveMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: token resolve service is required")
	}
	out, err := c.service.Resolve(ctx, msg.SettlementID, msg.Outcome)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DispatchSettlementsCommand struct {
	service SettlementDispatchService
}

func NewDispatchSettlementsCommand(service SettlementDispatchService) *DispatchSettlementsCommand {
	return &DispatchSettlementsCommand{service: service}
}

func (c *DispatchSettlementsCommand) Execute(ctx context.Context, msg DispatchSettlementsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: settlement dispatcher is required")
	}
	out, err := c.service.DispatchDue(ctx, msg.Limit)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DispatchOutboxCommand struct {
	service OutboxDispatchService
}

func NewDispatchOutboxCommand(service OutboxDispatchService) *DispatchOutboxCommand {
	return &DispatchOutboxCommand{service: service}
}

func (c *DispatchOutboxCommand) Execute(ctx context.Context, msg DispatchOutboxMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: outbox dispatcher is required")
	}
	out, err := c.service.DispatchPending(ctx, msg.BatchSize)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
