package fungible

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-assets/core"
)

// Executor applies balance mutations against a ledger, running
// lifecycle hooks around each operation and emitting one event per
// committed mutation. Deposit and Withdraw are raw primitives and do
// not run hooks; Transfer, Mint and Burn do.
type Executor struct {
	Ledger core.BalanceLedger
	Hooks  core.FungibleHooks
	Events core.EventSink
	Logger core.Logger
	Now    func() time.Time
}

func NewExecutor(ledger core.BalanceLedger, options ...ExecutorOption) *Executor {
	e := &Executor{
		Ledger: ledger,
		Hooks:  core.NopFungibleHooks{},
		Logger: core.NopLogger(),
		Now:    time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.Ledger == nil {
		e.Ledger = NewMemoryLedger()
	}
	if e.Hooks == nil {
		e.Hooks = core.NopFungibleHooks{}
	}
	if e.Logger == nil {
		e.Logger = core.NopLogger()
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e
}

type ExecutorOption func(*Executor)

func WithHooks(hooks core.FungibleHooks) ExecutorOption {
	return func(e *Executor) {
		if hooks != nil {
			e.Hooks = hooks
		}
	}
}

func WithEventSink(sink core.EventSink) ExecutorOption {
	return func(e *Executor) {
		e.Events = sink
	}
}

func WithLogger(logger core.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.Logger = logger
		}
	}
}

func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		if now != nil {
			e.Now = now
		}
	}
}

// BalanceOf returns the balance of account, zero when the account has
// never held a balance.
func (e *Executor) BalanceOf(ctx context.Context, account string) (core.Quantity, error) {
	if e == nil || e.Ledger == nil {
		return core.ZeroQuantity, fmt.Errorf("fungible: executor not initialized")
	}
	return e.Ledger.QuantityOf(ctx, account)
}

func (e *Executor) TotalSupply(ctx context.Context) (core.Quantity, error) {
	if e == nil || e.Ledger == nil {
		return core.ZeroQuantity, fmt.Errorf("fungible: executor not initialized")
	}
	return e.Ledger.Total(ctx)
}

// Deposit credits amount to account and grows the total supply. Both
// writes succeed or neither does. Hooks are not consulted.
func (e *Executor) Deposit(ctx context.Context, account string, amount core.Quantity) error {
	if e == nil || e.Ledger == nil {
		return fmt.Errorf("fungible: executor not initialized")
	}
	if amount.IsZero() {
		return nil
	}
	balance, err := e.Ledger.QuantityOf(ctx, account)
	if err != nil {
		return fmt.Errorf("fungible: read balance: %w", err)
	}
	next, ok := core.AddQuantity(balance, amount)
	if !ok {
		return &core.BalanceOverflowError{Account: account, Balance: balance, Amount: amount}
	}
	total, err := e.Ledger.Total(ctx)
	if err != nil {
		return fmt.Errorf("fungible: read total supply: %w", err)
	}
	nextTotal, ok := core.AddQuantity(total, amount)
	if !ok {
		return &core.TotalSupplyOverflowError{TotalSupply: total, Amount: amount}
	}
	if err := e.Ledger.SetQuantity(ctx, account, next); err != nil {
		return fmt.Errorf("fungible: write balance: %w", err)
	}
	if err := e.Ledger.SetTotal(ctx, nextTotal); err != nil {
		if rollback := e.Ledger.SetQuantity(ctx, account, balance); rollback != nil {
			return errors.Join(fmt.Errorf("fungible: write total supply: %w", err), fmt.Errorf("fungible: rollback balance: %w", rollback))
		}
		return fmt.Errorf("fungible: write total supply: %w", err)
	}
	return nil
}

// Withdraw debits amount from account and shrinks the total supply.
// Both writes succeed or neither does. Hooks are not consulted.
func (e *Executor) Withdraw(ctx context.Context, account string, amount core.Quantity) error {
	if e == nil || e.Ledger == nil {
		return fmt.Errorf("fungible: executor not initialized")
	}
	if amount.IsZero() {
		return nil
	}
	balance, err := e.Ledger.QuantityOf(ctx, account)
	if err != nil {
		return fmt.Errorf("fungible: read balance: %w", err)
	}
	next, ok := core.SubQuantity(balance, amount)
	if !ok {
		return &core.BalanceUnderflowError{Account: account, Balance: balance, Amount: amount}
	}
	total, err := e.Ledger.Total(ctx)
	if err != nil {
		return fmt.Errorf("fungible: read total supply: %w", err)
	}
	nextTotal, ok := core.SubQuantity(total, amount)
	if !ok {
		return &core.TotalSupplyUnderflowError{TotalSupply: total, Amount: amount}
	}
	if err := e.Ledger.SetQuantity(ctx, account, next); err != nil {
		return fmt.Errorf("fungible: write balance: %w", err)
	}
	if err := e.Ledger.SetTotal(ctx, nextTotal); err != nil {
		if rollback := e.Ledger.SetQuantity(ctx, account, balance); rollback != nil {
			return errors.Join(fmt.Errorf("fungible: write total supply: %w", err), fmt.Errorf("fungible: rollback balance: %w", rollback))
		}
		return fmt.Errorf("fungible: write total supply: %w", err)
	}
	return nil
}

// MoveBalance moves amount from sender to receiver without hooks or
// events. A transfer to self is validated against the sender balance
// but leaves the ledger untouched. The mutation is all or nothing.
func (e *Executor) MoveBalance(ctx context.Context, sender, receiver string, amount core.Quantity) error {
	if e == nil || e.Ledger == nil {
		return fmt.Errorf("fungible: executor not initialized")
	}
	senderBalance, err := e.Ledger.QuantityOf(ctx, sender)
	if err != nil {
		return fmt.Errorf("fungible: read sender balance: %w", err)
	}
	nextSender, ok := core.SubQuantity(senderBalance, amount)
	if !ok {
		return &core.BalanceUnderflowError{Account: sender, Balance: senderBalance, Amount: amount}
	}
	if sender == receiver || amount.IsZero() {
		return nil
	}
	receiverBalance, err := e.Ledger.QuantityOf(ctx, receiver)
	if err != nil {
		return fmt.Errorf("fungible: read receiver balance: %w", err)
	}
	nextReceiver, ok := core.AddQuantity(receiverBalance, amount)
	if !ok {
		return &core.BalanceOverflowError{Account: receiver, Balance: receiverBalance, Amount: amount}
	}
	if err := e.Ledger.SetQuantity(ctx, sender, nextSender); err != nil {
		return fmt.Errorf("fungible: write sender balance: %w", err)
	}
	if err := e.Ledger.SetQuantity(ctx, receiver, nextReceiver); err != nil {
		if rollback := e.Ledger.SetQuantity(ctx, sender, senderBalance); rollback != nil {
			return errors.Join(fmt.Errorf("fungible: write receiver balance: %w", err), fmt.Errorf("fungible: rollback sender balance: %w", rollback))
		}
		return fmt.Errorf("fungible: write receiver balance: %w", err)
	}
	return nil
}

// Transfer runs the before hook, moves the balance, emits a transfer
// event, then runs the after hook. A vetoed before hook aborts the
// transfer with no ledger writes and no event.
func (e *Executor) Transfer(ctx context.Context, transfer core.BalanceTransfer) error {
	if e == nil || e.Ledger == nil {
		return fmt.Errorf("fungible: executor not initialized")
	}
	if err := transfer.Validate(); err != nil {
		return err
	}
	state, err := e.Hooks.BeforeTransfer(ctx, transfer)
	if err != nil {
		return &core.HookVetoError{Hook: "before_transfer", Err: err}
	}
	if err := e.MoveBalance(ctx, transfer.Sender, transfer.Receiver, transfer.Amount); err != nil {
		return err
	}
	event := core.LedgerEvent{
		ID:         uuid.NewString(),
		Asset:      core.AssetFungible,
		Kind:       core.EventKindTransfer,
		Sender:     transfer.Sender,
		Receiver:   transfer.Receiver,
		Amount:     transfer.Amount,
		Memo:       transfer.Memo,
		Revert:     transfer.Revert,
		OccurredAt: e.Now(),
	}
	emitErr := e.emit(ctx, event)
	afterErr := e.Hooks.AfterTransfer(ctx, transfer, state)
	return errors.Join(emitErr, afterErr)
}

// Mint credits freshly issued units to account.
func (e *Executor) Mint(ctx context.Context, account string, amount core.Quantity, memo string) error {
	if e == nil || e.Ledger == nil {
		return fmt.Errorf("fungible: executor not initialized")
	}
	if account == "" {
		return fmt.Errorf("fungible: %w: mint account is required", core.ErrInvalidTransfer)
	}
	state, err := e.Hooks.BeforeMint(ctx, account, amount)
	if err != nil {
		return &core.HookVetoError{Hook: "before_mint", Err: err}
	}
	if err := e.Deposit(ctx, account, amount); err != nil {
		return err
	}
	event := core.LedgerEvent{
		ID:         uuid.NewString(),
		Asset:      core.AssetFungible,
		Kind:       core.EventKindMint,
		Account:    account,
		Amount:     amount,
		Memo:       memo,
		OccurredAt: e.Now(),
	}
	emitErr := e.emit(ctx, event)
	afterErr := e.Hooks.AfterMint(ctx, account, amount, state)
	return errors.Join(emitErr, afterErr)
}

// Burn destroys units held by account.
func (e *Executor) Burn(ctx context.Context, account string, amount core.Quantity, memo string) error {
	if e == nil || e.Ledger == nil {
		return fmt.Errorf("fungible: executor not initialized")
	}
	if account == "" {
		return fmt.Errorf("fungible: %w: burn account is required", core.ErrInvalidTransfer)
	}
	state, err := e.Hooks.BeforeBurn(ctx, account, amount)
	if err != nil {
		return &core.HookVetoError{Hook: "before_burn", Err: err}
	}
	if err := e.Withdraw(ctx, account, amount); err != nil {
		return err
	}
	event := core.LedgerEvent{
		ID:         uuid.NewString(),
		Asset:      core.AssetFungible,
		Kind:       core.EventKindBurn,
		Account:    account,
		Amount:     amount,
		Memo:       memo,
		OccurredAt: e.Now(),
	}
	emitErr := e.emit(ctx, event)
	afterErr := e.Hooks.AfterBurn(ctx, account, amount, state)
	return errors.Join(emitErr, afterErr)
}

func (e *Executor) emit(ctx context.Context, event core.LedgerEvent) error {
	if e.Events == nil {
		return nil
	}
	if err := e.Events.Emit(ctx, event); err != nil {
		return fmt.Errorf("fungible: emit %s event: %w", event.Kind, err)
	}
	return nil
}
