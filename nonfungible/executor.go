package nonfungible

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-assets/core"
)

// Executor reassigns token ownership, running lifecycle hooks around
// each operation and emitting one event per committed mutation.
type Executor struct {
	Ledger core.OwnershipLedger
	Hooks  core.TokenHooks
	Events core.EventSink
	Logger core.Logger
	Now    func() time.Time
}

func NewExecutor(ledger core.OwnershipLedger, options ...ExecutorOption) *Executor {
	e := &Executor{
		Ledger: ledger,
		Hooks:  core.NopTokenHooks{},
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
		e.Hooks = core.NopTokenHooks{}
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

func WithHooks(hooks core.TokenHooks) ExecutorOption {
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

// OwnerOf returns the current owner of tokenID. The boolean reports
// whether the token exists.
func (e *Executor) OwnerOf(ctx context.Context, tokenID string) (string, bool, error) {
	if e == nil || e.Ledger == nil {
		return "", false, fmt.Errorf("nonfungible: executor not initialized")
	}
	return e.Ledger.OwnerOf(ctx, tokenID)
}

// CheckTransfer verifies the transfer could be applied against current
// ownership without mutating anything: the token must exist and its
// current owner must match the transfer's stated previous owner.
func (e *Executor) CheckTransfer(ctx context.Context, transfer core.TokenTransfer) error {
	if e == nil || e.Ledger == nil {
		return fmt.Errorf("nonfungible: executor not initialized")
	}
	if err := transfer.Validate(); err != nil {
		return err
	}
	owner, exists, err := e.Ledger.OwnerOf(ctx, transfer.TokenID)
	if err != nil {
		return fmt.Errorf("nonfungible: read owner: %w", err)
	}
	if !exists {
		return &core.TokenNotFoundError{TokenID: transfer.TokenID}
	}
	if owner != transfer.Owner {
		return &core.SenderIsNotOwnerError{TokenID: transfer.TokenID, Owner: owner, Sender: transfer.Sender}
	}
	return nil
}

// Transfer runs the before hook, reassigns ownership, emits a transfer
// event, then runs the after hook. A failed ownership check or a vetoed
// before hook aborts with no ledger write and no event.
func (e *Executor) Transfer(ctx context.Context, transfer core.TokenTransfer) error {
	if e == nil || e.Ledger == nil {
		return fmt.Errorf("nonfungible: executor not initialized")
	}
	if err := e.CheckTransfer(ctx, transfer); err != nil {
		return err
	}
	state, err := e.Hooks.BeforeTransfer(ctx, transfer)
	if err != nil {
		return &core.HookVetoError{Hook: "before_transfer", Err: err}
	}
	if err := e.Ledger.SetOwner(ctx, transfer.TokenID, transfer.Receiver); err != nil {
		return fmt.Errorf("nonfungible: write owner: %w", err)
	}
	event := core.LedgerEvent{
		ID:         uuid.NewString(),
		Asset:      core.AssetNonFungible,
		Kind:       core.EventKindTransfer,
		Sender:     transfer.Owner,
		Receiver:   transfer.Receiver,
		TokenID:    transfer.TokenID,
		Memo:       transfer.Memo,
		Revert:     transfer.Revert,
		OccurredAt: e.Now(),
	}
	emitErr := e.emit(ctx, event)
	afterErr := e.Hooks.AfterTransfer(ctx, transfer, state)
	return errors.Join(emitErr, afterErr)
}

// Mint creates tokenID owned by owner. Minting an existing token id
// fails without touching ownership.
func (e *Executor) Mint(ctx context.Context, tokenID, owner string) error {
	if e == nil || e.Ledger == nil {
		return fmt.Errorf("nonfungible: executor not initialized")
	}
	if tokenID == "" || owner == "" {
		return fmt.Errorf("nonfungible: %w: token id and owner are required", core.ErrInvalidTransfer)
	}
	current, exists, err := e.Ledger.OwnerOf(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("nonfungible: read owner: %w", err)
	}
	if exists {
		return &core.TokenAlreadyExistsError{TokenID: tokenID, Owner: current}
	}
	state, err := e.Hooks.BeforeMint(ctx, tokenID, owner)
	if err != nil {
		return &core.HookVetoError{Hook: "before_mint", Err: err}
	}
	if err := e.Ledger.SetOwner(ctx, tokenID, owner); err != nil {
		return fmt.Errorf("nonfungible: write owner: %w", err)
	}
	event := core.LedgerEvent{
		ID:         uuid.NewString(),
		Asset:      core.AssetNonFungible,
		Kind:       core.EventKindMint,
		Account:    owner,
		TokenID:    tokenID,
		OccurredAt: e.Now(),
	}
	emitErr := e.emit(ctx, event)
	afterErr := e.Hooks.AfterMint(ctx, tokenID, owner, state)
	return errors.Join(emitErr, afterErr)
}

// Burn destroys tokenID, which must currently be owned by owner.
func (e *Executor) Burn(ctx context.Context, tokenID, owner string) error {
	if e == nil || e.Ledger == nil {
		return fmt.Errorf("nonfungible: executor not initialized")
	}
	if tokenID == "" || owner == "" {
		return fmt.Errorf("nonfungible: %w: token id and owner are required", core.ErrInvalidTransfer)
	}
	current, exists, err := e.Ledger.OwnerOf(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("nonfungible: read owner: %w", err)
	}
	if !exists {
		return &core.TokenNotFoundError{TokenID: tokenID}
	}
	if current != owner {
		return &core.SenderIsNotOwnerError{TokenID: tokenID, Owner: current, Sender: owner}
	}
	state, err := e.Hooks.BeforeBurn(ctx, tokenID, owner)
	if err != nil {
		return &core.HookVetoError{Hook: "before_burn", Err: err}
	}
	if err := e.Ledger.ClearOwner(ctx, tokenID); err != nil {
		return fmt.Errorf("nonfungible: clear owner: %w", err)
	}
	event := core.LedgerEvent{
		ID:         uuid.NewString(),
		Asset:      core.AssetNonFungible,
		Kind:       core.EventKindBurn,
		Account:    owner,
		TokenID:    tokenID,
		OccurredAt: e.Now(),
	}
	emitErr := e.emit(ctx, event)
	afterErr := e.Hooks.AfterBurn(ctx, tokenID, owner, state)
	return errors.Join(emitErr, afterErr)
}

func (e *Executor) emit(ctx context.Context, event core.LedgerEvent) error {
	if e.Events == nil {
		return nil
	}
	if err := e.Events.Emit(ctx, event); err != nil {
		return fmt.Errorf("nonfungible: emit %s event: %w", event.Kind, err)
	}
	return nil
}
