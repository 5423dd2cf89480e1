package settlement

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-assets/core"
)

// ReceiverInvoker issues the notification call into receiver-controlled
// code and reports the raw outcome. Implementations must convert every
// failure mode, errors and panics included, into a failed Outcome
// rather than propagating it.
type ReceiverInvoker interface {
	InvokeFungible(ctx context.Context, transfer core.BalanceTransfer, budget uint64) Outcome
	InvokeToken(ctx context.Context, transfer core.TokenTransfer, budget uint64) Outcome
}

// ResolveFunc is the resolver entry point chained after the receiver
// call. It receives the settlement correlation id and the receiver's
// raw outcome.
type ResolveFunc func(ctx context.Context, settlementID string, outcome Outcome) error

// Scheduler accepts a freshly created pending settlement and guarantees
// the receiver call followed by exactly one resolver invocation.
type Scheduler interface {
	Schedule(ctx context.Context, pending Pending) error
}

// ReceiverRegistry is an in-process ReceiverInvoker backed by receiver
// implementations registered per account. Unregistered receivers and
// receiver panics both surface as failed outcomes, which resolvers
// treat as rejection.
type ReceiverRegistry struct {
	mu       sync.RWMutex
	fungible map[string]core.FungibleReceiver
	token    map[string]core.TokenReceiver
}

func NewReceiverRegistry() *ReceiverRegistry {
	return &ReceiverRegistry{
		fungible: map[string]core.FungibleReceiver{},
		token:    map[string]core.TokenReceiver{},
	}
}

func (r *ReceiverRegistry) RegisterFungible(account string, receiver core.FungibleReceiver) {
	if r == nil || receiver == nil {
		return
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fungible[account] = receiver
}

func (r *ReceiverRegistry) RegisterToken(account string, receiver core.TokenReceiver) {
	if r == nil || receiver == nil {
		return
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token[account] = receiver
}

func (r *ReceiverRegistry) InvokeFungible(ctx context.Context, transfer core.BalanceTransfer, _ uint64) (outcome Outcome) {
	if r == nil {
		return FailedOutcome()
	}
	r.mu.RLock()
	receiver, ok := r.fungible[strings.TrimSpace(transfer.Receiver)]
	r.mu.RUnlock()
	if !ok {
		return FailedOutcome()
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = FailedOutcome()
		}
	}()

	msg := ""
	if transfer.Msg != nil {
		msg = *transfer.Msg
	}
	unused, err := receiver.OnTransfer(ctx, transfer.Sender, transfer.Sender, transfer.Amount, msg)
	if err != nil {
		return FailedOutcome()
	}
	return QuantityOutcome(unused)
}

func (r *ReceiverRegistry) InvokeToken(ctx context.Context, transfer core.TokenTransfer, _ uint64) (outcome Outcome) {
	if r == nil {
		return FailedOutcome()
	}
	r.mu.RLock()
	receiver, ok := r.token[strings.TrimSpace(transfer.Receiver)]
	r.mu.RUnlock()
	if !ok {
		return FailedOutcome()
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = FailedOutcome()
		}
	}()

	msg := ""
	if transfer.Msg != nil {
		msg = *transfer.Msg
	}
	returnToken, err := receiver.OnTransfer(ctx, transfer.Sender, transfer.Owner, transfer.TokenID, msg)
	if err != nil {
		return FailedOutcome()
	}
	return BoolOutcome(returnToken)
}

// InlineScheduler drives the receiver call and the chained resolver in
// the scheduling call itself. It preserves the protocol's step
// boundaries (the ledger mutation is already durable when Schedule
// runs) and suits single-process hosts and tests; multi-step hosts use
// the Dispatcher instead.
type InlineScheduler struct {
	Store          Store
	Invoker        ReceiverInvoker
	ResolveBalance ResolveFunc
	ResolveToken   ResolveFunc
}

func (s *InlineScheduler) Schedule(ctx context.Context, pending Pending) error {
	if s == nil || s.Store == nil || s.Invoker == nil {
		return fmt.Errorf("settlement: inline scheduler is not configured")
	}
	if err := pending.Validate(); err != nil {
		return err
	}
	if _, err := s.Store.Transition(ctx, pending.ID, StatusNotified, nil); err != nil {
		return err
	}
	if err := drive(ctx, s.Invoker, s.ResolveBalance, s.ResolveToken, pending); err != nil {
		// Release the claim so a dispatcher pass can retry; the
		// original error is the one worth reporting.
		_, _ = s.Store.Retry(ctx, pending.ID, err, time.Now().UTC())
		return err
	}
	return nil
}

func drive(
	ctx context.Context,
	invoker ReceiverInvoker,
	resolveBalance ResolveFunc,
	resolveToken ResolveFunc,
	pending Pending,
) error {
	switch pending.Asset {
	case core.AssetFungible:
		if resolveBalance == nil {
			return fmt.Errorf("settlement: balance resolver is not configured")
		}
		outcome := invoker.InvokeFungible(ctx, *pending.Balance, pending.ReceiverBudget)
		return resolveBalance(ctx, pending.ID, outcome)
	case core.AssetNonFungible:
		if resolveToken == nil {
			return fmt.Errorf("settlement: token resolver is not configured")
		}
		outcome := invoker.InvokeToken(ctx, *pending.Token, pending.ReceiverBudget)
		return resolveToken(ctx, pending.ID, outcome)
	}
	return fmt.Errorf("settlement: unknown asset kind %q", string(pending.Asset))
}

var (
	_ ReceiverInvoker = (*ReceiverRegistry)(nil)
	_ Scheduler       = (*InlineScheduler)(nil)
)
