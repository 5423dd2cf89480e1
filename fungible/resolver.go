package fungible

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/settlement"
)

// Resolution reports what the resolver decided for one settlement.
type Resolution struct {
	SettlementID string
	// Kept is the portion the receiver retained.
	Kept core.Quantity
	// Refunded is the portion clawed back to the sender.
	Refunded core.Quantity
	// Reverted is true when the entire transfer was compensated.
	Reverted bool
	// AlreadySettled is true when the settlement had been resolved
	// before this call; no ledger mutation was performed.
	AlreadySettled bool
}

// Resolver finalizes fungible transfer-calls. The receiver outcome
// names the unused quantity; a malformed or failed outcome counts as a
// full rejection. The clawback never exceeds the original amount and is
// further capped by what the receiver still holds, so a shortfall
// degrades to a partial refund instead of failing the settlement.
type Resolver struct {
	Executor    *Executor
	Settlements settlement.Store
	Claims      core.SettlementClaims
	ClaimTTL    time.Duration
	Logger      core.Logger
	Now         func() time.Time
}

func NewResolver(executor *Executor, store settlement.Store, options ...ResolverOption) *Resolver {
	r := &Resolver{
		Executor:    executor,
		Settlements: store,
		Logger:      core.NopLogger(),
		Now:         time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

type ResolverOption func(*Resolver)

func WithResolverClaims(claims core.SettlementClaims, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.Claims = claims
		r.ClaimTTL = ttl
	}
}

func WithResolverLogger(logger core.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// Resolve settles the transfer identified by settlementID. It is safe
// to call more than once; repeat calls return AlreadySettled and touch
// nothing.
func (r *Resolver) Resolve(ctx context.Context, settlementID string, outcome settlement.Outcome) (Resolution, error) {
	if r == nil || r.Executor == nil || r.Settlements == nil {
		return Resolution{}, fmt.Errorf("fungible: resolver not initialized")
	}
	pending, err := r.Settlements.Get(ctx, settlementID)
	if err != nil {
		return Resolution{}, err
	}
	if pending.Asset != core.AssetFungible {
		return Resolution{}, fmt.Errorf("fungible: settlement %q is not a balance settlement", settlementID)
	}
	if pending.Balance == nil {
		return Resolution{}, fmt.Errorf("fungible: settlement %q has no balance transfer", settlementID)
	}
	if pending.Resolved() {
		return Resolution{SettlementID: settlementID, AlreadySettled: true}, &core.TransferAlreadySettledError{SettlementID: settlementID}
	}
	if r.Claims != nil {
		claimed, err := r.Claims.Claim(ctx, claimKey(settlementID), r.ClaimTTL)
		if err != nil {
			return Resolution{}, fmt.Errorf("fungible: claim settlement: %w", err)
		}
		if !claimed {
			return Resolution{SettlementID: settlementID, AlreadySettled: true}, &core.TransferAlreadySettledError{SettlementID: settlementID}
		}
	}

	transfer := *pending.Balance

	// A malformed or failed outcome reads as "nothing was used": the
	// whole amount is subject to clawback.
	unused, ok := outcome.UnusedQuantity()
	if !ok {
		unused = transfer.Amount
	}
	unused = core.MinQuantity(unused, transfer.Amount)

	refund := core.ZeroQuantity
	var refundCause error
	if !unused.IsZero() {
		held, err := r.Executor.BalanceOf(ctx, transfer.Receiver)
		if err != nil {
			return Resolution{}, fmt.Errorf("fungible: read receiver balance: %w", err)
		}
		refund = core.MinQuantity(unused, held)
		if !refund.IsZero() {
			compensate := core.BalanceTransfer{
				Sender:   transfer.Receiver,
				Receiver: transfer.Sender,
				Amount:   refund,
				Memo:     transfer.Memo,
				Revert:   true,
			}
			if err := r.Executor.Transfer(ctx, compensate); err != nil {
				// The compensating transfer is best effort: when it
				// cannot run, the receiver keeps everything and the
				// settlement still completes.
				refundCause = err
				refund = core.ZeroQuantity
				r.logger().Error("settlement clawback failed, receiver keeps full amount",
					"settlement_id", settlementID,
					"receiver", transfer.Receiver,
					"error", err,
				)
			}
		}
	}

	kept, _ := core.SubQuantity(transfer.Amount, refund)
	reverted := !transfer.Amount.IsZero() && refund.Cmp(transfer.Amount) == 0

	status := settlement.StatusSettled
	if reverted {
		status = settlement.StatusReverted
	}
	if _, err := r.Settlements.Transition(ctx, settlementID, status, refundCause); err != nil {
		return Resolution{}, fmt.Errorf("fungible: finalize settlement: %w", err)
	}

	return Resolution{
		SettlementID: settlementID,
		Kept:         kept,
		Refunded:     refund,
		Reverted:     reverted,
	}, nil
}

// ResolveFunc adapts the resolver to the scheduler callback contract.
func (r *Resolver) ResolveFunc() settlement.ResolveFunc {
	return func(ctx context.Context, settlementID string, outcome settlement.Outcome) error {
		_, err := r.Resolve(ctx, settlementID, outcome)
		var settled *core.TransferAlreadySettledError
		if errors.As(err, &settled) {
			return nil
		}
		return err
	}
}

func (r *Resolver) logger() core.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return core.NopLogger()
}

func claimKey(settlementID string) string {
	return "fungible::" + settlementID
}
