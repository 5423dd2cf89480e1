package nonfungible

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
	// Committed is true when the receiver kept the token.
	Committed bool
	// Reverted is true when the token went back to its previous owner.
	Reverted bool
	// AlreadySettled is true when the settlement had been resolved
	// before this call; no ledger mutation was performed.
	AlreadySettled bool
}

// Resolver finalizes token transfer-calls. The receiver outcome is a
// boolean "return the token" flag; malformed or failed outcomes count
// as return. Before reverting, ownership is re-checked: when the
// receiver no longer holds the token the reversal is skipped and the
// settlement completes with the receiver's disposition standing.
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

// Resolve settles the token transfer identified by settlementID. Safe
// to call more than once; repeat calls return AlreadySettled and touch
// nothing.
func (r *Resolver) Resolve(ctx context.Context, settlementID string, outcome settlement.Outcome) (Resolution, error) {
	if r == nil || r.Executor == nil || r.Settlements == nil {
		return Resolution{}, fmt.Errorf("nonfungible: resolver not initialized")
	}
	pending, err := r.Settlements.Get(ctx, settlementID)
	if err != nil {
		return Resolution{}, err
	}
	if pending.Asset != core.AssetNonFungible {
		return Resolution{}, fmt.Errorf("nonfungible: settlement %q is not a token settlement", settlementID)
	}
	if pending.Token == nil {
		return Resolution{}, fmt.Errorf("nonfungible: settlement %q has no token transfer", settlementID)
	}
	if pending.Resolved() {
		return Resolution{SettlementID: settlementID, AlreadySettled: true}, &core.TransferAlreadySettledError{SettlementID: settlementID}
	}
	if r.Claims != nil {
		claimed, err := r.Claims.Claim(ctx, claimKey(settlementID), r.ClaimTTL)
		if err != nil {
			return Resolution{}, fmt.Errorf("nonfungible: claim settlement: %w", err)
		}
		if !claimed {
			return Resolution{SettlementID: settlementID, AlreadySettled: true}, &core.TransferAlreadySettledError{SettlementID: settlementID}
		}
	}

	transfer := *pending.Token

	// A malformed or failed outcome reads as "return the token".
	returnToken, ok := outcome.ReturnToken()
	if !ok {
		returnToken = true
	}

	if !returnToken {
		if _, err := r.Settlements.Transition(ctx, settlementID, settlement.StatusSettled, nil); err != nil {
			return Resolution{}, fmt.Errorf("nonfungible: finalize settlement: %w", err)
		}
		return Resolution{SettlementID: settlementID, Committed: true}, nil
	}

	// Ownership may have moved while the receiver ran. Revert only when
	// the receiver still holds the token; otherwise the receiver's own
	// disposition stands and no reversal is performed.
	owner, exists, err := r.Executor.OwnerOf(ctx, transfer.TokenID)
	if err != nil {
		return Resolution{}, fmt.Errorf("nonfungible: read owner: %w", err)
	}
	if !exists || owner != transfer.Receiver {
		cause := fmt.Errorf("nonfungible: token %q no longer held by receiver, reversal skipped", transfer.TokenID)
		r.logger().Error("settlement reversal skipped, receiver no longer owns token",
			"settlement_id", settlementID,
			"token_id", transfer.TokenID,
			"receiver", transfer.Receiver,
		)
		if _, err := r.Settlements.Transition(ctx, settlementID, settlement.StatusSettled, cause); err != nil {
			return Resolution{}, fmt.Errorf("nonfungible: finalize settlement: %w", err)
		}
		return Resolution{SettlementID: settlementID, Committed: true}, nil
	}

	compensate := core.TokenTransfer{
		TokenID:  transfer.TokenID,
		Owner:    transfer.Receiver,
		Sender:   transfer.Receiver,
		Receiver: transfer.Owner,
		Memo:     transfer.Memo,
		Revert:   true,
	}
	if err := r.Executor.Transfer(ctx, compensate); err != nil {
		r.logger().Error("settlement reversal failed, receiver keeps token",
			"settlement_id", settlementID,
			"token_id", transfer.TokenID,
			"error", err,
		)
		if _, terr := r.Settlements.Transition(ctx, settlementID, settlement.StatusSettled, err); terr != nil {
			return Resolution{}, fmt.Errorf("nonfungible: finalize settlement: %w", terr)
		}
		return Resolution{SettlementID: settlementID, Committed: true}, nil
	}

	if _, err := r.Settlements.Transition(ctx, settlementID, settlement.StatusReverted, nil); err != nil {
		return Resolution{}, fmt.Errorf("nonfungible: finalize settlement: %w", err)
	}
	return Resolution{SettlementID: settlementID, Reverted: true}, nil
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
	return "nonfungible::" + settlementID
}
