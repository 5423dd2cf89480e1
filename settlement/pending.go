package settlement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-assets/core"
)

var (
	ErrInvalidStatusTransition = errors.New("settlement: invalid status transition")
	ErrNotFound                = errors.New("settlement: pending settlement not found")
)

type Status string

const (
	// StatusPending means the optimistic mutation is committed and the
	// receiver notification has not been issued yet.
	StatusPending Status = "pending"
	// StatusNotified means the receiver call is in flight or completed,
	// awaiting resolution.
	StatusNotified Status = "notified"
	// StatusSettled means the receiver kept the asset (fully or, for the
	// fungible case, partially).
	StatusSettled Status = "settled"
	// StatusReverted means the full transfer was compensated back to the
	// sender.
	StatusReverted Status = "reverted"
	// StatusAbandoned means the settlement was given up without
	// resolution; the optimistic mutation stands.
	StatusAbandoned Status = "abandoned"
)

// Pending snapshots one notify-and-wait transfer between the executor's
// optimistic mutation and the resolver's final decision. Exactly one of
// Balance or Token is set, matching Asset.
type Pending struct {
	ID    string
	Asset core.AssetKind

	Balance *core.BalanceTransfer
	Token   *core.TokenTransfer

	// Budget is the total execution budget the transfer-call carried.
	Budget uint64
	// ReceiverBudget is the share handed to the receiver leg, the rest
	// being reserved for the resolver.
	ReceiverBudget uint64

	Status   Status
	Attempts int
	// NextAttemptAt gates re-claiming after a failed resolver drive;
	// zero means the settlement is claimable immediately.
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p Pending) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("settlement: pending id is required")
	}
	if err := p.Asset.Validate(); err != nil {
		return err
	}
	switch p.Asset {
	case core.AssetFungible:
		if p.Balance == nil {
			return fmt.Errorf("settlement: fungible settlement requires a balance transfer")
		}
		if err := p.Balance.Validate(); err != nil {
			return err
		}
	case core.AssetNonFungible:
		if p.Token == nil {
			return fmt.Errorf("settlement: nonfungible settlement requires a token transfer")
		}
		if err := p.Token.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Resolved reports whether the settlement reached a terminal status.
func (p Pending) Resolved() bool {
	switch p.Status {
	case StatusSettled, StatusReverted, StatusAbandoned:
		return true
	}
	return false
}

func (p *Pending) TransitionTo(status Status, reason string, now time.Time) error {
	if p == nil {
		return nil
	}
	if p.Status == status {
		p.UpdatedAt = now
		if strings.TrimSpace(reason) != "" {
			p.LastError = strings.TrimSpace(reason)
		}
		return nil
	}
	if !statusTransitionAllowed(p.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, p.Status, status)
	}
	p.Status = status
	p.UpdatedAt = now
	if strings.TrimSpace(reason) != "" {
		p.LastError = strings.TrimSpace(reason)
	}
	return nil
}

func statusTransitionAllowed(current, next Status) bool {
	allowed := map[Status]map[Status]struct{}{
		StatusPending: {
			StatusNotified:  {},
			StatusAbandoned: {},
		},
		StatusNotified: {
			// A failed drive releases the claim for a later retry.
			StatusPending:   {},
			StatusSettled:   {},
			StatusReverted:  {},
			StatusAbandoned: {},
		},
		StatusSettled:   {},
		StatusReverted:  {},
		StatusAbandoned: {},
	}
	_, ok := allowed[current][next]
	return ok
}
