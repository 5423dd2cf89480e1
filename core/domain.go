package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTransfer = errors.New("core: invalid transfer")
)

type AssetKind string

const (
	AssetFungible    AssetKind = "fungible"
	AssetNonFungible AssetKind = "nonfungible"
)

func (k AssetKind) Validate() error {
	if k != AssetFungible && k != AssetNonFungible {
		return fmt.Errorf("core: invalid asset kind %q", string(k))
	}
	return nil
}

// BalanceTransfer describes one fungible transfer. The descriptor is
// immutable for the duration of the operation; for transfer-call it is
// also snapshotted in the pending settlement until resolution.
type BalanceTransfer struct {
	// Sender is the account debited by the transfer.
	Sender string
	// Receiver is the account credited by the transfer.
	Receiver string
	Amount   Quantity
	Memo     string
	// Msg is the message forwarded to the receiver's notification entry
	// point. A nil Msg means no notification step happens at all and the
	// executor's mutation is final immediately.
	Msg *string
	// Revert marks a compensating transfer issued by the resolver.
	Revert bool
}

// IsTransferCall reports whether this transfer carries a receiver
// notification.
func (t BalanceTransfer) IsTransferCall() bool {
	return t.Msg != nil
}

func (t BalanceTransfer) Validate() error {
	if strings.TrimSpace(t.Sender) == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidTransfer)
	}
	if strings.TrimSpace(t.Receiver) == "" {
		return fmt.Errorf("%w: receiver is required", ErrInvalidTransfer)
	}
	return nil
}

// TokenTransfer describes one non-fungible transfer.
type TokenTransfer struct {
	TokenID string
	// Owner is the account expected to own the token before the call.
	Owner string
	// Sender is the account that initiated the transfer.
	Sender   string
	Receiver string
	Memo     string
	// Msg semantics match BalanceTransfer.Msg.
	Msg    *string
	Revert bool
}

func (t TokenTransfer) IsTransferCall() bool {
	return t.Msg != nil
}

func (t TokenTransfer) Validate() error {
	if strings.TrimSpace(t.TokenID) == "" {
		return fmt.Errorf("%w: token id is required", ErrInvalidTransfer)
	}
	if strings.TrimSpace(t.Owner) == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidTransfer)
	}
	if strings.TrimSpace(t.Sender) == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidTransfer)
	}
	if strings.TrimSpace(t.Receiver) == "" {
		return fmt.Errorf("%w: receiver is required", ErrInvalidTransfer)
	}
	return nil
}

type EventKind string

const (
	EventKindTransfer EventKind = "transfer"
	EventKindMint     EventKind = "mint"
	EventKindBurn     EventKind = "burn"
)

// LedgerEvent records one committed ledger mutation, reversals included.
// Events feed the outbox; encoding is the projector's concern.
type LedgerEvent struct {
	ID         string
	Asset      AssetKind
	Kind       EventKind
	Sender     string
	Receiver   string
	Account    string
	TokenID    string
	Amount     Quantity
	Memo       string
	Revert     bool
	OccurredAt time.Time
	Metadata   map[string]any
}

func (e LedgerEvent) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("core: event id is required")
	}
	if err := e.Asset.Validate(); err != nil {
		return err
	}
	switch e.Kind {
	case EventKindTransfer, EventKindMint, EventKindBurn:
	default:
		return fmt.Errorf("core: invalid event kind %q", string(e.Kind))
	}
	return nil
}
