package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/settlement"
)

const (
	TypeFungibleTransfer     = "assets.command.fungible.transfer"
	TypeFungibleTransferCall = "assets.command.fungible.transfer_call"
	TypeFungibleMint         = "assets.command.fungible.mint"
	TypeFungibleBurn         = "assets.command.fungible.burn"
	TypeFungibleResolve      = "assets.command.fungible.resolve"
	TypeTokenTransfer        = "assets.command.token.transfer"
	TypeTokenTransferCall    = "assets.command.token.transfer_call"
	TypeTokenMint            = "assets.command.token.mint"
	TypeTokenBurn            = "assets.command.token.burn"
	TypeTokenResolve         = "assets.command.token.resolve"
	TypeDispatchSettlements  = "assets.command.settlement.dispatch"
	TypeDispatchOutbox       = "assets.command.outbox.dispatch"
)

type FungibleTransferMessage struct {
	Transfer core.BalanceTransfer
}

func (FungibleTransferMessage) Type() string { return TypeFungibleTransfer }

func (m FungibleTransferMessage) Validate() error {
	return m.Transfer.Validate()
}

type FungibleTransferCallMessage struct {
	Transfer core.BalanceTransfer
	Budget   uint64
}

func (FungibleTransferCallMessage) Type() string { return TypeFungibleTransferCall }

func (m FungibleTransferCallMessage) Validate() error {
	if err := m.Transfer.Validate(); err != nil {
		return err
	}
	if !m.Transfer.IsTransferCall() {
		return fmt.Errorf("command: transfer call requires a message")
	}
	return nil
}

type FungibleMintMessage struct {
	Account string
	Amount  core.Quantity
	Memo    string
}

func (FungibleMintMessage) Type() string { return TypeFungibleMint }

func (m FungibleMintMessage) Validate() error {
	if strings.TrimSpace(m.Account) == "" {
		return fmt.Errorf("command: mint account is required")
	}
	return nil
}

type FungibleBurnMessage struct {
	Account string
	Amount  core.Quantity
	Memo    string
}

func (FungibleBurnMessage) Type() string { return TypeFungibleBurn }

func (m FungibleBurnMessage) Validate() error {
	if strings.TrimSpace(m.Account) == "" {
		return fmt.Errorf("command: burn account is required")
	}
	return nil
}

// FungibleResolveMessage carries a receiver outcome reported by an
// out-of-process receiver host back to the balance resolver.
type FungibleResolveMessage struct {
	SettlementID string
	Outcome      settlement.Outcome
}

func (FungibleResolveMessage) Type() string { return TypeFungibleResolve }

func (m FungibleResolveMessage) Validate() error {
	if strings.TrimSpace(m.SettlementID) == "" {
		return fmt.Errorf("command: settlement id is required")
	}
	return nil
}

type TokenTransferMessage struct {
	Transfer core.TokenTransfer
}

func (TokenTransferMessage) Type() string { return TypeTokenTransfer }

func (m TokenTransferMessage) Validate() error {
	return m.Transfer.Validate()
}

type TokenTransferCallMessage struct {
	Transfer core.TokenTransfer
	Budget   uint64
}

func (TokenTransferCallMessage) Type() string { return TypeTokenTransferCall }

func (m TokenTransferCallMessage) Validate() error {
	if err := m.Transfer.Validate(); err != nil {
		return err
	}
	if !m.Transfer.IsTransferCall() {
		return fmt.Errorf("command: transfer call requires a message")
	}
	return nil
}

type TokenMintMessage struct {
	TokenID string
	Owner   string
}

func (TokenMintMessage) Type() string { return TypeTokenMint }

func (m TokenMintMessage) Validate() error {
	if strings.TrimSpace(m.TokenID) == "" {
		return fmt.Errorf("command: token id is required")
	}
	if strings.TrimSpace(m.Owner) == "" {
		return fmt.Errorf("command: owner is required")
	}
	return nil
}

type TokenBurnMessage struct {
	TokenID string
	Owner   string
}

func (TokenBurnMessage) Type() string { return TypeTokenBurn }

func (m TokenBurnMessage) Validate() error {
	if strings.TrimSpace(m.TokenID) == "" {
		return fmt.Errorf("command: token id is required")
	}
	if strings.TrimSpace(m.Owner) == "" {
		return fmt.Errorf("command: owner is required")
	}
	return nil
}

type TokenResolveMessage struct {
	SettlementID string
	Outcome      settlement.Outcome
}

func (TokenResolveMessage) Type() string { return TypeTokenResolve }

func (m TokenResolveMessage) Validate() error {
	if strings.TrimSpace(m.SettlementID) == "" {
		return fmt.Errorf("command: settlement id is required")
	}
	return nil
}

type DispatchSettlementsMessage struct {
	Limit int
}

func (DispatchSettlementsMessage) Type() string { return TypeDispatchSettlements }

func (m DispatchSettlementsMessage) Validate() error {
	if m.Limit < 0 {
		return fmt.Errorf("command: dispatch limit must not be negative")
	}
	return nil
}

type DispatchOutboxMessage struct {
	BatchSize int
}

func (DispatchOutboxMessage) Type() string { return TypeDispatchOutbox }

func (m DispatchOutboxMessage) Validate() error {
	if m.BatchSize < 0 {
		return fmt.Errorf("command: batch size must not be negative")
	}
	return nil
}
