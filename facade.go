package assets

import (
	"fmt"

	assetscommand "github.com/goliatone/go-assets/command"
)

// Commands groups the message-driven handlers bound to one service.
type Commands struct {
	FungibleTransfer     *assetscommand.FungibleTransferCommand
	FungibleTransferCall *assetscommand.FungibleTransferCallCommand
	FungibleMint         *assetscommand.FungibleMintCommand
	FungibleBurn         *assetscommand.FungibleBurnCommand
	FungibleResolve      *assetscommand.FungibleResolveCommand
	TokenTransfer        *assetscommand.TokenTransferCommand
	TokenTransferCall    *assetscommand.TokenTransferCallCommand
	TokenMint            *assetscommand.TokenMintCommand
	TokenBurn            *assetscommand.TokenBurnCommand
	TokenResolve         *assetscommand.TokenResolveCommand
	DispatchSettlements  *assetscommand.DispatchSettlementsCommand
	DispatchOutbox       *assetscommand.DispatchOutboxCommand
}

// Facade exposes a composed service through its command handlers so
// hosts can register them with a command bus or job runner.
type Facade struct {
	service  *Service
	commands Commands
}

func NewFacade(service *Service) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("assets: service is required")
	}

	fungibleAPI := service.Fungible()
	tokenAPI := service.Token()

	facade := &Facade{service: service}
	facade.commands = Commands{
		FungibleTransfer:     assetscommand.NewFungibleTransferCommand(fungibleAPI),
		FungibleTransferCall: assetscommand.NewFungibleTransferCallCommand(fungibleAPI),
		FungibleMint:         assetscommand.NewFungibleMintCommand(fungibleAPI),
		FungibleBurn:         assetscommand.NewFungibleBurnCommand(fungibleAPI),
		FungibleResolve:      assetscommand.NewFungibleResolveCommand(fungibleAPI),
		TokenTransfer:        assetscommand.NewTokenTransferCommand(tokenAPI),
		TokenTransferCall:    assetscommand.NewTokenTransferCallCommand(tokenAPI),
		TokenMint:            assetscommand.NewTokenMintCommand(tokenAPI),
		TokenBurn:            assetscommand.NewTokenBurnCommand(tokenAPI),
		TokenResolve:         assetscommand.NewTokenResolveCommand(tokenAPI),
		DispatchSettlements:  assetscommand.NewDispatchSettlementsCommand(service.settlementDispatcher),
		DispatchOutbox:       assetscommand.NewDispatchOutboxCommand(service.runtime.Dispatcher()),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Service() *Service {
	if f == nil {
		return nil
	}
	return f.service
}
