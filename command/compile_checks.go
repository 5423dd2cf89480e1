package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[FungibleTransferMessage]     = (*FungibleTransferCommand)(nil)
	_ gocmd.Commander[FungibleTransferCallMessage] = (*FungibleTransferCallCommand)(nil)
	_ gocmd.Commander[FungibleMintMessage]         = (*FungibleMintCommand)(nil)
	_ gocmd.Commander[FungibleBurnMessage]         = (*FungibleBurnCommand)(nil)
	_ gocmd.Commander[FungibleResolveMessage]      = (*FungibleResolveCommand)(nil)
	_ gocmd.Commander[TokenTransferMessage]        = (*TokenTransferCommand)(nil)
	_ gocmd.Commander[TokenTransferCallMessage]    = (*TokenTransferCallCommand)(nil)
	_ gocmd.Commander[TokenMintMessage]            = (*TokenMintCommand)(nil)
	_ gocmd.Commander[TokenBurnMessage]            = (*TokenBurnCommand)(nil)
	_ gocmd.Commander[TokenResolveMessage]         = (*TokenResolveCommand)(nil)
	_ gocmd.Commander[DispatchSettlementsMessage]  = (*DispatchSettlementsCommand)(nil)
	_ gocmd.Commander[DispatchOutboxMessage]       = (*DispatchOutboxCommand)(nil)
)
