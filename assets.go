// Package assets composes durable fungible balance and non-fungible
// token ledgers with a transfer-and-settle protocol: transfers into
// receiver-controlled code commit optimistically and are reconciled by
// a resolver once the receiver reports its outcome.
package assets

import "github.com/goliatone/go-assets/core"

type Config = core.Config

type SettlementConfig = core.SettlementConfig

type Option = core.Option

type Quantity = core.Quantity

type BalanceTransfer = core.BalanceTransfer
type TokenTransfer = core.TokenTransfer
type LedgerEvent = core.LedgerEvent

type BalanceLedger = core.BalanceLedger
type OwnershipLedger = core.OwnershipLedger
type EventSink = core.EventSink
type EventProjector = core.EventProjector
type OutboxStore = core.OutboxStore
type SettlementClaims = core.SettlementClaims
type FungibleHooks = core.FungibleHooks
type TokenHooks = core.TokenHooks

var (
	WithLogger           = core.WithLogger
	WithLoggerProvider   = core.WithLoggerProvider
	WithMetricsRecorder  = core.WithMetricsRecorder
	WithErrorFactory     = core.WithErrorFactory
	WithErrorMapper      = core.WithErrorMapper
	WithConfigProvider   = core.WithConfigProvider
	WithOptionsResolver  = core.WithOptionsResolver
	WithOutboxStore      = core.WithOutboxStore
	WithSettlementClaims = core.WithSettlementClaims
	WithEventSink        = core.WithEventSink
	WithProjector        = core.WithProjector
)

var (
	Q64           = core.Q64
	ParseQuantity = core.ParseQuantity
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}
