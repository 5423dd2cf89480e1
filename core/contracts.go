package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Logger is the canonical logging contract used across the module.
type Logger = glog.Logger

// LoggerProvider resolves named loggers.
type LoggerProvider = glog.LoggerProvider

// FieldsLogger is an optional logger capability for structured fields.
type FieldsLogger = glog.FieldsLogger

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return glog.Nop()
}

// BalanceLedger is the sparse fungible store: absent accounts read as
// zero, Total is the circulating supply. The ledger performs no
// protocol validation; mutations are only reachable through the
// fungible executor and resolver.
type BalanceLedger interface {
	QuantityOf(ctx context.Context, account string) (Quantity, error)
	Total(ctx context.Context) (Quantity, error)
	SetQuantity(ctx context.Context, account string, quantity Quantity) error
	SetTotal(ctx context.Context, total Quantity) error
}

// OwnershipLedger is the sparse non-fungible store: an absent token id
// means the token does not exist, otherwise exactly one owner.
type OwnershipLedger interface {
	OwnerOf(ctx context.Context, tokenID string) (string, bool, error)
	SetOwner(ctx context.Context, tokenID string, owner string) error
	ClearOwner(ctx context.Context, tokenID string) error
}

// EventSink receives every committed ledger event, reversals included.
type EventSink interface {
	Emit(ctx context.Context, event LedgerEvent) error
}

// OutboxStore persists committed events until projectors acknowledge
// them.
type OutboxStore interface {
	Enqueue(ctx context.Context, event LedgerEvent) error
	ClaimBatch(ctx context.Context, limit int) ([]LedgerEvent, error)
	Ack(ctx context.Context, eventID string) error
	Retry(ctx context.Context, eventID string, cause error, nextAttemptAt time.Time) error
}

// EventProjector consumes dispatched ledger events.
type EventProjector interface {
	Handle(ctx context.Context, event LedgerEvent) error
}

// ProjectorRegistry lists the projectors the dispatcher fans out to.
type ProjectorRegistry interface {
	Handlers() []EventProjector
}

// EventDispatcher drains the outbox.
type EventDispatcher interface {
	DispatchPending(ctx context.Context, batchSize int) (DispatchStats, error)
}

type DispatchStats struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
}

// SettlementClaims is the defensive idempotency backstop for resolver
// invocations: the first claim for a correlation key wins, later claims
// within the TTL report the settlement as already handled.
type SettlementClaims interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	PurgeExpired(ctx context.Context) (int, error)
}

// FungibleReceiver is the notification entry point a fungible receiver
// must expose. The returned quantity is the unused portion the receiver
// does not keep; the call may fail instead of returning.
type FungibleReceiver interface {
	OnTransfer(ctx context.Context, sender string, previousOwner string, amount Quantity, msg string) (Quantity, error)
}

// TokenReceiver is the notification entry point a non-fungible receiver
// must expose. Returning true asks for the token back.
type TokenReceiver interface {
	OnTransfer(ctx context.Context, sender string, previousOwner string, tokenID string, msg string) (bool, error)
}

// MetricsRecorder receives operation counters and timings.
type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// FungibleHooks is the fungible lifecycle extension point. Before hooks
// may veto by returning an error, aborting the operation before any
// ledger mutation; the opaque state they return is threaded, unmodified,
// into the matching after hook.
type FungibleHooks interface {
	BeforeTransfer(ctx context.Context, transfer BalanceTransfer) (any, error)
	AfterTransfer(ctx context.Context, transfer BalanceTransfer, state any) error
	BeforeMint(ctx context.Context, account string, amount Quantity) (any, error)
	AfterMint(ctx context.Context, account string, amount Quantity, state any) error
	BeforeBurn(ctx context.Context, account string, amount Quantity) (any, error)
	AfterBurn(ctx context.Context, account string, amount Quantity, state any) error
}

// TokenHooks is the non-fungible lifecycle extension point with the
// same carried-state contract as FungibleHooks.
type TokenHooks interface {
	BeforeTransfer(ctx context.Context, transfer TokenTransfer) (any, error)
	AfterTransfer(ctx context.Context, transfer TokenTransfer, state any) error
	BeforeMint(ctx context.Context, tokenID string, owner string) (any, error)
	AfterMint(ctx context.Context, tokenID string, owner string, state any) error
	BeforeBurn(ctx context.Context, tokenID string, owner string) (any, error)
	AfterBurn(ctx context.Context, tokenID string, owner string, state any) error
}
