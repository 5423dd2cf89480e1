package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/fungible"
	"github.com/goliatone/go-assets/metadata"
	"github.com/goliatone/go-assets/nonfungible"
	"github.com/goliatone/go-assets/settlement"
)

// Service wires the balance and token engines, their settlement
// plumbing, and the metadata manager over a shared runtime. Stores
// default to in-memory implementations; hosts swap in SQL-backed ones
// through the service options.
type Service struct {
	runtime *core.Runtime

	balanceLedger   core.BalanceLedger
	ownershipLedger core.OwnershipLedger
	settlements     settlement.Store
	metadataStore   metadata.Store

	registry  *settlement.ReceiverRegistry
	invoker   settlement.ReceiverInvoker
	scheduler settlement.Scheduler

	fungibleExecutor *fungible.Executor
	fungibleNotifier *fungible.Notifier
	fungibleResolver *fungible.Resolver

	tokenExecutor *nonfungible.Executor
	tokenNotifier *nonfungible.Notifier
	tokenResolver *nonfungible.Resolver

	settlementDispatcher *settlement.Dispatcher
	metadataManager      *metadata.Manager
}

type ServiceOption func(*serviceBuilder)

type serviceBuilder struct {
	runtimeOptions  []core.Option
	balanceLedger   core.BalanceLedger
	ownershipLedger core.OwnershipLedger
	settlements     settlement.Store
	metadataStore   metadata.Store
	invoker         settlement.ReceiverInvoker
	scheduler       func(*Service) settlement.Scheduler
	fungibleHooks   core.FungibleHooks
	tokenHooks      core.TokenHooks
}

// WithRuntimeOptions forwards options to the underlying core runtime.
func WithRuntimeOptions(options ...core.Option) ServiceOption {
	return func(b *serviceBuilder) {
		b.runtimeOptions = append(b.runtimeOptions, options...)
	}
}

func WithBalanceLedger(ledger core.BalanceLedger) ServiceOption {
	return func(b *serviceBuilder) {
		b.balanceLedger = ledger
	}
}

func WithOwnershipLedger(ledger core.OwnershipLedger) ServiceOption {
	return func(b *serviceBuilder) {
		b.ownershipLedger = ledger
	}
}

func WithSettlementStore(store settlement.Store) ServiceOption {
	return func(b *serviceBuilder) {
		b.settlements = store
	}
}

func WithMetadataStore(store metadata.Store) ServiceOption {
	return func(b *serviceBuilder) {
		b.metadataStore = store
	}
}

// WithReceiverInvoker replaces the in-process receiver registry with a
// custom transport, for example an RPC bridge into receiver contracts.
func WithReceiverInvoker(invoker settlement.ReceiverInvoker) ServiceOption {
	return func(b *serviceBuilder) {
		b.invoker = invoker
	}
}

// WithDeferredSettlement leaves fresh settlements pending so a job
// runner can drain them through DispatchSettlements.
func WithDeferredSettlement() ServiceOption {
	return func(b *serviceBuilder) {
		b.scheduler = func(*Service) settlement.Scheduler {
			return settlement.DeferredScheduler{}
		}
	}
}

func WithFungibleHooks(hooks core.FungibleHooks) ServiceOption {
	return func(b *serviceBuilder) {
		b.fungibleHooks = hooks
	}
}

func WithTokenHooks(hooks core.TokenHooks) ServiceOption {
	return func(b *serviceBuilder) {
		b.tokenHooks = hooks
	}
}

func NewService(cfg core.Config, options ...ServiceOption) (*Service, error) {
	builder := serviceBuilder{}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&builder)
	}

	runtime, err := core.NewRuntime(cfg, builder.runtimeOptions...)
	if err != nil {
		return nil, err
	}

	svc := &Service{runtime: runtime}

	svc.balanceLedger = builder.balanceLedger
	if svc.balanceLedger == nil {
		svc.balanceLedger = fungible.NewMemoryLedger()
	}
	svc.ownershipLedger = builder.ownershipLedger
	if svc.ownershipLedger == nil {
		svc.ownershipLedger = nonfungible.NewMemoryLedger()
	}
	svc.settlements = builder.settlements
	if svc.settlements == nil {
		svc.settlements = settlement.NewMemoryStore()
	}
	svc.metadataStore = builder.metadataStore
	if svc.metadataStore == nil {
		svc.metadataStore = metadata.NewMemoryStore()
	}

	if builder.invoker != nil {
		svc.invoker = builder.invoker
	} else {
		svc.registry = settlement.NewReceiverRegistry()
		svc.invoker = svc.registry
	}

	if builder.fungibleHooks == nil {
		builder.fungibleHooks = core.NopFungibleHooks{}
	}
	if builder.tokenHooks == nil {
		builder.tokenHooks = core.NopTokenHooks{}
	}

	settlementCfg := runtime.Config().Settlement

	svc.fungibleExecutor = fungible.NewExecutor(svc.balanceLedger,
		fungible.WithHooks(builder.fungibleHooks),
		fungible.WithEventSink(runtime.EventSink()),
		fungible.WithLogger(runtime.Logger()),
	)
	svc.fungibleResolver = fungible.NewResolver(svc.fungibleExecutor, svc.settlements,
		fungible.WithResolverClaims(runtime.SettlementClaims(), settlementCfg.ClaimTTL),
		fungible.WithResolverLogger(runtime.Logger()),
	)

	svc.tokenExecutor = nonfungible.NewExecutor(svc.ownershipLedger,
		nonfungible.WithHooks(builder.tokenHooks),
		nonfungible.WithEventSink(runtime.EventSink()),
		nonfungible.WithLogger(runtime.Logger()),
	)
	svc.tokenResolver = nonfungible.NewResolver(svc.tokenExecutor, svc.settlements,
		nonfungible.WithResolverClaims(runtime.SettlementClaims(), settlementCfg.ClaimTTL),
		nonfungible.WithResolverLogger(runtime.Logger()),
	)

	if builder.scheduler != nil {
		svc.scheduler = builder.scheduler(svc)
	} else {
		svc.scheduler = &settlement.InlineScheduler{
			Store:          svc.settlements,
			Invoker:        svc.invoker,
			ResolveBalance: svc.fungibleResolver.ResolveFunc(),
			ResolveToken:   svc.tokenResolver.ResolveFunc(),
		}
	}

	svc.fungibleNotifier = fungible.NewNotifier(svc.fungibleExecutor, svc.settlements, svc.scheduler, settlementCfg)
	svc.tokenNotifier = nonfungible.NewNotifier(svc.tokenExecutor, svc.settlements, svc.scheduler, settlementCfg)

	svc.settlementDispatcher, err = settlement.NewDispatcher(
		svc.settlements,
		svc.invoker,
		svc.fungibleResolver.ResolveFunc(),
		svc.tokenResolver.ResolveFunc(),
	)
	if err != nil {
		return nil, runtime.MapError(err)
	}

	svc.metadataManager = metadata.NewManager(svc.tokenExecutor, svc.metadataStore)

	return svc, nil
}

// Setup builds a service with the default configuration.
func Setup(options ...ServiceOption) (*Service, error) {
	return NewService(core.DefaultConfig(), options...)
}

func (s *Service) Runtime() *core.Runtime {
	if s == nil {
		return nil
	}
	return s.runtime
}

// Receivers returns the in-process receiver registry, or nil when a
// custom invoker was installed.
func (s *Service) Receivers() *settlement.ReceiverRegistry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Fungible() FungibleAPI {
	if s == nil {
		return FungibleAPI{}
	}
	return FungibleAPI{runtime: s.runtime, executor: s.fungibleExecutor, notifier: s.fungibleNotifier, resolver: s.fungibleResolver}
}

func (s *Service) Token() TokenAPI {
	if s == nil {
		return TokenAPI{}
	}
	return TokenAPI{runtime: s.runtime, executor: s.tokenExecutor, notifier: s.tokenNotifier, resolver: s.tokenResolver}
}

func (s *Service) Metadata() *metadata.Manager {
	if s == nil {
		return nil
	}
	return s.metadataManager
}

// DispatchSettlements drains due settlements when the service runs with
// deferred scheduling.
func (s *Service) DispatchSettlements(ctx context.Context, limit int) (settlement.Stats, error) {
	if s == nil || s.settlementDispatcher == nil {
		return settlement.Stats{}, fmt.Errorf("assets: settlement dispatcher is not configured")
	}
	startedAt := time.Now()
	stats, err := s.settlementDispatcher.DispatchDue(ctx, limit)
	s.runtime.ObserveOperation(ctx, startedAt, "settlement.dispatch", err, map[string]any{
		"claimed":   stats.Claimed,
		"resolved":  stats.Resolved,
		"retried":   stats.Retried,
		"abandoned": stats.Abandoned,
	})
	return stats, err
}

// DispatchOutbox delivers pending ledger events to the registered
// projectors.
func (s *Service) DispatchOutbox(ctx context.Context, batchSize int) (core.DispatchStats, error) {
	if s == nil || s.runtime == nil || s.runtime.Dispatcher() == nil {
		return core.DispatchStats{}, fmt.Errorf("assets: outbox dispatcher is not configured")
	}
	startedAt := time.Now()
	stats, err := s.runtime.Dispatcher().DispatchPending(ctx, batchSize)
	s.runtime.ObserveOperation(ctx, startedAt, "outbox.dispatch", err, map[string]any{
		"claimed":   stats.Claimed,
		"delivered": stats.Delivered,
		"retried":   stats.Retried,
		"failed":    stats.Failed,
	})
	return stats, err
}

// FungibleAPI is the balance-side surface of a composed service. Every
// operation reports a counter, a duration histogram, and a structured
// log line through the runtime.
type FungibleAPI struct {
	runtime  *core.Runtime
	executor *fungible.Executor
	notifier *fungible.Notifier
	resolver *fungible.Resolver
}

func (a FungibleAPI) BalanceOf(ctx context.Context, account string) (core.Quantity, error) {
	if a.executor == nil {
		return core.Quantity{}, fmt.Errorf("assets: fungible executor is not configured")
	}
	return a.executor.BalanceOf(ctx, account)
}

func (a FungibleAPI) TotalSupply(ctx context.Context) (core.Quantity, error) {
	if a.executor == nil {
		return core.Quantity{}, fmt.Errorf("assets: fungible executor is not configured")
	}
	return a.executor.TotalSupply(ctx)
}

func (a FungibleAPI) Transfer(ctx context.Context, transfer core.BalanceTransfer) error {
	if a.executor == nil {
		return fmt.Errorf("assets: fungible executor is not configured")
	}
	startedAt := time.Now()
	err := a.executor.Transfer(ctx, transfer)
	a.runtime.ObserveOperation(ctx, startedAt, "fungible.transfer", err, map[string]any{
		"asset":    string(core.AssetFungible),
		"sender":   transfer.Sender,
		"receiver": transfer.Receiver,
	})
	return err
}

func (a FungibleAPI) TransferCall(ctx context.Context, transfer core.BalanceTransfer, budget uint64) (settlement.Pending, error) {
	if a.notifier == nil {
		return settlement.Pending{}, fmt.Errorf("assets: fungible notifier is not configured")
	}
	startedAt := time.Now()
	pending, err := a.notifier.TransferCall(ctx, transfer, budget)
	a.runtime.ObserveOperation(ctx, startedAt, "fungible.transfer_call", err, map[string]any{
		"asset":         string(core.AssetFungible),
		"sender":        transfer.Sender,
		"receiver":      transfer.Receiver,
		"settlement_id": pending.ID,
	})
	return pending, err
}

func (a FungibleAPI) Mint(ctx context.Context, account string, amount core.Quantity, memo string) error {
	if a.executor == nil {
		return fmt.Errorf("assets: fungible executor is not configured")
	}
	startedAt := time.Now()
	err := a.executor.Mint(ctx, account, amount, memo)
	a.runtime.ObserveOperation(ctx, startedAt, "fungible.mint", err, map[string]any{
		"asset":   string(core.AssetFungible),
		"account": account,
	})
	return err
}

func (a FungibleAPI) Burn(ctx context.Context, account string, amount core.Quantity, memo string) error {
	if a.executor == nil {
		return fmt.Errorf("assets: fungible executor is not configured")
	}
	startedAt := time.Now()
	err := a.executor.Burn(ctx, account, amount, memo)
	a.runtime.ObserveOperation(ctx, startedAt, "fungible.burn", err, map[string]any{
		"asset":   string(core.AssetFungible),
		"account": account,
	})
	return err
}

// Resolve settles a pending balance transfer with the receiver's
// reported outcome. Hosts with out-of-process receivers call this from
// their callback path.
func (a FungibleAPI) Resolve(ctx context.Context, settlementID string, outcome settlement.Outcome) (fungible.Resolution, error) {
	if a.resolver == nil {
		return fungible.Resolution{}, fmt.Errorf("assets: fungible resolver is not configured")
	}
	startedAt := time.Now()
	resolution, err := a.resolver.Resolve(ctx, settlementID, outcome)
	a.runtime.ObserveOperation(ctx, startedAt, "fungible.resolve", err, map[string]any{
		"asset":         string(core.AssetFungible),
		"settlement_id": settlementID,
	})
	return resolution, err
}

// TokenAPI is the ownership-side surface of a composed service,
// instrumented the same way as FungibleAPI.
type TokenAPI struct {
	runtime  *core.Runtime
	executor *nonfungible.Executor
	notifier *nonfungible.Notifier
	resolver *nonfungible.Resolver
}

func (a TokenAPI) OwnerOf(ctx context.Context, tokenID string) (string, bool, error) {
	if a.executor == nil {
		return "", false, fmt.Errorf("assets: token executor is not configured")
	}
	return a.executor.OwnerOf(ctx, tokenID)
}

func (a TokenAPI) Transfer(ctx context.Context, transfer core.TokenTransfer) error {
	if a.executor == nil {
		return fmt.Errorf("assets: token executor is not configured")
	}
	startedAt := time.Now()
	err := a.executor.Transfer(ctx, transfer)
	a.runtime.ObserveOperation(ctx, startedAt, "token.transfer", err, map[string]any{
		"asset":    string(core.AssetNonFungible),
		"token_id": transfer.TokenID,
		"sender":   transfer.Sender,
		"receiver": transfer.Receiver,
	})
	return err
}

func (a TokenAPI) TransferCall(ctx context.Context, transfer core.TokenTransfer, budget uint64) (settlement.Pending, error) {
	if a.notifier == nil {
		return settlement.Pending{}, fmt.Errorf("assets: token notifier is not configured")
	}
	startedAt := time.Now()
	pending, err := a.notifier.TransferCall(ctx, transfer, budget)
	a.runtime.ObserveOperation(ctx, startedAt, "token.transfer_call", err, map[string]any{
		"asset":         string(core.AssetNonFungible),
		"token_id":      transfer.TokenID,
		"sender":        transfer.Sender,
		"receiver":      transfer.Receiver,
		"settlement_id": pending.ID,
	})
	return pending, err
}

func (a TokenAPI) Mint(ctx context.Context, tokenID, owner string) error {
	if a.executor == nil {
		return fmt.Errorf("assets: token executor is not configured")
	}
	startedAt := time.Now()
	err := a.executor.Mint(ctx, tokenID, owner)
	a.runtime.ObserveOperation(ctx, startedAt, "token.mint", err, map[string]any{
		"asset":    string(core.AssetNonFungible),
		"token_id": tokenID,
		"account":  owner,
	})
	return err
}

func (a TokenAPI) Burn(ctx context.Context, tokenID, owner string) error {
	if a.executor == nil {
		return fmt.Errorf("assets: token executor is not configured")
	}
	startedAt := time.Now()
	err := a.executor.Burn(ctx, tokenID, owner)
	a.runtime.ObserveOperation(ctx, startedAt, "token.burn", err, map[string]any{
		"asset":    string(core.AssetNonFungible),
		"token_id": tokenID,
		"account":  owner,
	})
	return err
}

func (a TokenAPI) Resolve(ctx context.Context, settlementID string, outcome settlement.Outcome) (nonfungible.Resolution, error) {
	if a.resolver == nil {
		return nonfungible.Resolution{}, fmt.Errorf("assets: token resolver is not configured")
	}
	startedAt := time.Now()
	resolution, err := a.resolver.Resolve(ctx, settlementID, outcome)
	a.runtime.ObserveOperation(ctx, startedAt, "token.resolve", err, map[string]any{
		"asset":         string(core.AssetNonFungible),
		"settlement_id": settlementID,
	})
	return resolution, err
}
