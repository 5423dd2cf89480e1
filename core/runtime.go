package core

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Runtime bundles the ambient dependencies the variant engines share:
// resolved configuration, logging, metrics, error mapping, the event
// outbox, and the settlement claims ledger. It carries no ledger state.
type Runtime struct {
	config           Config
	logger           Logger
	loggerProvider   LoggerProvider
	metricsRecorder  MetricsRecorder
	errorFactory     ErrorFactory
	errorMapper      ErrorMapper
	outboxStore      OutboxStore
	settlementClaims SettlementClaims
	eventSink        EventSink
	projectors       *ProjectorList
	dispatcher       *OutboxDispatcher
}

func NewRuntime(cfg Config, options ...Option) (*Runtime, error) {
	builder := defaultRuntimeBuilder(cfg)
	for _, option := range options {
		if option == nil {
			continue
		}
		option(&builder)
	}

	provider, logger := glog.Resolve("assets", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("assets"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.outboxStore == nil {
		builder.outboxStore = NewMemoryOutboxStore()
	}
	if builder.settlementClaims == nil {
		builder.settlementClaims = NewMemorySettlementClaims(finalConfig.Settlement.ClaimTTL)
	}
	if builder.eventSink == nil {
		builder.eventSink = OutboxEventSink{Store: builder.outboxStore}
	}

	projectors := NewProjectorList(builder.projectors...)
	dispatcher, err := NewOutboxDispatcher(builder.outboxStore, projectors, OutboxDispatcherConfig{})
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Runtime{
		config:           finalConfig,
		logger:           logger,
		loggerProvider:   provider,
		metricsRecorder:  builder.metricsRecorder,
		errorFactory:     builder.errorFactory,
		errorMapper:      builder.errorMapper,
		outboxStore:      builder.outboxStore,
		settlementClaims: builder.settlementClaims,
		eventSink:        builder.eventSink,
		projectors:       projectors,
		dispatcher:       dispatcher,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (r *Runtime) Config() Config {
	if r == nil {
		return Config{}
	}
	return r.config
}

func (r *Runtime) Logger() Logger {
	if r == nil {
		return glog.Nop()
	}
	return r.logger
}

func (r *Runtime) Metrics() MetricsRecorder {
	if r == nil {
		return NopMetricsRecorder{}
	}
	return r.metricsRecorder
}

// MapError normalizes any error into the module's envelope.
func (r *Runtime) MapError(err error) error {
	if r == nil || r.errorMapper == nil {
		return err
	}
	return mapBuildError(r.errorMapper, err)
}

func (r *Runtime) OutboxStore() OutboxStore {
	if r == nil {
		return nil
	}
	return r.outboxStore
}

func (r *Runtime) SettlementClaims() SettlementClaims {
	if r == nil {
		return nil
	}
	return r.settlementClaims
}

func (r *Runtime) EventSink() EventSink {
	if r == nil {
		return nil
	}
	return r.eventSink
}

func (r *Runtime) RegisterProjector(projector EventProjector) {
	if r == nil || r.projectors == nil {
		return
	}
	r.projectors.Register(projector)
}

// Dispatcher drains the outbox into the registered projectors.
func (r *Runtime) Dispatcher() *OutboxDispatcher {
	if r == nil {
		return nil
	}
	return r.dispatcher
}
