package core

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

const MetadataKeyOutboxAttempts = "_outbox_attempts"

type OutboxDispatcherConfig struct {
	BatchSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultOutboxDispatcherConfig() OutboxDispatcherConfig {
	return OutboxDispatcherConfig{
		BatchSize:      50,
		MaxAttempts:    5,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     5 * time.Minute,
	}
}

// OutboxDispatcher drains committed ledger events from the outbox and
// fans them out to registered projectors with claim/ack/retry
// semantics. Event delivery never feeds back into ledger state.
type OutboxDispatcher struct {
	store    OutboxStore
	registry ProjectorRegistry
	config   OutboxDispatcherConfig
	now      func() time.Time
}

func NewOutboxDispatcher(
	store OutboxStore,
	registry ProjectorRegistry,
	config OutboxDispatcherConfig,
) (*OutboxDispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("core: outbox store is required")
	}
	defaults := DefaultOutboxDispatcherConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	return &OutboxDispatcher{
		store:    store,
		registry: registry,
		config:   config,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (d *OutboxDispatcher) DispatchPending(ctx context.Context, batchSize int) (DispatchStats, error) {
	if d == nil || d.store == nil {
		return DispatchStats{}, fmt.Errorf("core: outbox dispatcher is not configured")
	}
	limit := batchSize
	if limit <= 0 {
		limit = d.config.BatchSize
	}
	events, err := d.store.ClaimBatch(ctx, limit)
	if err != nil {
		return DispatchStats{}, err
	}

	stats := DispatchStats{Claimed: len(events)}
	var dispatchErr error
	for _, event := range events {
		if err := d.dispatchOne(ctx, event); err != nil {
			if retryErr := d.retryEvent(ctx, event, err); retryErr != nil {
				dispatchErr = joinErrors(dispatchErr, retryErr)
			}
			if eventAttemptIndex(event)+1 >= d.config.MaxAttempts {
				stats.Failed++
			} else {
				stats.Retried++
			}
			dispatchErr = joinErrors(dispatchErr, err)
			continue
		}
		if err := d.store.Ack(ctx, strings.TrimSpace(event.ID)); err != nil {
			dispatchErr = joinErrors(dispatchErr, err)
			continue
		}
		stats.Delivered++
	}

	return stats, dispatchErr
}

func (d *OutboxDispatcher) dispatchOne(ctx context.Context, event LedgerEvent) error {
	if d == nil || d.registry == nil {
		return nil
	}
	for i, handler := range d.registry.Handlers() {
		if handler == nil {
			continue
		}
		if err := handler.Handle(ctx, event); err != nil {
			return fmt.Errorf("core: event projector %d failed for event %q: %w", i, event.ID, err)
		}
	}
	return nil
}

func (d *OutboxDispatcher) retryEvent(ctx context.Context, event LedgerEvent, cause error) error {
	attempt := eventAttemptIndex(event)
	if attempt+1 >= d.config.MaxAttempts {
		return d.store.Retry(ctx, strings.TrimSpace(event.ID), cause, time.Time{})
	}
	nextAttemptAt := d.now().Add(d.nextBackoffDelay(attempt + 1))
	return d.store.Retry(ctx, strings.TrimSpace(event.ID), cause, nextAttemptAt)
}

func (d *OutboxDispatcher) nextBackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(d.config.InitialBackoff)
	next := time.Duration(base * math.Pow(2, float64(attempt-1)))
	if next < 0 || next > d.config.MaxBackoff {
		return d.config.MaxBackoff
	}
	return next
}

func eventAttemptIndex(event LedgerEvent) int {
	if len(event.Metadata) == 0 {
		return 0
	}
	raw, ok := event.Metadata[MetadataKeyOutboxAttempts]
	if !ok {
		return 0
	}
	switch typed := raw.(type) {
	case int:
		if typed > 0 {
			return typed
		}
	case int64:
		if typed > 0 {
			return int(typed)
		}
	case float64:
		if typed > 0 {
			return int(typed)
		}
	}
	return 0
}

func joinErrors(existing error, next error) error {
	if existing == nil {
		return next
	}
	if next == nil {
		return existing
	}
	return fmt.Errorf("%w; %v", existing, next)
}

// ProjectorList is a static ProjectorRegistry.
type ProjectorList struct {
	mu         sync.RWMutex
	projectors []EventProjector
}

func NewProjectorList(projectors ...EventProjector) *ProjectorList {
	list := &ProjectorList{}
	for _, projector := range projectors {
		list.Register(projector)
	}
	return list
}

func (l *ProjectorList) Register(projector EventProjector) {
	if l == nil || projector == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.projectors = append(l.projectors, projector)
}

func (l *ProjectorList) Handlers() []EventProjector {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]EventProjector, len(l.projectors))
	copy(out, l.projectors)
	return out
}

type outboxEntry struct {
	event         LedgerEvent
	status        string
	attempts      int
	nextAttemptAt time.Time
	lastError     string
}

// MemoryOutboxStore is the in-process OutboxStore used by default and
// in tests. Claim order follows OccurredAt.
type MemoryOutboxStore struct {
	mu      sync.Mutex
	entries map[string]*outboxEntry
	Now     func() time.Time
}

func NewMemoryOutboxStore() *MemoryOutboxStore {
	return &MemoryOutboxStore{
		entries: map[string]*outboxEntry{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryOutboxStore) Enqueue(_ context.Context, event LedgerEvent) error {
	if s == nil {
		return fmt.Errorf("core: outbox store is not configured")
	}
	if err := event.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[event.ID]; exists {
		return fmt.Errorf("core: outbox event %q already enqueued", event.ID)
	}
	s.entries[event.ID] = &outboxEntry{event: event, status: "pending"}
	return nil
}

func (s *MemoryOutboxStore) ClaimBatch(_ context.Context, limit int) ([]LedgerEvent, error) {
	if s == nil {
		return nil, fmt.Errorf("core: outbox store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	claimable := make([]*outboxEntry, 0, limit)
	for _, entry := range s.entries {
		if entry.status != "pending" {
			continue
		}
		if !entry.nextAttemptAt.IsZero() && now.Before(entry.nextAttemptAt) {
			continue
		}
		claimable = append(claimable, entry)
	}
	sort.Slice(claimable, func(i, j int) bool {
		return claimable[i].event.OccurredAt.Before(claimable[j].event.OccurredAt)
	})
	if len(claimable) > limit {
		claimable = claimable[:limit]
	}

	events := make([]LedgerEvent, 0, len(claimable))
	for _, entry := range claimable {
		entry.status = "processing"
		event := entry.event
		if event.Metadata == nil {
			event.Metadata = map[string]any{}
		}
		event.Metadata[MetadataKeyOutboxAttempts] = entry.attempts
		events = append(events, event)
	}
	return events, nil
}

func (s *MemoryOutboxStore) Ack(_ context.Context, eventID string) error {
	if s == nil {
		return fmt.Errorf("core: outbox store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[eventID]
	if !ok {
		return fmt.Errorf("core: outbox event %q not found", eventID)
	}
	entry.status = "delivered"
	entry.lastError = ""
	entry.nextAttemptAt = time.Time{}
	return nil
}

func (s *MemoryOutboxStore) Retry(_ context.Context, eventID string, cause error, nextAttemptAt time.Time) error {
	if s == nil {
		return fmt.Errorf("core: outbox store is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[eventID]
	if !ok {
		return fmt.Errorf("core: outbox event %q not found", eventID)
	}
	entry.attempts++
	if cause != nil {
		entry.lastError = cause.Error()
	}
	if nextAttemptAt.IsZero() {
		entry.status = "failed"
		entry.nextAttemptAt = time.Time{}
		return nil
	}
	entry.status = "pending"
	entry.nextAttemptAt = nextAttemptAt.UTC()
	return nil
}

func (s *MemoryOutboxStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// OutboxEventSink adapts an OutboxStore into the EventSink the
// executors emit through.
type OutboxEventSink struct {
	Store OutboxStore
}

func (s OutboxEventSink) Emit(ctx context.Context, event LedgerEvent) error {
	if s.Store == nil {
		return fmt.Errorf("core: outbox event sink is not configured")
	}
	return s.Store.Enqueue(ctx, event)
}

var (
	_ EventDispatcher   = (*OutboxDispatcher)(nil)
	_ ProjectorRegistry = (*ProjectorList)(nil)
	_ OutboxStore       = (*MemoryOutboxStore)(nil)
	_ EventSink         = OutboxEventSink{}
)
