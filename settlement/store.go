package settlement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store persists pending settlements between the notifier and the
// resolver.
type Store interface {
	Create(ctx context.Context, pending Pending) (Pending, error)
	Get(ctx context.Context, id string) (Pending, error)
	// Transition moves a settlement to the given status, recording the
	// cause when present.
	Transition(ctx context.Context, id string, status Status, cause error) (Pending, error)
	// ClaimDue claims up to limit settlements still in StatusPending
	// whose NextAttemptAt has passed, transitioning them to
	// StatusNotified in creation order.
	ClaimDue(ctx context.Context, limit int) ([]Pending, error)
	// Retry releases a claimed settlement back to StatusPending with a
	// backoff, or abandons it when nextAttemptAt is zero.
	Retry(ctx context.Context, id string, cause error, nextAttemptAt time.Time) (Pending, error)
}

// MemoryStore is the in-process Store used by default and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Pending
	Now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]Pending{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryStore) Create(_ context.Context, pending Pending) (Pending, error) {
	if s == nil {
		return Pending{}, fmt.Errorf("settlement: store is not configured")
	}
	if err := pending.Validate(); err != nil {
		return Pending{}, err
	}
	now := s.now()
	if pending.Status == "" {
		pending.Status = StatusPending
	}
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = now
	}
	pending.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[pending.ID]; exists {
		return Pending{}, fmt.Errorf("settlement: pending settlement %q already exists", pending.ID)
	}
	s.entries[pending.ID] = pending
	return pending, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Pending, error) {
	if s == nil {
		return Pending{}, fmt.Errorf("settlement: store is not configured")
	}
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.entries[id]
	if !ok {
		return Pending{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return pending, nil
}

func (s *MemoryStore) Transition(_ context.Context, id string, status Status, cause error) (Pending, error) {
	if s == nil {
		return Pending{}, fmt.Errorf("settlement: store is not configured")
	}
	id = strings.TrimSpace(id)
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.entries[id]
	if !ok {
		return Pending{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err := pending.TransitionTo(status, reason, s.now()); err != nil {
		return Pending{}, err
	}
	s.entries[id] = pending
	return pending, nil
}

func (s *MemoryStore) ClaimDue(_ context.Context, limit int) ([]Pending, error) {
	if s == nil {
		return nil, fmt.Errorf("settlement: store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]Pending, 0, limit)
	for _, pending := range s.entries {
		if pending.Status != StatusPending {
			continue
		}
		if !pending.NextAttemptAt.IsZero() && now.Before(pending.NextAttemptAt) {
			continue
		}
		due = append(due, pending)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]Pending, 0, len(due))
	for _, pending := range due {
		if err := pending.TransitionTo(StatusNotified, "", now); err != nil {
			return nil, err
		}
		pending.Attempts++
		pending.NextAttemptAt = time.Time{}
		s.entries[pending.ID] = pending
		claimed = append(claimed, pending)
	}
	return claimed, nil
}

func (s *MemoryStore) Retry(_ context.Context, id string, cause error, nextAttemptAt time.Time) (Pending, error) {
	if s == nil {
		return Pending{}, fmt.Errorf("settlement: store is not configured")
	}
	id = strings.TrimSpace(id)
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.entries[id]
	if !ok {
		return Pending{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if nextAttemptAt.IsZero() {
		if err := pending.TransitionTo(StatusAbandoned, reason, s.now()); err != nil {
			return Pending{}, err
		}
		pending.NextAttemptAt = time.Time{}
		s.entries[id] = pending
		return pending, nil
	}
	if err := pending.TransitionTo(StatusPending, reason, s.now()); err != nil {
		return Pending{}, err
	}
	pending.NextAttemptAt = nextAttemptAt.UTC()
	s.entries[id] = pending
	return pending, nil
}

func (s *MemoryStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var _ Store = (*MemoryStore)(nil)
