package metadata

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store persists contract and token metadata.
type Store interface {
	Contract(ctx context.Context) (ContractMetadata, error)
	SetContract(ctx context.Context, meta ContractMetadata) error
	Token(ctx context.Context, tokenID string) (TokenMetadata, error)
	SetToken(ctx context.Context, meta TokenMetadata) (TokenMetadata, error)
	DeleteToken(ctx context.Context, tokenID string) error
}

// MemoryStore is the in-process Store used by default and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	contract ContractMetadata
	tokens   map[string]TokenMetadata
	Now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: map[string]TokenMetadata{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryStore) Contract(_ context.Context) (ContractMetadata, error) {
	if s == nil {
		return ContractMetadata{}, fmt.Errorf("metadata: store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contract, nil
}

func (s *MemoryStore) SetContract(_ context.Context, meta ContractMetadata) error {
	if s == nil {
		return fmt.Errorf("metadata: store is not configured")
	}
	if err := meta.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.contract = meta
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Token(_ context.Context, tokenID string) (TokenMetadata, error) {
	if s == nil {
		return TokenMetadata{}, fmt.Errorf("metadata: store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.tokens[tokenID]
	if !ok {
		return TokenMetadata{}, fmt.Errorf("%w: %q", ErrTokenMetadataNotFound, tokenID)
	}
	return meta, nil
}

func (s *MemoryStore) SetToken(_ context.Context, meta TokenMetadata) (TokenMetadata, error) {
	if s == nil {
		return TokenMetadata{}, fmt.Errorf("metadata: store is not configured")
	}
	if err := meta.Validate(); err != nil {
		return TokenMetadata{}, err
	}
	now := s.now()
	if meta.IssuedAt.IsZero() {
		meta.IssuedAt = now
	}
	meta.UpdatedAt = now

	s.mu.Lock()
	s.tokens[meta.TokenID] = meta
	s.mu.Unlock()
	return meta, nil
}

func (s *MemoryStore) DeleteToken(_ context.Context, tokenID string) error {
	if s == nil {
		return fmt.Errorf("metadata: store is not configured")
	}
	s.mu.Lock()
	delete(s.tokens, tokenID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
