package nonfungible

import (
	"context"
	"sync"

	"github.com/goliatone/go-assets/core"
)

// MemoryLedger keeps token ownership in process memory. An absent
// token id means the token does not exist.
type MemoryLedger struct {
	mu     sync.RWMutex
	owners map[string]string
}

var _ core.OwnershipLedger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{owners: make(map[string]string)}
}

func (l *MemoryLedger) OwnerOf(ctx context.Context, tokenID string) (string, bool, error) {
	if l == nil {
		return "", false, nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	owner, ok := l.owners[tokenID]
	return owner, ok, nil
}

func (l *MemoryLedger) SetOwner(ctx context.Context, tokenID, owner string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.owners[tokenID] = owner
	return nil
}

func (l *MemoryLedger) ClearOwner(ctx context.Context, tokenID string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.owners, tokenID)
	return nil
}
