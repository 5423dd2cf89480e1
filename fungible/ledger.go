package fungible

import (
	"context"
	"sync"

	"github.com/goliatone/go-assets/core"
)

// MemoryLedger keeps balances and total supply in process memory. Zero
// balances are not stored; reading an absent account returns zero.
type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]core.Quantity
	total    core.Quantity
}

var _ core.BalanceLedger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[string]core.Quantity)}
}

func (l *MemoryLedger) QuantityOf(ctx context.Context, account string) (core.Quantity, error) {
	if l == nil {
		return core.ZeroQuantity, nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account], nil
}

func (l *MemoryLedger) Total(ctx context.Context) (core.Quantity, error) {
	if l == nil {
		return core.ZeroQuantity, nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total, nil
}

func (l *MemoryLedger) SetQuantity(ctx context.Context, account string, amount core.Quantity) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount.IsZero() {
		delete(l.balances, account)
		return nil
	}
	l.balances[account] = amount
	return nil
}

func (l *MemoryLedger) SetTotal(ctx context.Context, amount core.Quantity) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total = amount
	return nil
}
