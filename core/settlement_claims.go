package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultClaimMaxEntries = 8192

// MemorySettlementClaims tracks resolved settlement correlation keys in
// memory. A claim succeeds only the first time a key is seen within its
// TTL window; the resolver uses this as the backstop against a violated
// at-most-once scheduling guarantee.
type MemorySettlementClaims struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	maxEntries int
	entries    map[string]time.Time
	Now        func() time.Time
}

func NewMemorySettlementClaims(defaultTTL time.Duration) *MemorySettlementClaims {
	return NewMemorySettlementClaimsWithLimits(defaultTTL, defaultClaimMaxEntries)
}

func NewMemorySettlementClaimsWithLimits(defaultTTL time.Duration, maxEntries int) *MemorySettlementClaims {
	if defaultTTL <= 0 {
		defaultTTL = defaultSettlementClaimTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultClaimMaxEntries
	}
	return &MemorySettlementClaims{
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		entries:    map[string]time.Time{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (c *MemorySettlementClaims) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("core: settlement claims ledger is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false, fmt.Errorf("core: settlement claim key is required")
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneExpiredLocked(now)
	if expiresAt, ok := c.entries[key]; ok {
		if now.Before(expiresAt) {
			return false, nil
		}
		delete(c.entries, key)
	}
	c.enforceCapacityLocked(1)
	c.entries[key] = now.Add(ttl)
	return true, nil
}

func (c *MemorySettlementClaims) PurgeExpired(_ context.Context) (int, error) {
	if c == nil {
		return 0, fmt.Errorf("core: settlement claims ledger is not configured")
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	pruned := 0
	for key, expiresAt := range c.entries {
		if !now.Before(expiresAt) {
			delete(c.entries, key)
			pruned++
		}
	}
	return pruned, nil
}

func (c *MemorySettlementClaims) now() time.Time {
	if c != nil && c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

func (c *MemorySettlementClaims) pruneExpiredLocked(now time.Time) {
	for key, expiresAt := range c.entries {
		if !now.Before(expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MemorySettlementClaims) enforceCapacityLocked(incoming int) {
	if c.maxEntries <= 0 {
		return
	}
	target := c.maxEntries - incoming
	if target < 0 {
		target = 0
	}
	for len(c.entries) > target {
		c.evictOldestLocked()
	}
}

func (c *MemorySettlementClaims) evictOldestLocked() {
	var oldestKey string
	var oldestExpiry time.Time
	for key, expiry := range c.entries {
		if oldestKey == "" || expiry.Before(oldestExpiry) {
			oldestKey = key
			oldestExpiry = expiry
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

var _ SettlementClaims = (*MemorySettlementClaims)(nil)
