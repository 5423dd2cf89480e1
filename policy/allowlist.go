package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-assets/core"
)

// AccountAllowlist is a shared set of accounts permitted to receive
// transfers. An empty list allows everyone so the guard can be wired
// before the list is populated.
type AccountAllowlist struct {
	mu       sync.RWMutex
	accounts map[string]struct{}
}

func NewAccountAllowlist(accounts ...string) *AccountAllowlist {
	l := &AccountAllowlist{accounts: make(map[string]struct{}, len(accounts))}
	l.Allow(accounts...)
	return l
}

func (l *AccountAllowlist) Allow(accounts ...string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.accounts == nil {
		l.accounts = make(map[string]struct{}, len(accounts))
	}
	for _, account := range accounts {
		if account != "" {
			l.accounts[account] = struct{}{}
		}
	}
}

func (l *AccountAllowlist) Remove(accounts ...string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, account := range accounts {
		delete(l.accounts, account)
	}
}

func (l *AccountAllowlist) Allowed(account string) bool {
	if l == nil {
		return true
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.accounts) == 0 {
		return true
	}
	_, ok := l.accounts[account]
	return ok
}

func (l *AccountAllowlist) check(account string) error {
	if !l.Allowed(account) {
		return fmt.Errorf("policy: account %q is not allowed to receive", account)
	}
	return nil
}

// AllowlistFungible vetoes transfers whose receiver is not on the list.
type AllowlistFungible struct {
	core.NopFungibleHooks
	List *AccountAllowlist
}

var _ core.FungibleHooks = (*AllowlistFungible)(nil)

func (a *AllowlistFungible) BeforeTransfer(_ context.Context, transfer core.BalanceTransfer) (any, error) {
	return nil, a.List.check(transfer.Receiver)
}

// AllowlistToken vetoes token transfers whose receiver is not on the
// list.
type AllowlistToken struct {
	core.NopTokenHooks
	List *AccountAllowlist
}

var _ core.TokenHooks = (*AllowlistToken)(nil)

func (a *AllowlistToken) BeforeTransfer(_ context.Context, transfer core.TokenTransfer) (any, error) {
	return nil, a.List.check(transfer.Receiver)
}
