package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-assets/core"
)

const (
	RoleMinter = "minter"
	RoleBurner = "burner"
)

// Roles maps accounts to granted role names.
type Roles struct {
	mu     sync.RWMutex
	grants map[string]map[string]struct{}
}

func NewRoles() *Roles {
	return &Roles{grants: make(map[string]map[string]struct{})}
}

func (r *Roles) Grant(account, role string) {
	if r == nil || account == "" || role == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grants == nil {
		r.grants = make(map[string]map[string]struct{})
	}
	if r.grants[account] == nil {
		r.grants[account] = make(map[string]struct{})
	}
	r.grants[account][role] = struct{}{}
}

func (r *Roles) Revoke(account, role string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if roles, ok := r.grants[account]; ok {
		delete(roles, role)
		if len(roles) == 0 {
			delete(r.grants, account)
		}
	}
}

func (r *Roles) Has(account, role string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	roles, ok := r.grants[account]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}

func (r *Roles) require(ctx context.Context, role string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return fmt.Errorf("policy: no acting account, role %q required", role)
	}
	if !r.Has(actor, role) {
		return fmt.Errorf("policy: account %q lacks role %q", actor, role)
	}
	return nil
}

// RoleFungible requires the context actor to hold the minter role for
// mints and the burner role for burns. Transfers pass through.
type RoleFungible struct {
	core.NopFungibleHooks
	Roles *Roles
}

var _ core.FungibleHooks = (*RoleFungible)(nil)

func (g *RoleFungible) BeforeMint(ctx context.Context, _ string, _ core.Quantity) (any, error) {
	return nil, g.Roles.require(ctx, RoleMinter)
}

func (g *RoleFungible) BeforeBurn(ctx context.Context, _ string, _ core.Quantity) (any, error) {
	return nil, g.Roles.require(ctx, RoleBurner)
}

// RoleToken requires the context actor to hold the minter role for
// mints and the burner role for burns. Transfers pass through.
type RoleToken struct {
	core.NopTokenHooks
	Roles *Roles
}

var _ core.TokenHooks = (*RoleToken)(nil)

func (g *RoleToken) BeforeMint(ctx context.Context, _ string, _ string) (any, error) {
	return nil, g.Roles.require(ctx, RoleMinter)
}

func (g *RoleToken) BeforeBurn(ctx context.Context, _ string, _ string) (any, error) {
	return nil, g.Roles.require(ctx, RoleBurner)
}
