package core

import (
	"context"
	"errors"
	"fmt"
)

// NopFungibleHooks satisfies FungibleHooks with no behavior. Policy
// implementations embed it to override only the points they care about.
type NopFungibleHooks struct{}

func (NopFungibleHooks) BeforeTransfer(context.Context, BalanceTransfer) (any, error) {
	return nil, nil
}

func (NopFungibleHooks) AfterTransfer(context.Context, BalanceTransfer, any) error { return nil }

func (NopFungibleHooks) BeforeMint(context.Context, string, Quantity) (any, error) {
	return nil, nil
}

func (NopFungibleHooks) AfterMint(context.Context, string, Quantity, any) error { return nil }

func (NopFungibleHooks) BeforeBurn(context.Context, string, Quantity) (any, error) {
	return nil, nil
}

func (NopFungibleHooks) AfterBurn(context.Context, string, Quantity, any) error { return nil }

// NopTokenHooks satisfies TokenHooks with no behavior.
type NopTokenHooks struct{}

func (NopTokenHooks) BeforeTransfer(context.Context, TokenTransfer) (any, error) {
	return nil, nil
}

func (NopTokenHooks) AfterTransfer(context.Context, TokenTransfer, any) error { return nil }

func (NopTokenHooks) BeforeMint(context.Context, string, string) (any, error) { return nil, nil }

func (NopTokenHooks) AfterMint(context.Context, string, string, any) error { return nil }

func (NopTokenHooks) BeforeBurn(context.Context, string, string) (any, error) { return nil, nil }

func (NopTokenHooks) AfterBurn(context.Context, string, string, any) error { return nil }

// FungibleHookChain composes hooks. Before hooks run in registration
// order and fail fast; the first error aborts the operation before any
// ledger mutation. After hooks all run and their failures are
// aggregated, since the mutation has already committed.
type FungibleHookChain struct {
	hooks []FungibleHooks
}

func NewFungibleHookChain(hooks ...FungibleHooks) *FungibleHookChain {
	chain := &FungibleHookChain{hooks: make([]FungibleHooks, 0, len(hooks))}
	for _, hook := range hooks {
		chain.Append(hook)
	}
	return chain
}

func (c *FungibleHookChain) Append(hook FungibleHooks) {
	if c == nil || hook == nil {
		return
	}
	c.hooks = append(c.hooks, hook)
}

func (c *FungibleHookChain) BeforeTransfer(ctx context.Context, transfer BalanceTransfer) (any, error) {
	return c.before(func(hook FungibleHooks) (any, error) {
		return hook.BeforeTransfer(ctx, transfer)
	})
}

func (c *FungibleHookChain) AfterTransfer(ctx context.Context, transfer BalanceTransfer, state any) error {
	return c.after(state, func(hook FungibleHooks, hookState any) error {
		return hook.AfterTransfer(ctx, transfer, hookState)
	})
}

func (c *FungibleHookChain) BeforeMint(ctx context.Context, account string, amount Quantity) (any, error) {
	return c.before(func(hook FungibleHooks) (any, error) {
		return hook.BeforeMint(ctx, account, amount)
	})
}

func (c *FungibleHookChain) AfterMint(ctx context.Context, account string, amount Quantity, state any) error {
	return c.after(state, func(hook FungibleHooks, hookState any) error {
		return hook.AfterMint(ctx, account, amount, hookState)
	})
}

func (c *FungibleHookChain) BeforeBurn(ctx context.Context, account string, amount Quantity) (any, error) {
	return c.before(func(hook FungibleHooks) (any, error) {
		return hook.BeforeBurn(ctx, account, amount)
	})
}

func (c *FungibleHookChain) AfterBurn(ctx context.Context, account string, amount Quantity, state any) error {
	return c.after(state, func(hook FungibleHooks, hookState any) error {
		return hook.AfterBurn(ctx, account, amount, hookState)
	})
}

func (c *FungibleHookChain) before(call func(FungibleHooks) (any, error)) (any, error) {
	if c == nil || len(c.hooks) == 0 {
		return nil, nil
	}
	states := make([]any, 0, len(c.hooks))
	for i, hook := range c.hooks {
		if hook == nil {
			states = append(states, nil)
			continue
		}
		state, err := call(hook)
		if err != nil {
			return nil, fmt.Errorf("core: before hook %d failed: %w", i, err)
		}
		states = append(states, state)
	}
	return states, nil
}

func (c *FungibleHookChain) after(state any, call func(FungibleHooks, any) error) error {
	if c == nil || len(c.hooks) == 0 {
		return nil
	}
	states, _ := state.([]any)
	var hookErr error
	for i, hook := range c.hooks {
		if hook == nil {
			continue
		}
		var hookState any
		if i < len(states) {
			hookState = states[i]
		}
		if err := call(hook, hookState); err != nil {
			hookErr = errors.Join(hookErr, fmt.Errorf("after hook %d failed: %w", i, err))
		}
	}
	return hookErr
}

// TokenHookChain composes TokenHooks with the same fail-fast before /
// aggregate after semantics as FungibleHookChain.
type TokenHookChain struct {
	hooks []TokenHooks
}

func NewTokenHookChain(hooks ...TokenHooks) *TokenHookChain {
	chain := &TokenHookChain{hooks: make([]TokenHooks, 0, len(hooks))}
	for _, hook := range hooks {
		chain.Append(hook)
	}
	return chain
}

func (c *TokenHookChain) Append(hook TokenHooks) {
	if c == nil || hook == nil {
		return
	}
	c.hooks = append(c.hooks, hook)
}

func (c *TokenHookChain) BeforeTransfer(ctx context.Context, transfer TokenTransfer) (any, error) {
	return c.before(func(hook TokenHooks) (any, error) {
		return hook.BeforeTransfer(ctx, transfer)
	})
}

func (c *TokenHookChain) AfterTransfer(ctx context.Context, transfer TokenTransfer, state any) error {
	return c.after(state, func(hook TokenHooks, hookState any) error {
		return hook.AfterTransfer(ctx, transfer, hookState)
	})
}

func (c *TokenHookChain) BeforeMint(ctx context.Context, tokenID string, owner string) (any, error) {
	return c.before(func(hook TokenHooks) (any, error) {
		return hook.BeforeMint(ctx, tokenID, owner)
	})
}

func (c *TokenHookChain) AfterMint(ctx context.Context, tokenID string, owner string, state any) error {
	return c.after(state, func(hook TokenHooks, hookState any) error {
		return hook.AfterMint(ctx, tokenID, owner, hookState)
	})
}

func (c *TokenHookChain) BeforeBurn(ctx context.Context, tokenID string, owner string) (any, error) {
	return c.before(func(hook TokenHooks) (any, error) {
		return hook.BeforeBurn(ctx, tokenID, owner)
	})
}

func (c *TokenHookChain) AfterBurn(ctx context.Context, tokenID string, owner string, state any) error {
	return c.after(state, func(hook TokenHooks, hookState any) error {
		return hook.AfterBurn(ctx, tokenID, owner, hookState)
	})
}

func (c *TokenHookChain) before(call func(TokenHooks) (any, error)) (any, error) {
	if c == nil || len(c.hooks) == 0 {
		return nil, nil
	}
	states := make([]any, 0, len(c.hooks))
	for i, hook := range c.hooks {
		if hook == nil {
			states = append(states, nil)
			continue
		}
		state, err := call(hook)
		if err != nil {
			return nil, fmt.Errorf("core: before hook %d failed: %w", i, err)
		}
		states = append(states, state)
	}
	return states, nil
}

func (c *TokenHookChain) after(state any, call func(TokenHooks, any) error) error {
	if c == nil || len(c.hooks) == 0 {
		return nil
	}
	states, _ := state.([]any)
	var hookErr error
	for i, hook := range c.hooks {
		if hook == nil {
			continue
		}
		var hookState any
		if i < len(states) {
			hookState = states[i]
		}
		if err := call(hook, hookState); err != nil {
			hookErr = errors.Join(hookErr, fmt.Errorf("after hook %d failed: %w", i, err))
		}
	}
	return hookErr
}

var (
	_ FungibleHooks = NopFungibleHooks{}
	_ TokenHooks    = NopTokenHooks{}
	_ FungibleHooks = (*FungibleHookChain)(nil)
	_ TokenHooks    = (*TokenHookChain)(nil)
)
