package policy

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-assets/core"
)

var ErrPaused = errors.New("policy: contract is paused")

// Switch is a shared pause flag. The zero value is running.
type Switch struct {
	mu     sync.RWMutex
	paused bool
}

func (s *Switch) Pause() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *Switch) Resume() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

func (s *Switch) Paused() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

func (s *Switch) check() error {
	if s.Paused() {
		return ErrPaused
	}
	return nil
}

// PauseFungible vetoes every fungible operation while the switch is
// paused.
type PauseFungible struct {
	core.NopFungibleHooks
	Switch *Switch
}

var _ core.FungibleHooks = (*PauseFungible)(nil)

func (p *PauseFungible) BeforeTransfer(_ context.Context, _ core.BalanceTransfer) (any, error) {
	return nil, p.Switch.check()
}

func (p *PauseFungible) BeforeMint(_ context.Context, _ string, _ core.Quantity) (any, error) {
	return nil, p.Switch.check()
}

func (p *PauseFungible) BeforeBurn(_ context.Context, _ string, _ core.Quantity) (any, error) {
	return nil, p.Switch.check()
}

// PauseToken vetoes every token operation while the switch is paused.
type PauseToken struct {
	core.NopTokenHooks
	Switch *Switch
}

var _ core.TokenHooks = (*PauseToken)(nil)

func (p *PauseToken) BeforeTransfer(_ context.Context, _ core.TokenTransfer) (any, error) {
	return nil, p.Switch.check()
}

func (p *PauseToken) BeforeMint(_ context.Context, _ string, _ string) (any, error) {
	return nil, p.Switch.check()
}

func (p *PauseToken) BeforeBurn(_ context.Context, _ string, _ string) (any, error) {
	return nil, p.Switch.check()
}
