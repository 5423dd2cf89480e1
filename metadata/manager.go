package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/nonfungible"
)

// TokenView pairs a token's current owner with its metadata.
type TokenView struct {
	TokenID  string
	Owner    string
	Metadata TokenMetadata
}

// Manager layers metadata management over the ownership executor so a
// mint and its metadata land together.
type Manager struct {
	Executor *nonfungible.Executor
	Store    Store
	Logger   core.Logger
}

func NewManager(executor *nonfungible.Executor, store Store) *Manager {
	return &Manager{
		Executor: executor,
		Store:    store,
		Logger:   core.NopLogger(),
	}
}

// MintWithMetadata mints tokenID for owner and stores its metadata.
// When the metadata write fails, the fresh mint is burned so no token
// exists without its descriptive record.
func (m *Manager) MintWithMetadata(ctx context.Context, owner string, meta TokenMetadata) (TokenView, error) {
	if m == nil || m.Executor == nil || m.Store == nil {
		return TokenView{}, fmt.Errorf("metadata: manager not initialized")
	}
	if err := meta.Validate(); err != nil {
		return TokenView{}, err
	}
	if err := m.Executor.Mint(ctx, meta.TokenID, owner); err != nil {
		return TokenView{}, err
	}
	stored, err := m.Store.SetToken(ctx, meta)
	if err != nil {
		if burnErr := m.Executor.Burn(ctx, meta.TokenID, owner); burnErr != nil {
			return TokenView{}, errors.Join(
				fmt.Errorf("metadata: store token metadata: %w", err),
				fmt.Errorf("metadata: undo mint: %w", burnErr),
			)
		}
		return TokenView{}, fmt.Errorf("metadata: store token metadata: %w", err)
	}
	return TokenView{TokenID: meta.TokenID, Owner: owner, Metadata: stored}, nil
}

// BurnWithMetadata burns tokenID and drops its metadata. A metadata
// delete failure is logged, not returned, because the burn already
// committed.
func (m *Manager) BurnWithMetadata(ctx context.Context, tokenID, owner string) error {
	if m == nil || m.Executor == nil || m.Store == nil {
		return fmt.Errorf("metadata: manager not initialized")
	}
	if err := m.Executor.Burn(ctx, tokenID, owner); err != nil {
		return err
	}
	if err := m.Store.DeleteToken(ctx, tokenID); err != nil {
		m.logger().Error("orphaned token metadata after burn",
			"token_id", tokenID,
			"error", err,
		)
	}
	return nil
}

// Token returns the owner and metadata for tokenID.
func (m *Manager) Token(ctx context.Context, tokenID string) (TokenView, error) {
	if m == nil || m.Executor == nil || m.Store == nil {
		return TokenView{}, fmt.Errorf("metadata: manager not initialized")
	}
	owner, exists, err := m.Executor.OwnerOf(ctx, tokenID)
	if err != nil {
		return TokenView{}, err
	}
	if !exists {
		return TokenView{}, &core.TokenNotFoundError{TokenID: tokenID}
	}
	meta, err := m.Store.Token(ctx, tokenID)
	if err != nil && !errors.Is(err, ErrTokenMetadataNotFound) {
		return TokenView{}, err
	}
	return TokenView{TokenID: tokenID, Owner: owner, Metadata: meta}, nil
}

func (m *Manager) logger() core.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return core.NopLogger()
}
