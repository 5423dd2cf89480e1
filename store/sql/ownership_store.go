package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// OwnershipStore persists token ownership in SQL. It implements
// core.OwnershipLedger.
type OwnershipStore struct {
	db *bun.DB
}

func NewOwnershipStore(db *bun.DB) (*OwnershipStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &OwnershipStore{db: db}, nil
}

func (s *OwnershipStore) OwnerOf(ctx context.Context, tokenID string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("sqlstore: ownership store is not configured")
	}
	record := &tokenOwnershipRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.token_id = ?", strings.TrimSpace(tokenID)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlstore: read owner: %w", err)
	}
	return record.Owner, true, nil
}

func (s *OwnershipStore) SetOwner(ctx context.Context, tokenID, owner string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: ownership store is not configured")
	}
	tokenID = strings.TrimSpace(tokenID)
	owner = strings.TrimSpace(owner)
	if tokenID == "" || owner == "" {
		return fmt.Errorf("sqlstore: token id and owner are required")
	}
	now := time.Now().UTC()
	record := &tokenOwnershipRecord{
		TokenID:   tokenID,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (token_id) DO UPDATE").
		Set("owner = EXCLUDED.owner").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: write owner: %w", err)
	}
	return nil
}

func (s *OwnershipStore) ClearOwner(ctx context.Context, tokenID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: ownership store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*tokenOwnershipRecord)(nil)).
		Where("token_id = ?", strings.TrimSpace(tokenID)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: clear owner: %w", err)
	}
	return nil
}
