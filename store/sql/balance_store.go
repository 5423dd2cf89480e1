package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-assets/core"
)

const supplySingletonID = "total"

// BalanceStore persists fungible balances and the total supply in SQL.
// It implements core.BalanceLedger; all protocol validation stays in
// the executor.
type BalanceStore struct {
	db *bun.DB
}

func NewBalanceStore(db *bun.DB) (*BalanceStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &BalanceStore{db: db}, nil
}

func (s *BalanceStore) QuantityOf(ctx context.Context, account string) (core.Quantity, error) {
	if s == nil || s.db == nil {
		return core.ZeroQuantity, fmt.Errorf("sqlstore: balance store is not configured")
	}
	account = strings.TrimSpace(account)
	record := &balanceRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.account = ?", account).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ZeroQuantity, nil
	}
	if err != nil {
		return core.ZeroQuantity, fmt.Errorf("sqlstore: read balance: %w", err)
	}
	return parseStoredQuantity(record.Amount)
}

func (s *BalanceStore) Total(ctx context.Context) (core.Quantity, error) {
	if s == nil || s.db == nil {
		return core.ZeroQuantity, fmt.Errorf("sqlstore: balance store is not configured")
	}
	record := &supplyRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", supplySingletonID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ZeroQuantity, nil
	}
	if err != nil {
		return core.ZeroQuantity, fmt.Errorf("sqlstore: read total supply: %w", err)
	}
	return parseStoredQuantity(record.Amount)
}

func (s *BalanceStore) SetQuantity(ctx context.Context, account string, quantity core.Quantity) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: balance store is not configured")
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return fmt.Errorf("sqlstore: account is required")
	}
	if quantity.IsZero() {
		_, err := s.db.NewDelete().
			Model((*balanceRecord)(nil)).
			Where("account = ?", account).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("sqlstore: clear balance: %w", err)
		}
		return nil
	}
	record := &balanceRecord{
		Account:   account,
		Amount:    quantity.String(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (account) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: write balance: %w", err)
	}
	return nil
}

func (s *BalanceStore) SetTotal(ctx context.Context, total core.Quantity) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: balance store is not configured")
	}
	record := &supplyRecord{
		ID:        supplySingletonID,
		Amount:    total.String(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: write total supply: %w", err)
	}
	return nil
}

func parseStoredQuantity(value string) (core.Quantity, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return core.ZeroQuantity, nil
	}
	quantity, err := core.ParseQuantity(value)
	if err != nil {
		return core.ZeroQuantity, fmt.Errorf("sqlstore: corrupt stored quantity %q: %w", value, err)
	}
	return quantity, nil
}
