package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-assets/core"
	"github.com/goliatone/go-assets/settlement"
)

// SettlementStore persists pending settlements in SQL. It implements
// settlement.Store.
type SettlementStore struct {
	db   *bun.DB
	repo repository.Repository[*settlementRecord]
}

func NewSettlementStore(db *bun.DB) (*SettlementStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*settlementRecord](db, settlementHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid settlement repository wiring: %w", err)
		}
	}
	return &SettlementStore{db: db, repo: repo}, nil
}

func (s *SettlementStore) Create(ctx context.Context, pending settlement.Pending) (settlement.Pending, error) {
	if s == nil || s.repo == nil {
		return settlement.Pending{}, fmt.Errorf("sqlstore: settlement store is not configured")
	}
	if err := pending.Validate(); err != nil {
		return settlement.Pending{}, err
	}
	now := time.Now().UTC()
	if pending.Status == "" {
		pending.Status = settlement.StatusPending
	}
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = now
	}
	pending.UpdatedAt = now

	record := settlementToRecord(pending)
	if _, err := s.repo.Create(ctx, record); err != nil {
		return settlement.Pending{}, fmt.Errorf("sqlstore: create settlement: %w", err)
	}
	return pending, nil
}

func (s *SettlementStore) Get(ctx context.Context, id string) (settlement.Pending, error) {
	if s == nil || s.db == nil {
		return settlement.Pending{}, fmt.Errorf("sqlstore: settlement store is not configured")
	}
	record := &settlementRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return settlement.Pending{}, fmt.Errorf("%w: %q", settlement.ErrNotFound, id)
	}
	if err != nil {
		return settlement.Pending{}, fmt.Errorf("sqlstore: read settlement: %w", err)
	}
	return settlementFromRecord(*record)
}

func (s *SettlementStore) Transition(ctx context.Context, id string, status settlement.Status, cause error) (settlement.Pending, error) {
	if s == nil || s.db == nil {
		return settlement.Pending{}, fmt.Errorf("sqlstore: settlement store is not configured")
	}
	pending, err := s.Get(ctx, id)
	if err != nil {
		return settlement.Pending{}, err
	}
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	if err := pending.TransitionTo(status, reason, time.Now().UTC()); err != nil {
		return settlement.Pending{}, err
	}
	_, err = s.db.NewUpdate().
		Model((*settlementRecord)(nil)).
		Set("status = ?", string(pending.Status)).
		Set("last_error = ?", pending.LastError).
		Set("next_attempt_at = NULL").
		Set("updated_at = ?", pending.UpdatedAt).
		Where("id = ?", pending.ID).
		Exec(ctx)
	if err != nil {
		return settlement.Pending{}, fmt.Errorf("sqlstore: transition settlement: %w", err)
	}
	pending.NextAttemptAt = time.Time{}
	return pending, nil
}

func (s *SettlementStore) Retry(ctx context.Context, id string, cause error, nextAttemptAt time.Time) (settlement.Pending, error) {
	if s == nil || s.db == nil {
		return settlement.Pending{}, fmt.Errorf("sqlstore: settlement store is not configured")
	}
	pending, err := s.Get(ctx, id)
	if err != nil {
		return settlement.Pending{}, err
	}
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	now := time.Now().UTC()
	if nextAttemptAt.IsZero() {
		if err := pending.TransitionTo(settlement.StatusAbandoned, reason, now); err != nil {
			return settlement.Pending{}, err
		}
		pending.NextAttemptAt = time.Time{}
	} else {
		if err := pending.TransitionTo(settlement.StatusPending, reason, now); err != nil {
			return settlement.Pending{}, err
		}
		pending.NextAttemptAt = nextAttemptAt.UTC()
	}

	query := s.db.NewUpdate().
		Model((*settlementRecord)(nil)).
		Set("status = ?", string(pending.Status)).
		Set("last_error = ?", pending.LastError).
		Set("updated_at = ?", pending.UpdatedAt).
		Where("id = ?", pending.ID)
	if pending.NextAttemptAt.IsZero() {
		query = query.Set("next_attempt_at = NULL")
	} else {
		query = query.Set("next_attempt_at = ?", pending.NextAttemptAt)
	}
	if _, err := query.Exec(ctx); err != nil {
		return settlement.Pending{}, fmt.Errorf("sqlstore: retry settlement: %w", err)
	}
	return pending, nil
}

func (s *SettlementStore) ClaimDue(ctx context.Context, limit int) ([]settlement.Pending, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: settlement store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	now := time.Now().UTC()
	var records []settlementRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		query := `
WITH claimed AS (
	SELECT id
	FROM asset_settlements
	WHERE status = ?
	  AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
	ORDER BY created_at ASC
	LIMIT ?
)
UPDATE asset_settlements
SET status = ?, attempts = attempts + 1, next_attempt_at = NULL, updated_at = ?
WHERE id IN (SELECT id FROM claimed)
  AND status = ?
RETURNING
	id,
	asset,
	sender,
	receiver,
	owner,
	token_id,
	amount,
	memo,
	msg,
	budget,
	receiver_budget,
	status,
	attempts,
	next_attempt_at,
	last_error,
	created_at,
	updated_at
`
		return tx.NewRaw(
			query,
			string(settlement.StatusPending),
			now,
			limit,
			string(settlement.StatusNotified),
			now,
			string(settlement.StatusPending),
		).Scan(ctx, &records)
	})
	if err != nil {
		return nil, err
	}

	claimed := make([]settlement.Pending, 0, len(records))
	for _, record := range records {
		pending, err := settlementFromRecord(record)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, pending)
	}
	return claimed, nil
}

func settlementToRecord(pending settlement.Pending) *settlementRecord {
	record := &settlementRecord{
		ID:             pending.ID,
		Asset:          string(pending.Asset),
		Budget:         strconv.FormatUint(pending.Budget, 10),
		ReceiverBudget: strconv.FormatUint(pending.ReceiverBudget, 10),
		Status:         string(pending.Status),
		Attempts:       pending.Attempts,
		LastError:      pending.LastError,
		CreatedAt:      pending.CreatedAt,
		UpdatedAt:      pending.UpdatedAt,
	}
	if !pending.NextAttemptAt.IsZero() {
		at := pending.NextAttemptAt
		record.NextAttemptAt = &at
	}
	switch {
	case pending.Balance != nil:
		record.Sender = pending.Balance.Sender
		record.Receiver = pending.Balance.Receiver
		record.Amount = pending.Balance.Amount.String()
		record.Memo = pending.Balance.Memo
		record.Msg = pending.Balance.Msg
	case pending.Token != nil:
		record.Sender = pending.Token.Sender
		record.Receiver = pending.Token.Receiver
		record.Owner = pending.Token.Owner
		record.TokenID = pending.Token.TokenID
		record.Memo = pending.Token.Memo
		record.Msg = pending.Token.Msg
	}
	return record
}

func settlementFromRecord(record settlementRecord) (settlement.Pending, error) {
	budget, err := parseStoredBudget(record.Budget)
	if err != nil {
		return settlement.Pending{}, err
	}
	receiverBudget, err := parseStoredBudget(record.ReceiverBudget)
	if err != nil {
		return settlement.Pending{}, err
	}
	pending := settlement.Pending{
		ID:             record.ID,
		Asset:          core.AssetKind(record.Asset),
		Budget:         budget,
		ReceiverBudget: receiverBudget,
		Status:         settlement.Status(record.Status),
		Attempts:       record.Attempts,
		LastError:      record.LastError,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
	if record.NextAttemptAt != nil {
		pending.NextAttemptAt = record.NextAttemptAt.UTC()
	}
	switch pending.Asset {
	case core.AssetFungible:
		amount, err := parseStoredQuantity(record.Amount)
		if err != nil {
			return settlement.Pending{}, err
		}
		pending.Balance = &core.BalanceTransfer{
			Sender:   record.Sender,
			Receiver: record.Receiver,
			Amount:   amount,
			Memo:     record.Memo,
			Msg:      record.Msg,
		}
	case core.AssetNonFungible:
		pending.Token = &core.TokenTransfer{
			TokenID:  record.TokenID,
			Owner:    record.Owner,
			Sender:   record.Sender,
			Receiver: record.Receiver,
			Memo:     record.Memo,
			Msg:      record.Msg,
		}
	default:
		return settlement.Pending{}, fmt.Errorf("sqlstore: corrupt settlement asset kind %q", record.Asset)
	}
	return pending, nil
}

func parseStoredBudget(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: corrupt stored budget %q: %w", raw, err)
	}
	return value, nil
}
