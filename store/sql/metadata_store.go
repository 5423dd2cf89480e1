package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-assets/metadata"
)

const contractMetadataSingletonID = "contract"

// MetadataStore persists contract and token metadata in SQL. It
// implements metadata.Store.
type MetadataStore struct {
	db *bun.DB
}

func NewMetadataStore(db *bun.DB) (*MetadataStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &MetadataStore{db: db}, nil
}

func (s *MetadataStore) Contract(ctx context.Context) (metadata.ContractMetadata, error) {
	if s == nil || s.db == nil {
		return metadata.ContractMetadata{}, fmt.Errorf("sqlstore: metadata store is not configured")
	}
	record := &contractMetadataRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", contractMetadataSingletonID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return metadata.ContractMetadata{}, nil
	}
	if err != nil {
		return metadata.ContractMetadata{}, fmt.Errorf("sqlstore: read contract metadata: %w", err)
	}
	return metadata.ContractMetadata{
		Name:     record.Name,
		Symbol:   record.Symbol,
		Decimals: record.Decimals,
		Icon:     record.Icon,
		BaseURI:  record.BaseURI,
	}, nil
}

func (s *MetadataStore) SetContract(ctx context.Context, meta metadata.ContractMetadata) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: metadata store is not configured")
	}
	if err := meta.Validate(); err != nil {
		return err
	}
	record := &contractMetadataRecord{
		ID:        contractMetadataSingletonID,
		Name:      meta.Name,
		Symbol:    meta.Symbol,
		Decimals:  meta.Decimals,
		Icon:      meta.Icon,
		BaseURI:   meta.BaseURI,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("symbol = EXCLUDED.symbol").
		Set("decimals = EXCLUDED.decimals").
		Set("icon = EXCLUDED.icon").
		Set("base_uri = EXCLUDED.base_uri").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: write contract metadata: %w", err)
	}
	return nil
}

func (s *MetadataStore) Token(ctx context.Context, tokenID string) (metadata.TokenMetadata, error) {
	if s == nil || s.db == nil {
		return metadata.TokenMetadata{}, fmt.Errorf("sqlstore: metadata store is not configured")
	}
	record := &tokenMetadataRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.token_id = ?", strings.TrimSpace(tokenID)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return metadata.TokenMetadata{}, fmt.Errorf("%w: %q", metadata.ErrTokenMetadataNotFound, tokenID)
	}
	if err != nil {
		return metadata.TokenMetadata{}, fmt.Errorf("sqlstore: read token metadata: %w", err)
	}
	return tokenMetadataFromRecord(*record), nil
}

func (s *MetadataStore) SetToken(ctx context.Context, meta metadata.TokenMetadata) (metadata.TokenMetadata, error) {
	if s == nil || s.db == nil {
		return metadata.TokenMetadata{}, fmt.Errorf("sqlstore: metadata store is not configured")
	}
	if err := meta.Validate(); err != nil {
		return metadata.TokenMetadata{}, err
	}
	now := time.Now().UTC()
	if meta.IssuedAt.IsZero() {
		meta.IssuedAt = now
	}
	meta.UpdatedAt = now

	record := &tokenMetadataRecord{
		TokenID:     meta.TokenID,
		Title:       meta.Title,
		Description: meta.Description,
		MediaURI:    meta.MediaURI,
		Copies:      meta.Copies,
		Extra:       copyStringMap(meta.Extra),
		IssuedAt:    meta.IssuedAt,
		UpdatedAt:   meta.UpdatedAt,
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (token_id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("media_uri = EXCLUDED.media_uri").
		Set("copies = EXCLUDED.copies").
		Set("extra = EXCLUDED.extra").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return metadata.TokenMetadata{}, fmt.Errorf("sqlstore: write token metadata: %w", err)
	}
	return meta, nil
}

func (s *MetadataStore) DeleteToken(ctx context.Context, tokenID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: metadata store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*tokenMetadataRecord)(nil)).
		Where("token_id = ?", strings.TrimSpace(tokenID)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: delete token metadata: %w", err)
	}
	return nil
}

func tokenMetadataFromRecord(record tokenMetadataRecord) metadata.TokenMetadata {
	return metadata.TokenMetadata{
		TokenID:     record.TokenID,
		Title:       record.Title,
		Description: record.Description,
		MediaURI:    record.MediaURI,
		Copies:      record.Copies,
		Extra:       copyStringMap(record.Extra),
		IssuedAt:    record.IssuedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
