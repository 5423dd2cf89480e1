package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-assets/metadata"
)

const tokenMetadataCacheKeyPrefix = "go-assets::token_metadata::v1"

// CachedMetadataStore layers a read-through cache over a metadata
// store. Token metadata is read on every token view, so lookups go
// through the cache; writes invalidate.
type CachedMetadataStore struct {
	base  metadata.Store
	cache repositorycache.CacheService
}

func NewCachedMetadataStore(base metadata.Store, cacheService repositorycache.CacheService) (*CachedMetadataStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base metadata store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: metadata cache service is required")
	}
	return &CachedMetadataStore{base: base, cache: cacheService}, nil
}

// TokenMetadataCacheKey returns the deterministic cache key for a
// token metadata read: go-assets::token_metadata::v1::<token_id> with
// the token id URL-path escaped.
func TokenMetadataCacheKey(tokenID string) (string, error) {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return "", fmt.Errorf("sqlstore: token id is required")
	}
	return tokenMetadataCacheKeyPrefix + "::" + url.PathEscape(tokenID), nil
}

func (s *CachedMetadataStore) Contract(ctx context.Context) (metadata.ContractMetadata, error) {
	if s == nil || s.base == nil {
		return metadata.ContractMetadata{}, fmt.Errorf("sqlstore: cached metadata store is not configured")
	}
	return s.base.Contract(ctx)
}

func (s *CachedMetadataStore) SetContract(ctx context.Context, meta metadata.ContractMetadata) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached metadata store is not configured")
	}
	return s.base.SetContract(ctx, meta)
}

func (s *CachedMetadataStore) Token(ctx context.Context, tokenID string) (metadata.TokenMetadata, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return metadata.TokenMetadata{}, fmt.Errorf("sqlstore: cached metadata store is not configured")
	}
	cacheKey, err := TokenMetadataCacheKey(tokenID)
	if err != nil {
		return metadata.TokenMetadata{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (metadata.TokenMetadata, error) {
		return s.base.Token(ctx, tokenID)
	})
}

func (s *CachedMetadataStore) SetToken(ctx context.Context, meta metadata.TokenMetadata) (metadata.TokenMetadata, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return metadata.TokenMetadata{}, fmt.Errorf("sqlstore: cached metadata store is not configured")
	}
	stored, err := s.base.SetToken(ctx, meta)
	if err != nil {
		return metadata.TokenMetadata{}, err
	}
	cacheKey, err := TokenMetadataCacheKey(stored.TokenID)
	if err != nil {
		return metadata.TokenMetadata{}, err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return metadata.TokenMetadata{}, err
	}
	return stored, nil
}

func (s *CachedMetadataStore) DeleteToken(ctx context.Context, tokenID string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached metadata store is not configured")
	}
	if err := s.base.DeleteToken(ctx, tokenID); err != nil {
		return err
	}
	cacheKey, err := TokenMetadataCacheKey(tokenID)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ metadata.Store = (*CachedMetadataStore)(nil)
