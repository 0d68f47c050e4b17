package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-messaging-core/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const entityCacheKeyPrefix = "go-messaging::entity::v1"

// CachedEntityStore fronts an entity store with a read-through cache. Writes
// go to the base store first and then invalidate the cached copy, so readers
// never observe a state older than the store.
type CachedEntityStore struct {
	base  core.EntityStore
	cache repositorycache.CacheService
}

func NewCachedEntityStore(base core.EntityStore, cacheService repositorycache.CacheService) (*CachedEntityStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base entity store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: entity cache service is required")
	}
	return &CachedEntityStore{base: base, cache: cacheService}, nil
}

// EntityCacheKey returns the deterministic cache key contract for entity
// reads: go-messaging::entity::v1::<kind>::<entity_id> with each segment
// URL-path escaped.
func EntityCacheKey(kind core.EntityKind, id string) (string, error) {
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return "", fmt.Errorf("sqlstore: entity id is required")
	}
	if _, err := core.InitialState(kind); err != nil {
		return "", err
	}
	segments := []string{url.PathEscape(string(kind)), url.PathEscape(trimmedID)}
	return strings.Join(append([]string{entityCacheKeyPrefix}, segments...), "::"), nil
}

func (s *CachedEntityStore) Create(ctx context.Context, entity core.StatableEntity) (core.StatableEntity, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.StatableEntity{}, fmt.Errorf("sqlstore: cached entity store is not configured")
	}
	created, err := s.base.Create(ctx, entity)
	if err != nil {
		return core.StatableEntity{}, err
	}
	if err := s.invalidate(ctx, created.Kind, created.ID); err != nil {
		return core.StatableEntity{}, err
	}
	return created, nil
}

func (s *CachedEntityStore) Get(ctx context.Context, kind core.EntityKind, id string) (core.StatableEntity, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.StatableEntity{}, fmt.Errorf("sqlstore: cached entity store is not configured")
	}
	cacheKey, err := EntityCacheKey(kind, id)
	if err != nil {
		return core.StatableEntity{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.StatableEntity, error) {
		return s.base.Get(ctx, kind, id)
	})
}

func (s *CachedEntityStore) Update(ctx context.Context, entity core.StatableEntity) (core.StatableEntity, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.StatableEntity{}, fmt.Errorf("sqlstore: cached entity store is not configured")
	}
	updated, err := s.base.Update(ctx, entity)
	if err != nil {
		return core.StatableEntity{}, err
	}
	if err := s.invalidate(ctx, updated.Kind, updated.ID); err != nil {
		return core.StatableEntity{}, err
	}
	return updated, nil
}

// List always reads through to the base store; list results are not cached
// because any entity write would invalidate them wholesale.
func (s *CachedEntityStore) List(ctx context.Context, kind core.EntityKind, filter core.EntityFilter) ([]core.StatableEntity, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached entity store is not configured")
	}
	return s.base.List(ctx, kind, filter)
}

func (s *CachedEntityStore) invalidate(ctx context.Context, kind core.EntityKind, id string) error {
	cacheKey, err := EntityCacheKey(kind, id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}
