package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-messaging-core/core"
)

// InMemoryKeyValueStore offers the same single-item-atomic semantics as the
// persistent store: PutItem is a full overwrite, UpdateItem merges attribute
// updates under one lock.
type InMemoryKeyValueStore struct {
	mu    sync.Mutex
	items map[string]core.KVItem
	Now   func() time.Time
}

func NewInMemoryKeyValueStore() *InMemoryKeyValueStore {
	return &InMemoryKeyValueStore{
		items: map[string]core.KVItem{},
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryKeyValueStore) GetItem(_ context.Context, key string) (core.KVItem, bool, error) {
	if s == nil {
		return core.KVItem{}, false, fmt.Errorf("memstore: kv store is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return core.KVItem{}, false, fmt.Errorf("memstore: item key is required")
	}
	s.mu.Lock()
	item, ok := s.items[key]
	s.mu.Unlock()
	if !ok {
		return core.KVItem{}, false, nil
	}
	return cloneItem(item), true, nil
}

func (s *InMemoryKeyValueStore) PutItem(_ context.Context, item core.KVItem) error {
	if s == nil {
		return fmt.Errorf("memstore: kv store is nil")
	}
	item.Key = strings.TrimSpace(item.Key)
	if item.Key == "" {
		return fmt.Errorf("memstore: item key is required")
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = s.now()
	}
	s.mu.Lock()
	s.items[item.Key] = cloneItem(item)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryKeyValueStore) UpdateItem(
	_ context.Context,
	key string,
	updates map[string]any,
) (core.KVItem, error) {
	if s == nil {
		return core.KVItem{}, fmt.Errorf("memstore: kv store is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return core.KVItem{}, fmt.Errorf("memstore: item key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok {
		item = core.KVItem{Key: key, Attributes: map[string]any{}}
	}
	if item.Attributes == nil {
		item.Attributes = map[string]any{}
	}
	for field, value := range updates {
		item.Attributes[field] = value
	}
	item.UpdatedAt = s.now()
	s.items[key] = cloneItem(item)
	return cloneItem(item), nil
}

func (s *InMemoryKeyValueStore) Scan(
	_ context.Context,
	filter func(core.KVItem) bool,
	limit int,
) ([]core.KVItem, error) {
	if s == nil {
		return nil, fmt.Errorf("memstore: kv store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]core.KVItem, 0)
	for _, item := range s.items {
		if filter != nil && !filter(cloneItem(item)) {
			continue
		}
		matched = append(matched, cloneItem(item))
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched, nil
}

func (s *InMemoryKeyValueStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func cloneItem(item core.KVItem) core.KVItem {
	copied := item
	copied.Attributes = cloneMap(item.Attributes)
	return copied
}

var _ core.KeyValueStore = (*InMemoryKeyValueStore)(nil)
