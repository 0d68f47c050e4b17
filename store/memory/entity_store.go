package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-messaging-core/core"
)

type entityKey struct {
	kind core.EntityKind
	id   string
}

type InMemoryEntityStore struct {
	mu       sync.RWMutex
	entities map[entityKey]core.StatableEntity
}

func NewInMemoryEntityStore() *InMemoryEntityStore {
	return &InMemoryEntityStore{entities: map[entityKey]core.StatableEntity{}}
}

func (s *InMemoryEntityStore) Create(_ context.Context, entity core.StatableEntity) (core.StatableEntity, error) {
	if s == nil {
		return core.StatableEntity{}, fmt.Errorf("memstore: entity store is nil")
	}
	if err := entity.Validate(); err != nil {
		return core.StatableEntity{}, err
	}
	key := entityKey{kind: entity.Kind, id: entity.ID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entities[key]; exists {
		return core.StatableEntity{}, fmt.Errorf("memstore: %s %s already exists", entity.Kind, entity.ID)
	}
	s.entities[key] = cloneEntity(entity)
	return cloneEntity(entity), nil
}

func (s *InMemoryEntityStore) Get(_ context.Context, kind core.EntityKind, id string) (core.StatableEntity, error) {
	if s == nil {
		return core.StatableEntity{}, fmt.Errorf("memstore: entity store is nil")
	}
	s.mu.RLock()
	entity, ok := s.entities[entityKey{kind: kind, id: strings.TrimSpace(id)}]
	s.mu.RUnlock()
	if !ok {
		return core.StatableEntity{}, fmt.Errorf("%w: %s %s", core.ErrEntityNotFound, kind, id)
	}
	return cloneEntity(entity), nil
}

// Update overwrites the stored entity. Concurrent writers race
// last-write-wins, matching the persistent store semantics.
func (s *InMemoryEntityStore) Update(_ context.Context, entity core.StatableEntity) (core.StatableEntity, error) {
	if s == nil {
		return core.StatableEntity{}, fmt.Errorf("memstore: entity store is nil")
	}
	if err := entity.Validate(); err != nil {
		return core.StatableEntity{}, err
	}
	key := entityKey{kind: entity.Kind, id: entity.ID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entities[key]; !exists {
		return core.StatableEntity{}, fmt.Errorf("%w: %s %s", core.ErrEntityNotFound, entity.Kind, entity.ID)
	}
	s.entities[key] = cloneEntity(entity)
	return cloneEntity(entity), nil
}

func (s *InMemoryEntityStore) List(
	_ context.Context,
	kind core.EntityKind,
	filter core.EntityFilter,
) ([]core.StatableEntity, error) {
	if s == nil {
		return nil, fmt.Errorf("memstore: entity store is nil")
	}
	s.mu.RLock()
	matched := make([]core.StatableEntity, 0)
	for key, entity := range s.entities {
		if key.kind != kind {
			continue
		}
		if !matchesFilter(entity, filter) {
			continue
		}
		matched = append(matched, cloneEntity(entity))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func matchesFilter(entity core.StatableEntity, filter core.EntityFilter) bool {
	if len(filter.States) > 0 {
		found := false
		for _, state := range filter.States {
			if entity.CurrentState == state {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.From != nil && entity.UpdatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && entity.UpdatedAt.After(*filter.To) {
		return false
	}
	return true
}

func cloneEntity(entity core.StatableEntity) core.StatableEntity {
	copied := entity
	copied.StatusHistory = make([]core.StatusEntry, len(entity.StatusHistory))
	for index, entry := range entity.StatusHistory {
		copiedEntry := entry
		copiedEntry.Metadata = cloneMap(entry.Metadata)
		copied.StatusHistory[index] = copiedEntry
	}
	copied.Metadata = cloneMap(entity.Metadata)
	return copied
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

var _ core.EntityStore = (*InMemoryEntityStore)(nil)
