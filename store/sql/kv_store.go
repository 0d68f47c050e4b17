package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// KeyValueStore backs the single-item-atomic KV boundary with one row per
// key. UpdateItem merges attributes inside a transaction so concurrent
// writers cannot lose fields.
type KeyValueStore struct {
	db  *bun.DB
	Now func() time.Time
}

func NewKeyValueStore(db *bun.DB) (*KeyValueStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &KeyValueStore{db: db}, nil
}

func (s *KeyValueStore) GetItem(ctx context.Context, key string) (core.KVItem, bool, error) {
	if s == nil || s.db == nil {
		return core.KVItem{}, false, fmt.Errorf("sqlstore: kv store is not configured")
	}
	record, err := findKVItem(ctx, s.db, strings.TrimSpace(key))
	if err != nil {
		return core.KVItem{}, false, err
	}
	if record == nil {
		return core.KVItem{}, false, nil
	}
	return record.toDomain(), true, nil
}

func (s *KeyValueStore) PutItem(ctx context.Context, item core.KVItem) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: kv store is not configured")
	}
	key := strings.TrimSpace(item.Key)
	if key == "" {
		return fmt.Errorf("sqlstore: item key is required")
	}
	now := s.clock()
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findKVItem(ctx, tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			record = &kvItemRecord{
				ID:         uuid.NewString(),
				ItemKey:    key,
				Attributes: copyAnyMap(item.Attributes),
				CreatedAt:  now,
				UpdatedAt:  updatedAt,
			}
			_, err := tx.NewInsert().Model(record).Exec(ctx)
			return err
		}

		record.Attributes = copyAnyMap(item.Attributes)
		record.UpdatedAt = updatedAt
		_, err = tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx)
		return err
	})
}

func (s *KeyValueStore) UpdateItem(ctx context.Context, key string, updates map[string]any) (core.KVItem, error) {
	if s == nil || s.db == nil {
		return core.KVItem{}, fmt.Errorf("sqlstore: kv store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return core.KVItem{}, fmt.Errorf("sqlstore: item key is required")
	}
	now := s.clock()

	var out core.KVItem
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findKVItem(ctx, tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			record = &kvItemRecord{
				ID:         uuid.NewString(),
				ItemKey:    key,
				Attributes: copyAnyMap(updates),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
				return err
			}
			out = record.toDomain()
			return nil
		}

		if record.Attributes == nil {
			record.Attributes = map[string]any{}
		}
		for field, value := range updates {
			record.Attributes[field] = value
		}
		record.UpdatedAt = now
		if _, err := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); err != nil {
			return err
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.KVItem{}, err
	}
	return out, nil
}

func (s *KeyValueStore) Scan(ctx context.Context, filter func(core.KVItem) bool, limit int) ([]core.KVItem, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: kv store is not configured")
	}

	records := []*kvItemRecord{}
	if err := s.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.item_key ASC").
		Scan(ctx); err != nil {
		return nil, err
	}

	out := []core.KVItem{}
	for _, record := range records {
		item := record.toDomain()
		if filter != nil && !filter(item) {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *KeyValueStore) clock() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func findKVItem(ctx context.Context, db bun.IDB, key string) (*kvItemRecord, error) {
	record := &kvItemRecord{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.item_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
