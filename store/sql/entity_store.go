package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/uptrace/bun"
)

// EntityStore persists statable entities with their full append-only status
// history as a jsonb column. One row per (kind, entity_id).
type EntityStore struct {
	db *bun.DB
}

func NewEntityStore(db *bun.DB) (*EntityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &EntityStore{db: db}, nil
}

func (s *EntityStore) Create(ctx context.Context, entity core.StatableEntity) (core.StatableEntity, error) {
	if s == nil || s.db == nil {
		return core.StatableEntity{}, fmt.Errorf("sqlstore: entity store is not configured")
	}
	if err := entity.Validate(); err != nil {
		return core.StatableEntity{}, err
	}

	record := newEntityRecord(entity)
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return core.StatableEntity{}, fmt.Errorf("sqlstore: %s %s already exists", entity.Kind, entity.ID)
		}
		return core.StatableEntity{}, err
	}
	return record.toDomain(), nil
}

func (s *EntityStore) Get(ctx context.Context, kind core.EntityKind, id string) (core.StatableEntity, error) {
	if s == nil || s.db == nil {
		return core.StatableEntity{}, fmt.Errorf("sqlstore: entity store is not configured")
	}
	record, err := s.findEntity(ctx, s.db, kind, strings.TrimSpace(id))
	if err != nil {
		return core.StatableEntity{}, err
	}
	if record == nil {
		return core.StatableEntity{}, fmt.Errorf("%w: %s %s", core.ErrEntityNotFound, kind, id)
	}
	return record.toDomain(), nil
}

func (s *EntityStore) Update(ctx context.Context, entity core.StatableEntity) (core.StatableEntity, error) {
	if s == nil || s.db == nil {
		return core.StatableEntity{}, fmt.Errorf("sqlstore: entity store is not configured")
	}
	if err := entity.Validate(); err != nil {
		return core.StatableEntity{}, err
	}

	var out core.StatableEntity
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := s.findEntity(ctx, tx, entity.Kind, entity.ID)
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("%w: %s %s", core.ErrEntityNotFound, entity.Kind, entity.ID)
		}

		record.CurrentState = entity.CurrentState
		record.StatusHistory = cloneHistory(entity.StatusHistory)
		record.Metadata = copyAnyMap(entity.Metadata)
		record.UpdatedAt = entity.UpdatedAt
		if _, err := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); err != nil {
			return err
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.StatableEntity{}, err
	}
	return out, nil
}

func (s *EntityStore) List(ctx context.Context, kind core.EntityKind, filter core.EntityFilter) ([]core.StatableEntity, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: entity store is not configured")
	}

	records := []*entityRecord{}
	query := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.kind = ?", string(kind))
	if len(filter.States) > 0 {
		query = query.Where("?TableAlias.current_state IN (?)", bun.In(filter.States))
	}
	if filter.From != nil {
		query = query.Where("?TableAlias.updated_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("?TableAlias.updated_at <= ?", filter.To.UTC())
	}
	query = query.OrderExpr("?TableAlias.created_at ASC, ?TableAlias.entity_id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	out := make([]core.StatableEntity, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *EntityStore) findEntity(ctx context.Context, db bun.IDB, kind core.EntityKind, id string) (*entityRecord, error) {
	record := &entityRecord{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.kind = ?", string(kind)).
		Where("?TableAlias.entity_id = ?", id).
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

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
