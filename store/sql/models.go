package sqlstore

import (
	"time"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/uptrace/bun"
)

type entityRecord struct {
	bun.BaseModel `bun:"table:messaging_entities,alias:ment"`

	ID            string             `bun:"id,pk"`
	Kind          string             `bun:"kind,notnull"`
	EntityID      string             `bun:"entity_id,notnull"`
	CurrentState  string             `bun:"current_state,notnull"`
	StatusHistory []core.StatusEntry `bun:"status_history,type:jsonb,notnull"`
	Metadata      map[string]any     `bun:"metadata,type:jsonb,notnull"`
	CreatedAt     time.Time          `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time          `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type kvItemRecord struct {
	bun.BaseModel `bun:"table:messaging_kv_items,alias:mkv"`

	ID         string         `bun:"id,pk"`
	ItemKey    string         `bun:"item_key,notnull"`
	Attributes map[string]any `bun:"attributes,type:jsonb,notnull"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type webhookEventRecord struct {
	bun.BaseModel `bun:"table:messaging_webhook_events,alias:mwe"`

	ID              string         `bun:"id,pk"`
	SourceAccountID string         `bun:"source_account_id,notnull"`
	Field           string         `bun:"field,notnull"`
	Value           map[string]any `bun:"value,type:jsonb,notnull"`
	IdempotencyKey  string         `bun:"idempotency_key,notnull"`
	ReceivedAt      time.Time      `bun:"received_at,notnull"`
	CreatedAt       time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
