package sqlstore

import (
	"time"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/google/uuid"
)

func newEntityRecord(entity core.StatableEntity) *entityRecord {
	return &entityRecord{
		ID:            uuid.NewString(),
		Kind:          string(entity.Kind),
		EntityID:      entity.ID,
		CurrentState:  entity.CurrentState,
		StatusHistory: cloneHistory(entity.StatusHistory),
		Metadata:      copyAnyMap(entity.Metadata),
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
	}
}

func (r *entityRecord) toDomain() core.StatableEntity {
	if r == nil {
		return core.StatableEntity{}
	}
	return core.StatableEntity{
		Kind:          core.EntityKind(r.Kind),
		ID:            r.EntityID,
		CurrentState:  r.CurrentState,
		StatusHistory: cloneHistory(r.StatusHistory),
		Metadata:      copyAnyMap(r.Metadata),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r *kvItemRecord) toDomain() core.KVItem {
	if r == nil {
		return core.KVItem{}
	}
	return core.KVItem{
		Key:        r.ItemKey,
		Attributes: copyAnyMap(r.Attributes),
		UpdatedAt:  r.UpdatedAt,
	}
}

func newWebhookEventRecord(event core.WebhookEvent, now time.Time) *webhookEventRecord {
	receivedAt := event.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = now
	}
	return &webhookEventRecord{
		SourceAccountID: event.SourceAccountID,
		Field:           event.Field,
		Value:           copyAnyMap(event.Value),
		IdempotencyKey:  event.IdempotencyKey,
		ReceivedAt:      receivedAt.UTC(),
		CreatedAt:       now,
	}
}

func (r *webhookEventRecord) toDomain() core.WebhookEvent {
	if r == nil {
		return core.WebhookEvent{}
	}
	return core.WebhookEvent{
		SourceAccountID: r.SourceAccountID,
		Field:           r.Field,
		Value:           copyAnyMap(r.Value),
		ReceivedAt:      r.ReceivedAt,
		IdempotencyKey:  r.IdempotencyKey,
	}
}

func cloneHistory(entries []core.StatusEntry) []core.StatusEntry {
	if len(entries) == 0 {
		return []core.StatusEntry{}
	}
	out := make([]core.StatusEntry, len(entries))
	for i, entry := range entries {
		out[i] = core.StatusEntry{
			State:     entry.State,
			Timestamp: entry.Timestamp,
			Metadata:  copyAnyMap(entry.Metadata),
		}
	}
	return out
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
