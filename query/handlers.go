package query

import (
	"context"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/status"
)

type EntityReader interface {
	Get(ctx context.Context, kind core.EntityKind, id string) (core.StatableEntity, error)
}

type EntityLister interface {
	List(ctx context.Context, kind core.EntityKind, filter core.EntityFilter) ([]core.StatableEntity, error)
}

type DeliveryStatsReader interface {
	DeliveryStats(ctx context.Context, filter core.EntityFilter) (status.DeliveryStats, error)
}

type WebhookEventReader interface {
	List(ctx context.Context, sourceAccountID string, limit int) ([]core.WebhookEvent, error)
}

type GetEntityQuery struct {
	reader EntityReader
}

func NewGetEntityQuery(reader EntityReader) *GetEntityQuery {
	return &GetEntityQuery{reader: reader}
}

func (q *GetEntityQuery) Query(ctx context.Context, msg GetEntityMessage) (core.StatableEntity, error) {
	if q == nil || q.reader == nil {
		return core.StatableEntity{}, queryDependencyError("query: entity reader is required")
	}
	return q.reader.Get(ctx, msg.Kind, msg.ID)
}

type ListEntitiesQuery struct {
	lister EntityLister
}

func NewListEntitiesQuery(lister EntityLister) *ListEntitiesQuery {
	return &ListEntitiesQuery{lister: lister}
}

func (q *ListEntitiesQuery) Query(ctx context.Context, msg ListEntitiesMessage) ([]core.StatableEntity, error) {
	if q == nil || q.lister == nil {
		return nil, queryDependencyError("query: entity lister is required")
	}
	return q.lister.List(ctx, msg.Kind, msg.Filter)
}

type DeliveryStatsQuery struct {
	reader DeliveryStatsReader
}

func NewDeliveryStatsQuery(reader DeliveryStatsReader) *DeliveryStatsQuery {
	return &DeliveryStatsQuery{reader: reader}
}

func (q *DeliveryStatsQuery) Query(ctx context.Context, msg DeliveryStatsMessage) (status.DeliveryStats, error) {
	if q == nil || q.reader == nil {
		return status.DeliveryStats{}, queryDependencyError("query: delivery stats reader is required")
	}
	return q.reader.DeliveryStats(ctx, msg.Filter)
}

type ListWebhookEventsQuery struct {
	reader WebhookEventReader
}

func NewListWebhookEventsQuery(reader WebhookEventReader) *ListWebhookEventsQuery {
	return &ListWebhookEventsQuery{reader: reader}
}

func (q *ListWebhookEventsQuery) Query(ctx context.Context, msg ListWebhookEventsMessage) ([]core.WebhookEvent, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: webhook event reader is required")
	}
	return q.reader.List(ctx, msg.SourceAccountID, msg.Limit)
}
