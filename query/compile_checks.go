package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/status"
)

var (
	_ gocmd.Querier[GetEntityMessage, core.StatableEntity]         = (*GetEntityQuery)(nil)
	_ gocmd.Querier[ListEntitiesMessage, []core.StatableEntity]    = (*ListEntitiesQuery)(nil)
	_ gocmd.Querier[DeliveryStatsMessage, status.DeliveryStats]    = (*DeliveryStatsQuery)(nil)
	_ gocmd.Querier[ListWebhookEventsMessage, []core.WebhookEvent] = (*ListWebhookEventsQuery)(nil)
)
