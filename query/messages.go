package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-messaging-core/core"
)

const (
	TypeGetEntity         = "messaging.query.entity.get"
	TypeListEntities      = "messaging.query.entity.list"
	TypeDeliveryStats     = "messaging.query.delivery.stats"
	TypeListWebhookEvents = "messaging.query.webhook_events.list"
)

type GetEntityMessage struct {
	Kind core.EntityKind
	ID   string
}

func (GetEntityMessage) Type() string { return TypeGetEntity }

func (m GetEntityMessage) Validate() error {
	if _, err := core.InitialState(m.Kind); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("query: entity id is required")
	}
	return nil
}

type ListEntitiesMessage struct {
	Kind   core.EntityKind
	Filter core.EntityFilter
}

func (ListEntitiesMessage) Type() string { return TypeListEntities }

func (m ListEntitiesMessage) Validate() error {
	if _, err := core.InitialState(m.Kind); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if m.Filter.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	return nil
}

type DeliveryStatsMessage struct {
	Filter core.EntityFilter
}

func (DeliveryStatsMessage) Type() string { return TypeDeliveryStats }

func (m DeliveryStatsMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	return nil
}

type ListWebhookEventsMessage struct {
	SourceAccountID string
	Limit           int
}

func (ListWebhookEventsMessage) Type() string { return TypeListWebhookEvents }

func (m ListWebhookEventsMessage) Validate() error {
	if strings.TrimSpace(m.SourceAccountID) == "" {
		return fmt.Errorf("query: source account id is required")
	}
	if m.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	return nil
}
