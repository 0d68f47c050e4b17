package actions

import (
	"context"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/status"
)

// deliveryStatsProvider is satisfied by the concrete status engine; the core
// interface intentionally stays lifecycle-only.
type deliveryStatsProvider interface {
	DeliveryStats(ctx context.Context, filter core.EntityFilter) (status.DeliveryStats, error)
}

func getEntityStatus(ctx context.Context, params map[string]any, ic *core.InvocationContext) (map[string]any, error) {
	if ic == nil || ic.Status == nil {
		return nil, actionBadInput("status engine is not configured")
	}
	kindValue, err := requireString(params, "entityKind")
	if err != nil {
		return nil, err
	}
	entityID, err := requireString(params, "entityId")
	if err != nil {
		return nil, err
	}

	kind := core.EntityKind(kindValue)
	if _, err := core.InitialState(kind); err != nil {
		return nil, actionBadInput("unknown entity kind %q", kindValue)
	}

	entity, err := ic.Status.Get(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}

	history := make([]map[string]any, 0, len(entity.StatusHistory))
	for _, entry := range entity.StatusHistory {
		history = append(history, map[string]any{
			"state":     entry.State,
			"timestamp": entry.Timestamp,
			"metadata":  entry.Metadata,
		})
	}

	return map[string]any{
		"entityKind":    string(entity.Kind),
		"entityId":      entity.ID,
		"currentState":  entity.CurrentState,
		"terminal":      core.IsTerminalState(entity.Kind, entity.CurrentState),
		"statusHistory": history,
	}, nil
}

func getDeliveryStats(ctx context.Context, params map[string]any, ic *core.InvocationContext) (map[string]any, error) {
	if ic == nil || ic.Status == nil {
		return nil, actionBadInput("status engine is not configured")
	}
	provider, ok := ic.Status.(deliveryStatsProvider)
	if !ok {
		return nil, actionBadInput("status engine does not expose delivery stats")
	}

	filter := core.EntityFilter{}
	if limit, ok := optionalInt(params, "limit"); ok && limit > 0 {
		filter.Limit = limit
	}
	filter.States = stringSlice(params, "states")

	stats, err := provider.DeliveryStats(ctx, filter)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"total":          stats.Total,
		"delivered":      stats.Delivered,
		"read":           stats.Read,
		"failed":         stats.Failed,
		"delivered_rate": stats.DeliveredRate,
		"read_rate":      stats.ReadRate,
		"failure_rate":   stats.FailureRate,
		"quality":        stats.Quality,
	}, nil
}

func stringSlice(params map[string]any, key string) []string {
	if params == nil {
		return nil
	}
	switch value := params[key].(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if text, ok := item.(string); ok && text != "" {
				out = append(out, text)
			}
		}
		return out
	default:
		return nil
	}
}
