package status

import (
	"context"

	"github.com/goliatone/go-messaging-core/core"
)

const (
	QualityHealthy  = "healthy"
	QualityAtRisk   = "at_risk"
	QualityDegraded = "degraded"
)

// DeliveryStats are derived aggregates over message delivery records. They
// are computed on demand from the store, never persisted.
type DeliveryStats struct {
	Total         int     `json:"total"`
	Delivered     int     `json:"delivered"`
	Read          int     `json:"read"`
	Failed        int     `json:"failed"`
	DeliveredRate float64 `json:"delivered_rate"`
	ReadRate      float64 `json:"read_rate"`
	FailureRate   float64 `json:"failure_rate"`
	Quality       string  `json:"quality"`
}

// DeliveryStats scans delivery records and derives delivery, read, and
// failure rates. A record in read state counts as delivered too.
func (e *Engine) DeliveryStats(ctx context.Context, filter core.EntityFilter) (DeliveryStats, error) {
	if e == nil || e.Store == nil {
		return DeliveryStats{}, statusBadInput("status: engine is not configured", nil)
	}
	if filter.Limit <= 0 {
		filter.Limit = e.Quality.ScanLimit
	}

	records, err := e.Store.List(ctx, core.EntityKindDeliveryRecord, filter)
	if err != nil {
		return DeliveryStats{}, statusUpstream(err, "status: delivery record scan failed", nil)
	}

	stats := DeliveryStats{Total: len(records)}
	for _, record := range records {
		switch record.CurrentState {
		case core.DeliveryStateDelivered:
			stats.Delivered++
		case core.DeliveryStateRead:
			stats.Read++
		case core.DeliveryStateFailed:
			stats.Failed++
		}
	}

	if stats.Total > 0 {
		total := float64(stats.Total)
		stats.DeliveredRate = float64(stats.Delivered+stats.Read) / total
		stats.ReadRate = float64(stats.Read) / total
		stats.FailureRate = float64(stats.Failed) / total
	}
	stats.Quality = e.estimateQuality(stats.FailureRate, stats.Total)
	return stats, nil
}

func (e *Engine) estimateQuality(failureRate float64, total int) string {
	if total == 0 {
		return QualityHealthy
	}
	switch {
	case failureRate >= e.Quality.DegradedFailureRate:
		return QualityDegraded
	case failureRate > e.Quality.HealthyFailureRate:
		return QualityAtRisk
	default:
		return QualityHealthy
	}
}
