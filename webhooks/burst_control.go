package webhooks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-messaging-core/core"
)

type BurstMode string

const (
	BurstModeNone     BurstMode = "none"
	BurstModeCoalesce BurstMode = "coalesce"
)

type BurstDecision struct {
	Allow    bool
	Metadata map[string]any
}

// BurstController throttles redelivery storms. Coalesced events are still
// audited; only specialized processing is skipped.
type BurstController interface {
	Allow(ctx context.Context, event core.WebhookEvent) (BurstDecision, error)
}

type BurstKeyExtractor func(event core.WebhookEvent) (string, bool)

// DefaultBurstKeyExtractor coalesces account-level fields per account+field;
// message-level fields are never coalesced since each carries its own
// idempotency key.
func DefaultBurstKeyExtractor(event core.WebhookEvent) (string, bool) {
	switch event.Field {
	case FieldQualityRating, FieldAccountUpdate:
		return event.SourceAccountID + ":" + event.Field, true
	default:
		return "", false
	}
}

type BurstOptions struct {
	Mode       BurstMode
	Window     time.Duration
	MaxEntries int
	ExtractKey BurstKeyExtractor
	Now        func() time.Time
}

type DefaultBurstController struct {
	mode       BurstMode
	window     time.Duration
	maxEntries int
	extractKey BurstKeyExtractor
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

func NewBurstController(opts BurstOptions) *DefaultBurstController {
	mode := opts.Mode
	if mode != BurstModeCoalesce {
		mode = BurstModeNone
	}
	window := opts.Window
	if window <= 0 {
		window = 2 * time.Second
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	extractKey := opts.ExtractKey
	if extractKey == nil {
		extractKey = DefaultBurstKeyExtractor
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &DefaultBurstController{
		mode:       mode,
		window:     window,
		maxEntries: maxEntries,
		extractKey: extractKey,
		now:        now,
		entries:    map[string]time.Time{},
	}
}

func (c *DefaultBurstController) Allow(_ context.Context, event core.WebhookEvent) (BurstDecision, error) {
	if c == nil {
		return BurstDecision{}, fmt.Errorf("webhooks: burst controller is nil")
	}
	if c.mode == BurstModeNone {
		return BurstDecision{Allow: true}, nil
	}
	key, ok := c.extractKey(event)
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return BurstDecision{Allow: true}, nil
	}

	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpired(now)

	if last, exists := c.entries[key]; exists && now.Sub(last) < c.window {
		return BurstDecision{
			Allow: false,
			Metadata: map[string]any{
				"burst_key":    key,
				"last_allowed": last,
			},
		}, nil
	}
	if len(c.entries) >= c.maxEntries {
		// Table full: fail open rather than dropping events.
		return BurstDecision{Allow: true}, nil
	}
	c.entries[key] = now
	return BurstDecision{Allow: true}, nil
}

func (c *DefaultBurstController) evictExpired(now time.Time) {
	for key, last := range c.entries {
		if now.Sub(last) >= c.window {
			delete(c.entries, key)
		}
	}
}

var _ BurstController = (*DefaultBurstController)(nil)
