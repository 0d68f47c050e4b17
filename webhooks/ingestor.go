package webhooks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/status"
)

const (
	OutcomeProcessed    = "processed"
	OutcomeDuplicate    = "duplicate"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"
	OutcomeUnrecognized = "unrecognized"
	OutcomeCoalesced    = "coalesced"
)

// FieldHandler applies one typed event, usually by driving a status engine
// transition or a key-value update.
type FieldHandler func(ctx context.Context, event core.WebhookEvent) error

// EventOutcome is the per-event result of one delivery. Outcomes never abort
// sibling events.
type EventOutcome struct {
	Field          string
	SourceAccount  string
	IdempotencyKey string
	Status         string
	Err            error
}

type IngestResult struct {
	Outcomes     []EventOutcome
	Processed    int
	Duplicates   int
	Rejected     int
	Failed       int
	Unrecognized int
	Coalesced    int
}

type Ingestor struct {
	Ledger   core.WebhookEventLedger
	Logger   core.Logger
	Observer core.OperationObserver
	Burst    BurstController
	Verifier *SignatureVerifier
	Now      func() time.Time

	mu       sync.RWMutex
	handlers map[string]FieldHandler
}

type IngestorOption func(*Ingestor)

func WithLogger(logger core.Logger) IngestorOption {
	return func(i *Ingestor) {
		if logger != nil {
			i.Logger = glog.Ensure(logger)
		}
	}
}

func WithObserver(observer core.OperationObserver) IngestorOption {
	return func(i *Ingestor) {
		i.Observer = observer
	}
}

func WithBurstController(controller BurstController) IngestorOption {
	return func(i *Ingestor) {
		i.Burst = controller
	}
}

func WithClock(now func() time.Time) IngestorOption {
	return func(i *Ingestor) {
		if now != nil {
			i.Now = now
		}
	}
}

// NewIngestor wires the default field handlers against the given engine and
// key-value store. Pass a nil kv store to drop the account-level handlers.
func NewIngestor(
	ledger core.WebhookEventLedger,
	engine *status.Engine,
	kv core.KeyValueStore,
	options ...IngestorOption,
) *Ingestor {
	ingestor := &Ingestor{
		Ledger:   ledger,
		Logger:   glog.Nop(),
		Now:      func() time.Time { return time.Now().UTC() },
		handlers: map[string]FieldHandler{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(ingestor)
		}
	}
	registerDefaultHandlers(ingestor, engine, kv)
	return ingestor
}

// RegisterFieldHandler adds a handler for a webhook field. The routing table
// is closed: duplicates are rejected, never silently replaced.
func (i *Ingestor) RegisterFieldHandler(field string, handler FieldHandler) error {
	if i == nil {
		return fmt.Errorf("webhooks: ingestor is nil")
	}
	field = strings.TrimSpace(field)
	if field == "" {
		return fmt.Errorf("webhooks: field name is required")
	}
	if handler == nil {
		return fmt.Errorf("webhooks: field handler is required: %s", field)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, exists := i.handlers[field]; exists {
		return fmt.Errorf("webhooks: field handler already registered: %s", field)
	}
	i.handlers[field] = handler
	return nil
}

// IngestPayload parses a raw delivery body and ingests it.
func (i *Ingestor) IngestPayload(ctx context.Context, payload []byte) (IngestResult, error) {
	delivery, err := ParseDelivery(payload)
	if err != nil {
		return IngestResult{}, err
	}
	return i.Ingest(ctx, delivery)
}

// Ingest processes every change in delivery order. One failing event never
// aborts its siblings; the returned result carries one outcome per change.
func (i *Ingestor) Ingest(ctx context.Context, delivery Delivery) (IngestResult, error) {
	if i == nil || i.Ledger == nil {
		return IngestResult{}, fmt.Errorf("webhooks: ingestor requires an event ledger")
	}

	startedAt := time.Now()
	result := IngestResult{}
	for _, entry := range delivery.Entry {
		for _, change := range entry.Changes {
			outcome := i.processChange(ctx, entry.ID, change)
			result.Outcomes = append(result.Outcomes, outcome)
			switch outcome.Status {
			case OutcomeProcessed:
				result.Processed++
			case OutcomeDuplicate:
				result.Duplicates++
			case OutcomeRejected:
				result.Rejected++
			case OutcomeFailed:
				result.Failed++
			case OutcomeUnrecognized:
				result.Unrecognized++
			case OutcomeCoalesced:
				result.Coalesced++
			}
		}
	}

	i.observe(ctx, startedAt, result)
	return result, nil
}

func (i *Ingestor) processChange(ctx context.Context, accountID string, change Change) EventOutcome {
	field := strings.TrimSpace(change.Field)
	accountID = strings.TrimSpace(accountID)
	outcome := EventOutcome{Field: field, SourceAccount: accountID}

	key, keyErr := IdempotencyKey(accountID, field, change.Value)
	if keyErr != nil {
		// No natural key: still audit the event under a synthetic key.
		key = fmt.Sprintf("%s:%s:unkeyed:%s", accountID, field, uuid.NewString())
	}
	outcome.IdempotencyKey = key

	event := core.WebhookEvent{
		SourceAccountID: accountID,
		Field:           field,
		Value:           change.Value,
		ReceivedAt:      i.now(),
		IdempotencyKey:  key,
	}

	seen := false
	if keyErr == nil {
		var err error
		seen, err = i.Ledger.Seen(ctx, key)
		if err != nil {
			outcome.Status = OutcomeFailed
			outcome.Err = fmt.Errorf("webhooks: idempotency lookup failed: %w", err)
			i.log("error", "webhook idempotency lookup failed", event, outcome.Err)
			return outcome
		}
	}

	// Audit is unconditional: redeliveries and unroutable events are
	// recorded even when specialized processing is skipped.
	if err := i.Ledger.Record(ctx, event); err != nil {
		outcome.Status = OutcomeFailed
		outcome.Err = fmt.Errorf("webhooks: audit record failed: %w", err)
		i.log("error", "webhook audit record failed", event, outcome.Err)
		return outcome
	}

	if keyErr != nil {
		outcome.Status = OutcomeUnrecognized
		outcome.Err = keyErr
		i.log("warn", "webhook change has no natural key", event, keyErr)
		return outcome
	}
	if seen {
		outcome.Status = OutcomeDuplicate
		i.log("info", "webhook event deduplicated", event, nil)
		return outcome
	}

	if i.Burst != nil {
		decision, err := i.Burst.Allow(ctx, event)
		if err != nil {
			outcome.Status = OutcomeFailed
			outcome.Err = err
			i.log("error", "webhook burst control failed", event, err)
			return outcome
		}
		if !decision.Allow {
			outcome.Status = OutcomeCoalesced
			i.log("info", "webhook event coalesced", event, nil)
			return outcome
		}
	}

	handler, ok := i.handler(field)
	if !ok {
		outcome.Status = OutcomeUnrecognized
		outcome.Err = fmt.Errorf("webhooks: no handler for field %q", field)
		i.log("warn", "webhook field has no handler", event, outcome.Err)
		return outcome
	}

	if err := handler(ctx, event); err != nil {
		if status.IsRejected(err) || status.IsNotFound(err) {
			// Out-of-order, duplicate-state, or not-yet-recorded target;
			// audit kept, batch continues.
			outcome.Status = OutcomeRejected
			outcome.Err = err
			i.log("warn", "webhook transition rejected", event, err)
			return outcome
		}
		outcome.Status = OutcomeFailed
		outcome.Err = err
		i.log("error", "webhook event processing failed", event, err)
		return outcome
	}

	outcome.Status = OutcomeProcessed
	return outcome
}

func (i *Ingestor) handler(field string) (FieldHandler, bool) {
	i.mu.RLock()
	handler, ok := i.handlers[field]
	i.mu.RUnlock()
	return handler, ok
}

func (i *Ingestor) now() time.Time {
	if i != nil && i.Now != nil {
		return i.Now().UTC()
	}
	return time.Now().UTC()
}

func (i *Ingestor) observe(ctx context.Context, startedAt time.Time, result IngestResult) {
	fields := map[string]any{
		"events":       len(result.Outcomes),
		"processed":    result.Processed,
		"duplicates":   result.Duplicates,
		"rejected":     result.Rejected,
		"failed":       result.Failed,
		"unrecognized": result.Unrecognized,
		"coalesced":    result.Coalesced,
	}
	if i.Observer != nil {
		i.Observer.ObserveOperation(ctx, startedAt, "webhook_ingest", nil, fields)
		return
	}
	if i.Logger != nil {
		i.Logger.Info("webhook delivery ingested",
			"events", len(result.Outcomes),
			"processed", result.Processed,
			"duplicates", result.Duplicates,
			"rejected", result.Rejected,
			"failed", result.Failed,
		)
	}
}

func (i *Ingestor) log(level string, msg string, event core.WebhookEvent, err error) {
	if i == nil || i.Logger == nil {
		return
	}
	args := []any{
		"source_account_id", event.SourceAccountID,
		"field", event.Field,
		"idempotency_key", event.IdempotencyKey,
	}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	switch level {
	case "warn":
		i.Logger.Warn(msg, args...)
	case "error":
		i.Logger.Error(msg, args...)
	default:
		i.Logger.Info(msg, args...)
	}
}
