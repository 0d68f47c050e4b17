package webhooks

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/status"
	memstore "github.com/goliatone/go-messaging-core/store/memory"
)

type ingestFixture struct {
	ingestor *Ingestor
	engine   *status.Engine
	entities *memstore.InMemoryEntityStore
	ledger   *memstore.InMemoryEventLedger
	kv       *memstore.InMemoryKeyValueStore
}

func newIngestFixture(t *testing.T, options ...IngestorOption) ingestFixture {
	t.Helper()
	entities := memstore.NewInMemoryEntityStore()
	ledger := memstore.NewInMemoryEventLedger()
	kv := memstore.NewInMemoryKeyValueStore()
	engine := status.NewEngine(entities)
	return ingestFixture{
		ingestor: NewIngestor(ledger, engine, kv, options...),
		engine:   engine,
		entities: entities,
		ledger:   ledger,
		kv:       kv,
	}
}

func messageStatusDelivery(accountID string, messageID string, statuses ...string) Delivery {
	changes := make([]Change, 0, len(statuses))
	for _, state := range statuses {
		changes = append(changes, Change{
			Field: FieldMessageStatus,
			Value: map[string]any{"messageId": messageID, "status": state},
		})
	}
	return Delivery{
		Object: "whatsapp_business_account",
		Entry:  []AccountEntry{{ID: accountID, Changes: changes}},
	}
}

func TestIngest_MessageStatusLifecycle(t *testing.T) {
	fixture := newIngestFixture(t)
	ctx := context.Background()

	result, err := fixture.ingestor.Ingest(ctx, messageStatusDelivery("acct_1", "msg_1",
		core.DeliveryStateSent, core.DeliveryStateDelivered,
	))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Processed != 2 {
		t.Fatalf("expected 2 processed events, got %+v", result)
	}

	record, err := fixture.engine.Get(ctx, core.EntityKindDeliveryRecord, "msg_1")
	if err != nil {
		t.Fatalf("get delivery record: %v", err)
	}
	if record.CurrentState != core.DeliveryStateDelivered {
		t.Fatalf("expected delivered, got %q", record.CurrentState)
	}
	if len(record.StatusHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(record.StatusHistory))
	}
}

func TestIngest_DuplicateKeySkipsTransition(t *testing.T) {
	fixture := newIngestFixture(t)
	ctx := context.Background()

	if _, err := fixture.ingestor.Ingest(ctx, messageStatusDelivery("acct_1", "msg_1", core.DeliveryStateSent)); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	// Same message and status redelivered: the idempotency key is
	// account:field:messageId:status, so the second delivery collides.
	result, err := fixture.ingestor.Ingest(ctx, messageStatusDelivery("acct_1", "msg_1", core.DeliveryStateSent))
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if result.Duplicates != 1 || result.Processed != 0 {
		t.Fatalf("expected duplicate outcome, got %+v", result)
	}

	record, err := fixture.engine.Get(ctx, core.EntityKindDeliveryRecord, "msg_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(record.StatusHistory) != 1 {
		t.Fatalf("duplicate key must not produce a second history entry, got %d", len(record.StatusHistory))
	}

	events, err := fixture.ledger.List(ctx, "acct_1", 0)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("both deliveries must be audited, got %d", len(events))
	}
}

func TestIngest_OutOfOrderRejectionDoesNotFailBatch(t *testing.T) {
	fixture := newIngestFixture(t)
	ctx := context.Background()

	delivery := Delivery{
		Entry: []AccountEntry{{
			ID: "acct_1",
			Changes: []Change{
				{Field: FieldMessageStatus, Value: map[string]any{"messageId": "msg_1", "status": core.DeliveryStateSent}},
				// read arrives before delivered is recorded
				{Field: FieldMessageStatus, Value: map[string]any{"messageId": "msg_1", "status": core.DeliveryStateRead}},
				{Field: FieldMessageStatus, Value: map[string]any{"messageId": "msg_2", "status": core.DeliveryStateSent}},
			},
		}},
	}

	result, err := fixture.ingestor.Ingest(ctx, delivery)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Processed != 2 || result.Rejected != 1 {
		t.Fatalf("expected 2 processed and 1 rejected, got %+v", result)
	}

	record, err := fixture.engine.Get(ctx, core.EntityKindDeliveryRecord, "msg_1")
	if err != nil {
		t.Fatalf("get msg_1: %v", err)
	}
	if record.CurrentState != core.DeliveryStateSent {
		t.Fatalf("rejected target must leave state unchanged, got %q", record.CurrentState)
	}
	if _, err := fixture.engine.Get(ctx, core.EntityKindDeliveryRecord, "msg_2"); err != nil {
		t.Fatalf("sibling record must still process: %v", err)
	}
}

func TestIngest_UnknownFieldAuditedButUnrecognized(t *testing.T) {
	fixture := newIngestFixture(t)
	ctx := context.Background()

	result, err := fixture.ingestor.Ingest(ctx, Delivery{
		Entry: []AccountEntry{{
			ID: "acct_1",
			Changes: []Change{
				{Field: "mystery-field", Value: map[string]any{"id": "evt_1"}},
			},
		}},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Unrecognized != 1 {
		t.Fatalf("expected unrecognized outcome, got %+v", result)
	}

	events, err := fixture.ledger.List(ctx, "acct_1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("unroutable event must still be audited, got %d", len(events))
	}
}

func TestIngest_TemplateAndQualityUpdatesLandInKV(t *testing.T) {
	fixture := newIngestFixture(t)
	ctx := context.Background()

	result, err := fixture.ingestor.Ingest(ctx, Delivery{
		Entry: []AccountEntry{{
			ID: "acct_1",
			Changes: []Change{
				{Field: FieldTemplateStatus, Value: map[string]any{"templateId": "tpl_welcome", "status": "paused"}},
				{Field: FieldQualityRating, Value: map[string]any{"phoneNumberId": "pn_1", "rating": "yellow"}},
			},
		}},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Processed != 2 {
		t.Fatalf("expected 2 processed, got %+v", result)
	}

	template, ok, err := fixture.kv.GetItem(ctx, "template:acct_1:tpl_welcome")
	if err != nil || !ok {
		t.Fatalf("template item: ok=%v err=%v", ok, err)
	}
	if template.Attributes["status"] != "paused" {
		t.Fatalf("expected paused template, got %#v", template.Attributes)
	}

	quality, ok, err := fixture.kv.GetItem(ctx, "quality:acct_1:pn_1")
	if err != nil || !ok {
		t.Fatalf("quality item: ok=%v err=%v", ok, err)
	}
	if quality.Attributes["rating"] != "yellow" {
		t.Fatalf("expected yellow rating, got %#v", quality.Attributes)
	}
}

func TestIngest_MissingNaturalKeyStillAudited(t *testing.T) {
	fixture := newIngestFixture(t)
	ctx := context.Background()

	result, err := fixture.ingestor.Ingest(ctx, Delivery{
		Entry: []AccountEntry{{
			ID: "acct_1",
			Changes: []Change{
				{Field: FieldMessageStatus, Value: map[string]any{"status": core.DeliveryStateSent}},
			},
		}},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Unrecognized != 1 {
		t.Fatalf("expected unrecognized outcome for missing natural key, got %+v", result)
	}

	events, err := fixture.ledger.List(ctx, "acct_1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected audit record under synthetic key, got %d", len(events))
	}
}

func TestIngest_BurstCoalescesAccountLevelEvents(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	controller := NewBurstController(BurstOptions{
		Mode:   BurstModeCoalesce,
		Window: 10 * time.Second,
		Now:    func() time.Time { return base },
	})
	fixture := newIngestFixture(t, WithBurstController(controller))
	ctx := context.Background()

	delivery := Delivery{
		Entry: []AccountEntry{{
			ID: "acct_1",
			Changes: []Change{
				{Field: FieldQualityRating, Value: map[string]any{"phoneNumberId": "pn_1", "rating": "green"}},
				{Field: FieldQualityRating, Value: map[string]any{"phoneNumberId": "pn_2", "rating": "red"}},
			},
		}},
	}

	result, err := fixture.ingestor.Ingest(ctx, delivery)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Processed != 1 || result.Coalesced != 1 {
		t.Fatalf("expected second account-level event coalesced, got %+v", result)
	}
}

func TestRegisterFieldHandler_DuplicateRejected(t *testing.T) {
	fixture := newIngestFixture(t)

	err := fixture.ingestor.RegisterFieldHandler(FieldMessageStatus, func(context.Context, core.WebhookEvent) error {
		return nil
	})
	if err == nil {
		t.Fatalf("expected duplicate field handler registration to fail")
	}

	if err := fixture.ingestor.RegisterFieldHandler("custom-field", func(context.Context, core.WebhookEvent) error {
		return nil
	}); err != nil {
		t.Fatalf("register custom field: %v", err)
	}
}

func TestParseDelivery(t *testing.T) {
	if _, err := ParseDelivery(nil); err == nil {
		t.Fatalf("expected empty payload to fail")
	}
	if _, err := ParseDelivery([]byte(`not json`)); err == nil {
		t.Fatalf("expected malformed payload to fail")
	}
	if _, err := ParseDelivery([]byte(`{"object":"x"}`)); err == nil {
		t.Fatalf("expected delivery without entries to fail")
	}

	delivery, err := ParseDelivery([]byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "acct_1", "changes": [{"field": "message-status", "value": {"messageId": "m1", "status": "sent"}}]}]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(delivery.Entry) != 1 || delivery.Entry[0].Changes[0].Field != FieldMessageStatus {
		t.Fatalf("unexpected delivery: %+v", delivery)
	}
}

func TestIdempotencyKey(t *testing.T) {
	key, err := IdempotencyKey("acct_1", FieldMessageStatus, map[string]any{"messageId": "msg_1", "status": "sent"})
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if key != "acct_1:message-status:msg_1:sent" {
		t.Fatalf("unexpected key %q", key)
	}

	// Lifecycle statuses for the same message must not collide, while a
	// replay of the same status must.
	delivered, err := IdempotencyKey("acct_1", FieldMessageStatus, map[string]any{"messageId": "msg_1", "status": "delivered"})
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if delivered == key {
		t.Fatalf("sent and delivered derived the same key %q", key)
	}
	replay, err := IdempotencyKey("acct_1", FieldMessageStatus, map[string]any{"messageId": "msg_1", "status": "delivered"})
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if replay != delivered {
		t.Fatalf("replayed status derived %q, want %q", replay, delivered)
	}

	bare, err := IdempotencyKey("acct_1", FieldMessageStatus, map[string]any{"messageId": "msg_1"})
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if bare != "acct_1:message-status:msg_1" {
		t.Fatalf("unexpected key without status %q", bare)
	}

	templateKey, err := IdempotencyKey("acct_1", FieldTemplateStatus, map[string]any{"templateId": "tpl_1", "status": "approved"})
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if templateKey != "acct_1:template-status:tpl_1" {
		t.Fatalf("template keys should not carry the status, got %q", templateKey)
	}

	if _, err := IdempotencyKey("", FieldMessageStatus, nil); err == nil {
		t.Fatalf("expected missing account to fail")
	}
	if _, err := IdempotencyKey("acct_1", FieldMessageStatus, map[string]any{}); err == nil {
		t.Fatalf("expected missing natural key to fail")
	}
}
