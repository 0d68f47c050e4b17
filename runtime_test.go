package messaging_test

import (
	"context"
	"fmt"
	"testing"

	messaging "github.com/goliatone/go-messaging-core"
	"github.com/goliatone/go-messaging-core/core"
	memstore "github.com/goliatone/go-messaging-core/store/memory"
	"github.com/goliatone/go-messaging-core/transport"
)

func newTestRuntime(t *testing.T, opts ...messaging.RuntimeOption) (*messaging.Runtime, *transport.NoopGateway) {
	t.Helper()

	gateway := transport.NewNoopGateway()
	service, err := messaging.NewService(
		messaging.DefaultConfig(),
		messaging.WithEntityStore(memstore.NewInMemoryEntityStore()),
		messaging.WithKeyValueStore(memstore.NewInMemoryKeyValueStore()),
		messaging.WithWebhookEventLedger(memstore.NewInMemoryEventLedger()),
		messaging.WithMessagingGateway(gateway),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	runtime, err := messaging.NewRuntime(service, opts...)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	return runtime, gateway
}

func TestNewRuntime_RequiresService(t *testing.T) {
	if _, err := messaging.NewRuntime(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestNewRuntime_RequiresEntityStore(t *testing.T) {
	service, err := messaging.NewService(messaging.DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := messaging.NewRuntime(service); err == nil {
		t.Fatalf("expected error for missing entity store")
	}
}

func TestRuntime_DispatchSendMessageCreatesDeliveryRecord(t *testing.T) {
	runtime, gateway := newTestRuntime(t)
	ctx := context.Background()

	response := runtime.Dispatch(ctx, core.ActionRequest{
		Action: "send_message",
		Parameters: map[string]any{
			"to":   "+15550001111",
			"body": map[string]any{"text": "hello"},
		},
	})
	if response.Status != core.StatusOK {
		t.Fatalf("unexpected response %#v", response)
	}
	messageID, _ := response.Payload["messageId"].(string)
	if messageID == "" {
		t.Fatalf("expected messageId in payload, got %#v", response.Payload)
	}
	if len(gateway.Sent()) != 1 {
		t.Fatalf("expected one sent payload, got %d", len(gateway.Sent()))
	}

	record, err := runtime.Get(ctx, core.EntityKindDeliveryRecord, messageID)
	if err != nil {
		t.Fatalf("get delivery record: %v", err)
	}
	if record.CurrentState != core.DeliveryStateSent {
		t.Fatalf("expected sent state, got %q", record.CurrentState)
	}
}

func TestRuntime_WithoutDefaultActionsLeavesRegistryEmpty(t *testing.T) {
	runtime, _ := newTestRuntime(t, messaging.WithoutDefaultActions())

	response := runtime.Dispatch(context.Background(), core.ActionRequest{Action: "send_message"})
	if response.Status != core.StatusNotFound {
		t.Fatalf("expected not-found status, got %#v", response)
	}
}

func TestRuntime_IngestPayloadDrivesStatusEngine(t *testing.T) {
	runtime, _ := newTestRuntime(t)
	ctx := context.Background()

	if _, err := runtime.Create(ctx, core.EntityKindDeliveryRecord, "msg_rt", nil); err != nil {
		t.Fatalf("seed delivery record: %v", err)
	}

	payload := []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "acct_rt",
			"changes": [
				{"field": "message-status", "value": {"messageId": "msg_rt", "status": "%s"}},
				{"field": "message-status", "value": {"messageId": "msg_rt", "status": "%s"}}
			]
		}]
	}`, core.DeliveryStateDelivered, core.DeliveryStateRead))

	result, err := runtime.IngestPayload(ctx, payload)
	if err != nil {
		t.Fatalf("ingest payload: %v", err)
	}
	if result.Processed != 2 {
		t.Fatalf("expected 2 processed, got %#v", result)
	}

	record, err := runtime.Get(ctx, core.EntityKindDeliveryRecord, "msg_rt")
	if err != nil {
		t.Fatalf("get delivery record: %v", err)
	}
	if record.CurrentState != core.DeliveryStateRead {
		t.Fatalf("expected read state, got %q", record.CurrentState)
	}

	// Redelivery of the same changes only touches the audit trail.
	replay, err := runtime.IngestPayload(ctx, payload)
	if err != nil {
		t.Fatalf("replay payload: %v", err)
	}
	if replay.Duplicates != 2 || replay.Processed != 0 {
		t.Fatalf("expected pure duplicates on replay, got %#v", replay)
	}

	stats, err := runtime.DeliveryStats(ctx, core.EntityFilter{})
	if err != nil {
		t.Fatalf("delivery stats: %v", err)
	}
	if stats.Total != 1 || stats.Read != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestRuntime_DispatchPayloadMixedBatch(t *testing.T) {
	runtime, gateway := newTestRuntime(t)

	payload := []byte(`{
		"Records": [
			{"body": {"action": "send_message", "to": "+15550001111", "body": {"text": "first"}}},
			{"body": {"note": "no action here"}},
			{"body": {"action": "send_message", "to": "+15550002222", "body": {"text": "third"}}}
		]
	}`)

	responses := runtime.DispatchPayload(context.Background(), payload)
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}
	if responses[0].Status != core.StatusOK || responses[2].Status != core.StatusOK {
		t.Fatalf("expected well-formed records to dispatch, got %#v", responses)
	}
	if responses[1].Status != core.StatusClientError {
		t.Fatalf("expected client error for the malformed record, got %#v", responses[1])
	}
	if responses[1].Error == nil || responses[1].Error.Code != core.MessagingErrorUnrecognizedEnvelope {
		t.Fatalf("unexpected error envelope %#v", responses[1].Error)
	}
	if len(gateway.Sent()) != 2 {
		t.Fatalf("expected two sent payloads, got %d", len(gateway.Sent()))
	}
}

func TestRuntime_DispatchPayloadUnrecognizedShape(t *testing.T) {
	runtime, _ := newTestRuntime(t)

	responses := runtime.DispatchPayload(context.Background(), []byte(`{"mystery": true}`))
	if len(responses) != 1 {
		t.Fatalf("expected a single error response, got %d", len(responses))
	}
	if responses[0].Status != core.StatusClientError || responses[0].Error == nil {
		t.Fatalf("unexpected response %#v", responses[0])
	}
	if responses[0].Error.Code != core.MessagingErrorUnrecognizedEnvelope {
		t.Fatalf("unexpected error code %q", responses[0].Error.Code)
	}
}

func TestRuntime_ListFiltersByState(t *testing.T) {
	runtime, _ := newTestRuntime(t)
	ctx := context.Background()

	for _, id := range []string{"call_a", "call_b"} {
		if _, err := runtime.Create(ctx, core.EntityKindCall, id, nil); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if _, err := runtime.Transition(ctx, core.EntityKindCall, "call_b", core.CallStateRinging, nil); err != nil {
		t.Fatalf("transition call_b: %v", err)
	}

	ringing, err := runtime.List(ctx, core.EntityKindCall, core.EntityFilter{
		States: []string{core.CallStateRinging},
	})
	if err != nil {
		t.Fatalf("list ringing calls: %v", err)
	}
	if len(ringing) != 1 || ringing[0].ID != "call_b" {
		t.Fatalf("unexpected ringing calls %#v", ringing)
	}
}
