package webhooks

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/status"
	memstore "github.com/goliatone/go-messaging-core/store/memory"
)

func TestSignatureVerifier_AcceptsValidDigest(t *testing.T) {
	verifier, err := NewSignatureVerifier(StaticSecret("app-secret"))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	payload := []byte(`{"object":"whatsapp_business_account"}`)
	if err := verifier.Verify(payload, Signature("app-secret", payload)); err != nil {
		t.Fatalf("verify valid signature: %v", err)
	}
}

func TestSignatureVerifier_RejectsBadInputs(t *testing.T) {
	verifier, err := NewSignatureVerifier(StaticSecret("app-secret"))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	payload := []byte(`{"object":"whatsapp_business_account"}`)

	cases := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"missing scheme", "deadbeef"},
		{"malformed digest", "sha256=not-hex"},
		{"wrong secret", Signature("other-secret", payload)},
		{"tampered payload", Signature("app-secret", []byte(`{}`))},
	}
	for _, tc := range cases {
		if err := verifier.Verify(payload, tc.header); err == nil {
			t.Fatalf("%s: expected verification failure", tc.name)
		}
	}
}

func TestSignatureVerifier_RotationKeepsPreviousSecretValid(t *testing.T) {
	verifier, err := NewSignatureVerifier(RotatingSecret{Current: "new-secret", Previous: "old-secret"})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	payload := []byte(`{"object":"whatsapp_business_account"}`)

	if err := verifier.Verify(payload, Signature("new-secret", payload)); err != nil {
		t.Fatalf("verify current secret: %v", err)
	}
	if err := verifier.Verify(payload, Signature("old-secret", payload)); err != nil {
		t.Fatalf("verify previous secret: %v", err)
	}
	if err := verifier.Verify(payload, Signature("retired-secret", payload)); err == nil {
		t.Fatalf("expected failure for unknown secret")
	}
}

func TestIngestSignedPayload_EnforcesSignature(t *testing.T) {
	store := memstore.NewInMemoryEntityStore()
	engine := status.NewEngine(store)
	if _, err := engine.Create(context.Background(), core.EntityKindDeliveryRecord, "msg_signed", nil); err != nil {
		t.Fatalf("seed delivery record: %v", err)
	}

	verifier, err := NewSignatureVerifier(StaticSecret("app-secret"))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	ingestor := NewIngestor(
		memstore.NewInMemoryEventLedger(),
		engine,
		memstore.NewInMemoryKeyValueStore(),
		WithSignatureVerifier(verifier),
	)

	payload := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "acct_signed",
			"changes": [
				{"field": "message-status", "value": {"messageId": "msg_signed", "status": "delivered"}}
			]
		}]
	}`)

	if _, err := ingestor.IngestSignedPayload(context.Background(), payload, "sha256=00"); err == nil {
		t.Fatalf("expected rejection for forged signature")
	} else if !strings.Contains(err.Error(), "signature") {
		t.Fatalf("unexpected error %v", err)
	}

	result, err := ingestor.IngestSignedPayload(context.Background(), payload, Signature("app-secret", payload))
	if err != nil {
		t.Fatalf("ingest signed payload: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("expected processed change, got %#v", result)
	}
}
