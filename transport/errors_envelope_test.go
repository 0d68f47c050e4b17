package transport

import (
	"context"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-messaging-core/core"
)

func TestRESTGateway_NetworkFailureReturnsRichError(t *testing.T) {
	gateway := NewRESTGateway(nil, "http://127.0.0.1:1/unreachable")
	gateway.Client = &http.Client{Timeout: 0}

	_, err := gateway.Send(context.Background(), core.MessagePayload{Recipient: "+15550001111"})
	if err == nil {
		t.Fatalf("expected network failure error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", rich.Category)
	}
	if rich.TextCode != core.MessagingErrorUpstream {
		t.Fatalf("expected %q text code, got %q", core.MessagingErrorUpstream, rich.TextCode)
	}
	if rich.Code != http.StatusBadGateway {
		t.Fatalf("expected %d code, got %d", http.StatusBadGateway, rich.Code)
	}
}

func TestRESTGateway_MissingRecipientReturnsValidationError(t *testing.T) {
	gateway := NewRESTGateway(nil, "https://provider.example/messages")

	_, err := gateway.Send(context.Background(), core.MessagePayload{})
	if err == nil {
		t.Fatalf("expected missing recipient error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %q", rich.Category)
	}
	if rich.TextCode != core.MessagingErrorValidation {
		t.Fatalf("expected %q text code, got %q", core.MessagingErrorValidation, rich.TextCode)
	}
}

func TestRESTGateway_NilGatewayReturnsRichError(t *testing.T) {
	var gateway *RESTGateway
	_, err := gateway.Send(context.Background(), core.MessagePayload{Recipient: "+15550001111"})
	if err == nil {
		t.Fatalf("expected nil gateway error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.MessagingErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.MessagingErrorInternal, rich.TextCode)
	}
	if rich.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d code, got %d", http.StatusInternalServerError, rich.Code)
	}
}
