package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-messaging-core/core"
	"github.com/google/uuid"
)

const KindREST = "rest"

const defaultRESTClientTimeout = 30 * time.Second
const defaultRESTResponseBodyLimit int64 = 1 << 20 // 1 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTGateway posts the canonical message payload to a messaging provider
// endpoint as JSON. Provider rejections come back as failed receipts, not
// errors; only transport-level failures surface as errors.
type RESTGateway struct {
	Client               HTTPDoer
	Endpoint             string
	DefaultHeaders       map[string]string
	Credentials          CredentialSource
	MaxResponseBodyBytes int64
}

func NewRESTGateway(client HTTPDoer, endpoint string) *RESTGateway {
	if client == nil {
		client = &http.Client{Timeout: defaultRESTClientTimeout}
	}
	return &RESTGateway{
		Client:               client,
		Endpoint:             strings.TrimSpace(endpoint),
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultRESTResponseBodyLimit,
	}
}

func (*RESTGateway) Kind() string {
	return KindREST
}

func (g *RESTGateway) Send(ctx context.Context, payload core.MessagePayload) (core.MessageReceipt, error) {
	if g == nil || g.Client == nil {
		return core.MessageReceipt{}, transportError(
			"transport: rest gateway requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"gateway": KindREST},
		)
	}
	if strings.TrimSpace(g.Endpoint) == "" {
		return core.MessageReceipt{}, transportError(
			"transport: rest gateway endpoint is required",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"gateway": KindREST},
		)
	}
	if strings.TrimSpace(payload.Recipient) == "" {
		return core.MessageReceipt{}, transportError(
			"transport: message recipient is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"gateway": KindREST},
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(map[string]any{
		"to":   payload.Recipient,
		"type": messageType(payload.Type),
		"body": payload.Body,
	})
	if err != nil {
		return core.MessageReceipt{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: encode message payload",
			http.StatusBadRequest,
			map[string]any{"gateway": KindREST, "recipient": payload.Recipient},
		)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return core.MessageReceipt{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			map[string]any{"gateway": KindREST, "endpoint": g.Endpoint},
		)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.Credentials != nil {
		credential, err := g.Credentials.Credential(ctx)
		if err != nil {
			return core.MessageReceipt{}, transportWrapError(
				err,
				goerrors.CategoryInternal,
				"transport: resolve gateway credential",
				http.StatusInternalServerError,
				map[string]any{"gateway": KindREST},
			)
		}
		httpReq.Header.Set("Authorization", credential.HeaderValue())
	}
	for key, value := range g.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	httpRes, err := g.Client.Do(httpReq)
	if err != nil {
		return core.MessageReceipt{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			http.StatusBadGateway,
			map[string]any{"gateway": KindREST, "endpoint": g.Endpoint},
		)
	}
	defer httpRes.Body.Close()

	limit := g.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultRESTResponseBodyLimit
	}
	resBody, err := io.ReadAll(io.LimitReader(httpRes.Body, limit))
	if err != nil {
		return core.MessageReceipt{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			http.StatusBadGateway,
			map[string]any{"gateway": KindREST, "status_code": httpRes.StatusCode},
		)
	}

	if httpRes.StatusCode < 200 || httpRes.StatusCode > 299 {
		return core.MessageReceipt{
			Success: false,
			Error:   fmt.Sprintf("provider returned status %d: %s", httpRes.StatusCode, truncate(string(resBody), 200)),
		}, nil
	}

	messageID := extractMessageID(resBody)
	if messageID == "" {
		// Delivery records key on the message id; a provider response
		// without one still gets a usable receipt.
		messageID = uuid.NewString()
	}
	return core.MessageReceipt{
		Success:   true,
		MessageID: messageID,
	}, nil
}

// extractMessageID pulls the provider message id out of the response body.
// The key set mirrors what the webhook ingestor accepts for deliveries.
func extractMessageID(body []byte) string {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}
	for _, key := range []string{"messageId", "id"} {
		if value, ok := decoded[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	if messages, ok := decoded["messages"].([]any); ok && len(messages) > 0 {
		if first, ok := messages[0].(map[string]any); ok {
			if value, ok := first["id"].(string); ok {
				return strings.TrimSpace(value)
			}
		}
	}
	return ""
}

func messageType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "text"
	}
	return value
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}

var _ Gateway = (*RESTGateway)(nil)
