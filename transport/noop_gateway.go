package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/google/uuid"
)

const KindNoop = "noop"

// NoopGateway accepts every message without talking to a provider. It keeps
// the accepted payloads so tests and local runs can inspect what would have
// gone out.
type NoopGateway struct {
	mu   sync.Mutex
	sent []core.MessagePayload
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{}
}

func (*NoopGateway) Kind() string {
	return KindNoop
}

func (g *NoopGateway) Send(_ context.Context, payload core.MessagePayload) (core.MessageReceipt, error) {
	if g == nil {
		return core.MessageReceipt{}, fmt.Errorf("transport: gateway is nil")
	}
	if strings.TrimSpace(payload.Recipient) == "" {
		return core.MessageReceipt{
			Success: false,
			Error:   "message recipient is required",
		}, nil
	}
	g.mu.Lock()
	g.sent = append(g.sent, payload)
	g.mu.Unlock()
	return core.MessageReceipt{
		Success:   true,
		MessageID: "noop-" + uuid.NewString(),
	}, nil
}

// Sent returns a copy of the payloads accepted so far.
func (g *NoopGateway) Sent() []core.MessagePayload {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]core.MessagePayload, len(g.sent))
	copy(out, g.sent)
	return out
}

// UnsupportedGateway stands in for a channel kind that has no configured
// gateway. Every send fails with a stable explanation.
type UnsupportedGateway struct {
	kind   string
	reason string
}

func NewUnsupportedGateway(kind string, reason string) *UnsupportedGateway {
	return &UnsupportedGateway{
		kind:   strings.TrimSpace(strings.ToLower(kind)),
		reason: strings.TrimSpace(reason),
	}
}

func (g *UnsupportedGateway) Kind() string {
	if g == nil {
		return ""
	}
	return g.kind
}

func (g *UnsupportedGateway) Send(context.Context, core.MessagePayload) (core.MessageReceipt, error) {
	if g == nil {
		return core.MessageReceipt{}, fmt.Errorf("transport: gateway is nil")
	}
	if g.reason != "" {
		return core.MessageReceipt{}, fmt.Errorf(
			"transport: %s gateway is not configured: %s",
			g.kind,
			g.reason,
		)
	}
	return core.MessageReceipt{}, fmt.Errorf(
		"transport: %s gateway is not configured",
		g.kind,
	)
}

var _ Gateway = (*NoopGateway)(nil)
var _ Gateway = (*UnsupportedGateway)(nil)
