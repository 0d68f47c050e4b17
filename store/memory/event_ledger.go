package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-messaging-core/core"
)

// InMemoryEventLedger records every webhook event for audit and answers
// idempotency-key lookups. Record is append-only; a repeated key is stored
// again for audit but Seen reports it as a duplicate.
type InMemoryEventLedger struct {
	mu     sync.RWMutex
	events []core.WebhookEvent
	seen   map[string]struct{}
}

func NewInMemoryEventLedger() *InMemoryEventLedger {
	return &InMemoryEventLedger{seen: map[string]struct{}{}}
}

func (l *InMemoryEventLedger) Seen(_ context.Context, idempotencyKey string) (bool, error) {
	if l == nil {
		return false, fmt.Errorf("memstore: event ledger is nil")
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" {
		return false, fmt.Errorf("memstore: idempotency key is required")
	}
	l.mu.RLock()
	_, ok := l.seen[idempotencyKey]
	l.mu.RUnlock()
	return ok, nil
}

func (l *InMemoryEventLedger) Record(_ context.Context, event core.WebhookEvent) error {
	if l == nil {
		return fmt.Errorf("memstore: event ledger is nil")
	}
	event.IdempotencyKey = strings.TrimSpace(event.IdempotencyKey)
	if event.IdempotencyKey == "" {
		return fmt.Errorf("memstore: idempotency key is required")
	}
	l.mu.Lock()
	l.events = append(l.events, cloneEvent(event))
	l.seen[event.IdempotencyKey] = struct{}{}
	l.mu.Unlock()
	return nil
}

func (l *InMemoryEventLedger) List(
	_ context.Context,
	sourceAccountID string,
	limit int,
) ([]core.WebhookEvent, error) {
	if l == nil {
		return nil, fmt.Errorf("memstore: event ledger is nil")
	}
	sourceAccountID = strings.TrimSpace(sourceAccountID)
	l.mu.RLock()
	defer l.mu.RUnlock()
	matched := make([]core.WebhookEvent, 0)
	for _, event := range l.events {
		if sourceAccountID != "" && event.SourceAccountID != sourceAccountID {
			continue
		}
		matched = append(matched, cloneEvent(event))
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched, nil
}

func cloneEvent(event core.WebhookEvent) core.WebhookEvent {
	copied := event
	copied.Value = cloneMap(event.Value)
	return copied
}

var _ core.WebhookEventLedger = (*InMemoryEventLedger)(nil)
