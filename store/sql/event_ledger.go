package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-messaging-core/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// WebhookEventLedger is the append-only audit trail for inbound webhook
// events. Record never rejects a duplicate idempotency key; Seen answers
// whether one was already written so the ingestor can skip reprocessing.
type WebhookEventLedger struct {
	db   *bun.DB
	repo repository.Repository[*webhookEventRecord]
	Now  func() time.Time
}

func NewWebhookEventLedger(db *bun.DB) (*WebhookEventLedger, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*webhookEventRecord](db, webhookEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid webhook event repository wiring: %w", err)
		}
	}
	return &WebhookEventLedger{db: db, repo: repo}, nil
}

func (s *WebhookEventLedger) Seen(ctx context.Context, idempotencyKey string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: webhook event ledger is not configured")
	}
	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		return false, nil
	}
	count, err := s.db.NewSelect().
		Model((*webhookEventRecord)(nil)).
		Where("?TableAlias.idempotency_key = ?", key).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *WebhookEventLedger) Record(ctx context.Context, event core.WebhookEvent) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: webhook event ledger is not configured")
	}
	if strings.TrimSpace(event.SourceAccountID) == "" {
		return fmt.Errorf("sqlstore: source account id is required")
	}
	if strings.TrimSpace(event.Field) == "" {
		return fmt.Errorf("sqlstore: event field is required")
	}

	record := newWebhookEventRecord(event, s.clock())
	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *WebhookEventLedger) List(ctx context.Context, sourceAccountID string, limit int) ([]core.WebhookEvent, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: webhook event ledger is not configured")
	}

	criteria := []repository.SelectCriteria{
		repository.SelectBy("source_account_id", "=", strings.TrimSpace(sourceAccountID)),
		repository.OrderBy("received_at ASC"),
	}
	if limit > 0 {
		criteria = append(criteria, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Limit(limit)
		}))
	}

	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}

	out := make([]core.WebhookEvent, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *WebhookEventLedger) clock() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
