package webhooks

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/status"
)

func registerDefaultHandlers(i *Ingestor, engine *status.Engine, kv core.KeyValueStore) {
	if engine != nil {
		i.handlers[FieldMessageStatus] = messageStatusHandler(engine)
	}
	if kv != nil {
		i.handlers[FieldInboundMessage] = inboundMessageHandler(kv)
		i.handlers[FieldTemplateStatus] = templateStatusHandler(kv)
		i.handlers[FieldQualityRating] = qualityRatingHandler(kv)
		i.handlers[FieldAccountUpdate] = accountUpdateHandler(kv)
	}
}

// messageStatusHandler drives the MessageDeliveryRecord lifecycle. A sent
// status for an unknown message id creates the record; every other status is
// a transition against the stored state.
func messageStatusHandler(engine *status.Engine) FieldHandler {
	return func(ctx context.Context, event core.WebhookEvent) error {
		messageID := stringValue(event.Value, "messageId", "id")
		target := strings.TrimSpace(stringValue(event.Value, "status"))
		if messageID == "" || target == "" {
			return fmt.Errorf("webhooks: message-status change requires messageId and status")
		}

		metadata := map[string]any{"source": "webhook"}
		if recipient := stringValue(event.Value, "recipientId"); recipient != "" {
			metadata["recipient_id"] = recipient
		}
		if reason := stringValue(event.Value, "errorReason"); reason != "" {
			metadata["error_reason"] = reason
		}

		if target == core.DeliveryStateSent {
			if _, err := engine.Get(ctx, core.EntityKindDeliveryRecord, messageID); status.IsNotFound(err) {
				_, createErr := engine.Create(ctx, core.EntityKindDeliveryRecord, messageID, metadata)
				return createErr
			}
		}
		_, err := engine.Transition(ctx, core.EntityKindDeliveryRecord, messageID, target, metadata)
		return err
	}
}

// inboundMessageHandler keeps a key-value log entry per received message so
// peripheral handlers can pick it up.
func inboundMessageHandler(kv core.KeyValueStore) FieldHandler {
	return func(ctx context.Context, event core.WebhookEvent) error {
		messageID := stringValue(event.Value, "messageId", "id")
		if messageID == "" {
			return fmt.Errorf("webhooks: inbound-message change requires messageId")
		}
		item := core.KVItem{
			Key: "inbound:" + event.SourceAccountID + ":" + messageID,
			Attributes: map[string]any{
				"from":        stringValue(event.Value, "from"),
				"type":        stringValue(event.Value, "type"),
				"received_at": event.ReceivedAt.Format("2006-01-02T15:04:05Z07:00"),
				"value":       event.Value,
			},
			UpdatedAt: event.ReceivedAt,
		}
		return kv.PutItem(ctx, item)
	}
}

func templateStatusHandler(kv core.KeyValueStore) FieldHandler {
	return func(ctx context.Context, event core.WebhookEvent) error {
		templateKey := stringValue(event.Value, "templateId", "templateName", "id")
		templateStatus := stringValue(event.Value, "status")
		if templateKey == "" || templateStatus == "" {
			return fmt.Errorf("webhooks: template-status change requires templateId and status")
		}
		_, err := kv.UpdateItem(ctx, "template:"+event.SourceAccountID+":"+templateKey, map[string]any{
			"status":     templateStatus,
			"updated_by": "webhook",
		})
		return err
	}
}

func qualityRatingHandler(kv core.KeyValueStore) FieldHandler {
	return func(ctx context.Context, event core.WebhookEvent) error {
		phoneNumberID := stringValue(event.Value, "phoneNumberId", "id")
		rating := stringValue(event.Value, "rating", "qualityScore")
		if phoneNumberID == "" || rating == "" {
			return fmt.Errorf("webhooks: quality-rating change requires phoneNumberId and rating")
		}
		_, err := kv.UpdateItem(ctx, "quality:"+event.SourceAccountID+":"+phoneNumberID, map[string]any{
			"rating":     rating,
			"updated_by": "webhook",
		})
		return err
	}
}

func accountUpdateHandler(kv core.KeyValueStore) FieldHandler {
	return func(ctx context.Context, event core.WebhookEvent) error {
		updates := map[string]any{"updated_by": "webhook"}
		for key, value := range event.Value {
			updates[key] = value
		}
		_, err := kv.UpdateItem(ctx, "account:"+event.SourceAccountID, updates)
		return err
	}
}

func stringValue(value map[string]any, keys ...string) string {
	for _, key := range keys {
		if raw, ok := value[key]; ok {
			if text, ok := raw.(string); ok && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
		}
	}
	return ""
}
