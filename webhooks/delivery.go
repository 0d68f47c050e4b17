package webhooks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Webhook field names form a closed routing table, distinct from the action
// registry: webhook fields are not user-invocable actions.
const (
	FieldMessageStatus  = "message-status"
	FieldInboundMessage = "inbound-message"
	FieldTemplateStatus = "template-status"
	FieldQualityRating  = "quality-rating"
	FieldAccountUpdate  = "account-update"
)

// Delivery is one batched webhook body: account entries, each bundling
// field-tagged changes.
type Delivery struct {
	Object string         `json:"object"`
	Entry  []AccountEntry `json:"entry"`
}

type AccountEntry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string         `json:"field"`
	Value map[string]any `json:"value"`
}

func ParseDelivery(payload []byte) (Delivery, error) {
	if len(payload) == 0 {
		return Delivery{}, fmt.Errorf("webhooks: empty delivery payload")
	}
	var delivery Delivery
	if err := json.Unmarshal(payload, &delivery); err != nil {
		return Delivery{}, fmt.Errorf("webhooks: malformed delivery payload: %w", err)
	}
	if len(delivery.Entry) == 0 {
		return Delivery{}, fmt.Errorf("webhooks: delivery has no account entries")
	}
	return delivery, nil
}

// naturalKeyFields lists, per field, the value keys tried in order when
// deriving the idempotency key.
var naturalKeyFields = map[string][]string{
	FieldMessageStatus:  {"messageId", "id"},
	FieldInboundMessage: {"messageId", "id"},
	FieldTemplateStatus: {"templateId", "templateName", "id"},
	FieldQualityRating:  {"phoneNumberId", "eventId", "id"},
	FieldAccountUpdate:  {"eventId", "id"},
}

// IdempotencyKey derives account:field:naturalKey for a change. The natural
// key is field-specific (message id, template id, phone number id).
// Message-status changes carry the status as well: one message legitimately
// produces sent, delivered, and read events, and each must survive dedupe.
func IdempotencyKey(accountID string, field string, value map[string]any) (string, error) {
	accountID = strings.TrimSpace(accountID)
	field = strings.TrimSpace(field)
	if accountID == "" || field == "" {
		return "", fmt.Errorf("webhooks: account id and field are required for idempotency key")
	}
	candidates, ok := naturalKeyFields[field]
	if !ok {
		candidates = []string{"eventId", "id"}
	}
	for _, candidate := range candidates {
		raw, ok := value[candidate]
		if !ok {
			continue
		}
		natural := strings.TrimSpace(fmt.Sprint(raw))
		if natural == "" {
			continue
		}
		key := accountID + ":" + field + ":" + natural
		if field == FieldMessageStatus {
			if status := stringValue(value, "status"); status != "" {
				key += ":" + status
			}
		}
		return key, nil
	}
	return "", fmt.Errorf("webhooks: no natural key in %s change for account %s", field, accountID)
}
