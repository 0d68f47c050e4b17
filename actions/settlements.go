package actions

import (
	"context"

	"github.com/google/uuid"
	"github.com/goliatone/go-messaging-core/core"
)

func createPayment(ctx context.Context, params map[string]any, ic *core.InvocationContext) (map[string]any, error) {
	return createSettlement(ctx, params, ic, core.EntityKindPayment, "paymentId")
}

func updatePaymentStatus(ctx context.Context, params map[string]any, ic *core.InvocationContext) (map[string]any, error) {
	payload, entity, err := updateSettlement(ctx, params, ic, core.EntityKindPayment, "paymentId")
	if err != nil {
		return nil, err
	}
	if entity.CurrentState == core.PaymentStateCompleted {
		payload["notified"] = notifyCompletion(ctx, ic, entity, "payment_confirmation")
	}
	return payload, nil
}

func createRefund(ctx context.Context, params map[string]any, ic *core.InvocationContext) (map[string]any, error) {
	return createSettlement(ctx, params, ic, core.EntityKindRefund, "refundId")
}

func updateRefundStatus(ctx context.Context, params map[string]any, ic *core.InvocationContext) (map[string]any, error) {
	payload, entity, err := updateSettlement(ctx, params, ic, core.EntityKindRefund, "refundId")
	if err != nil {
		return nil, err
	}
	if entity.CurrentState == core.PaymentStateCompleted {
		payload["notified"] = notifyCompletion(ctx, ic, entity, "refund_confirmation")
	}
	return payload, nil
}

func createSettlement(
	ctx context.Context,
	params map[string]any,
	ic *core.InvocationContext,
	kind core.EntityKind,
	idKey string,
) (map[string]any, error) {
	if ic == nil || ic.Status == nil {
		return nil, actionBadInput("status engine is not configured")
	}

	amount, ok := optionalNumber(params, "amount")
	if !ok || amount <= 0 {
		return nil, actionBadInput("parameter %q must be a positive number", "amount")
	}
	currency := optionalString(params, "currency")
	if currency == "" {
		currency = "INR"
	}

	metadata := map[string]any{
		"amount":   amount,
		"currency": currency,
	}
	if recipient := optionalString(params, "to"); recipient != "" {
		metadata["recipient"] = recipient
	}
	if reference := optionalString(params, "reference"); reference != "" {
		metadata["reference"] = reference
	}

	id := optionalString(params, idKey)
	if id == "" {
		id = uuid.NewString()
	}

	entity, err := ic.Status.Create(ctx, kind, id, metadata)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		idKey:          entity.ID,
		"currentState": entity.CurrentState,
	}, nil
}

func updateSettlement(
	ctx context.Context,
	params map[string]any,
	ic *core.InvocationContext,
	kind core.EntityKind,
	idKey string,
) (map[string]any, core.StatableEntity, error) {
	if ic == nil || ic.Status == nil {
		return nil, core.StatableEntity{}, actionBadInput("status engine is not configured")
	}
	id, err := requireString(params, idKey)
	if err != nil {
		return nil, core.StatableEntity{}, err
	}
	target, err := requireString(params, "status")
	if err != nil {
		return nil, core.StatableEntity{}, err
	}

	metadata := map[string]any{}
	if reason := optionalString(params, "reason"); reason != "" {
		metadata["reason"] = reason
	}
	if reference := optionalString(params, "transactionReference"); reference != "" {
		metadata["transaction_reference"] = reference
	}

	entity, err := ic.Status.Transition(ctx, kind, id, target, metadata)
	if err != nil {
		return nil, core.StatableEntity{}, err
	}

	payload := map[string]any{
		idKey:           entity.ID,
		"currentState":  entity.CurrentState,
		"statusHistory": historyStates(entity),
	}
	return payload, entity, nil
}

// notifyCompletion emits the state-derived confirmation message. Notification
// failures never fail the transition that triggered them.
func notifyCompletion(ctx context.Context, ic *core.InvocationContext, entity core.StatableEntity, kind string) bool {
	if ic == nil || ic.Gateway == nil {
		return false
	}
	recipient := settlementRecipient(entity)
	if recipient == "" {
		return false
	}

	receipt, err := ic.Gateway.Send(ctx, core.MessagePayload{
		Recipient: recipient,
		Type:      "text",
		Body: map[string]any{
			"kind":      kind,
			"entity_id": entity.ID,
			"state":     entity.CurrentState,
		},
	})
	if err != nil || !receipt.Success {
		if ic.Logger != nil {
			ic.Logger.Warn("confirmation message failed",
				"entity_id", entity.ID,
				"kind", kind,
				"error", err,
			)
		}
		return false
	}
	return true
}

func settlementRecipient(entity core.StatableEntity) string {
	if len(entity.StatusHistory) == 0 {
		return ""
	}
	created := entity.StatusHistory[0].Metadata
	if created == nil {
		return ""
	}
	recipient, _ := created["recipient"].(string)
	return recipient
}
