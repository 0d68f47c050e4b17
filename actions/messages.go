package actions

import (
	"context"

	"github.com/goliatone/go-messaging-core/core"
)

func sendMessage(ctx context.Context, params map[string]any, ic *core.InvocationContext) (map[string]any, error) {
	if ic == nil || ic.Gateway == nil {
		return nil, actionBadInput("messaging gateway is not configured")
	}
	if ic.Status == nil {
		return nil, actionBadInput("status engine is not configured")
	}

	to, err := requireString(params, "to")
	if err != nil {
		return nil, err
	}
	messageType := optionalString(params, "type")
	if messageType == "" {
		messageType = "text"
	}
	body, _ := params["body"].(map[string]any)

	receipt, err := ic.Gateway.Send(ctx, core.MessagePayload{
		Recipient: to,
		Type:      messageType,
		Body:      body,
	})
	if err != nil {
		return nil, actionUpstream("gateway send failed", err)
	}
	if !receipt.Success {
		return nil, actionRejectedUpstream("gateway rejected message: " + receipt.Error)
	}

	record, err := ic.Status.Create(ctx, core.EntityKindDeliveryRecord, receipt.MessageID, map[string]any{
		"recipient":    to,
		"message_type": messageType,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"messageId":    record.ID,
		"currentState": record.CurrentState,
	}, nil
}
