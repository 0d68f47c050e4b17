package actions

import (
	"context"

	"github.com/google/uuid"
	"github.com/goliatone/go-messaging-core/core"
)

func initiateCall(ctx context.Context, params map[string]any, ic *core.InvocationContext) (map[string]any, error) {
	if ic == nil || ic.Status == nil {
		return nil, actionBadInput("status engine is not configured")
	}
	to, err := requireString(params, "to")
	if err != nil {
		return nil, err
	}

	callType := optionalString(params, "callType")
	if callType == "" {
		callType = "business_initiated"
	}

	callID := optionalString(params, "callId")
	if callID == "" {
		callID = uuid.NewString()
	}

	call, err := ic.Status.Create(ctx, core.EntityKindCall, callID, map[string]any{
		"to":        to,
		"call_type": callType,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"callId":       call.ID,
		"currentState": call.CurrentState,
	}, nil
}

func updateCallStatus(ctx context.Context, params map[string]any, ic *core.InvocationContext) (map[string]any, error) {
	if ic == nil || ic.Status == nil {
		return nil, actionBadInput("status engine is not configured")
	}
	callID, err := requireString(params, "callId")
	if err != nil {
		return nil, err
	}
	target, err := requireString(params, "status")
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{}
	if duration, ok := optionalInt(params, "duration"); ok {
		metadata["duration"] = duration
	}
	if reason := optionalString(params, "reason"); reason != "" {
		metadata["reason"] = reason
	}

	call, err := ic.Status.Transition(ctx, core.EntityKindCall, callID, target, metadata)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"callId":        call.ID,
		"currentState":  call.CurrentState,
		"statusHistory": historyStates(call),
	}, nil
}

func historyStates(entity core.StatableEntity) []string {
	states := make([]string, 0, len(entity.StatusHistory))
	for _, entry := range entity.StatusHistory {
		states = append(states, entry.State)
	}
	return states
}
