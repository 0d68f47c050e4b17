package status

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-messaging-core/core"
	memstore "github.com/goliatone/go-messaging-core/store/memory"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	return NewEngine(memstore.NewInMemoryEntityStore(), WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))
}

func TestEngine_CreateSeedsInitialState(t *testing.T) {
	engine := newTestEngine(t)

	call, err := engine.Create(context.Background(), core.EntityKindCall, "call_1", map[string]any{
		"to": "+911234567890",
	})
	if err != nil {
		t.Fatalf("create call: %v", err)
	}

	if call.CurrentState != core.CallStateInitiated {
		t.Fatalf("expected initiated, got %q", call.CurrentState)
	}
	if len(call.StatusHistory) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(call.StatusHistory))
	}
	if call.StatusHistory[0].Metadata["to"] != "+911234567890" {
		t.Fatalf("expected creation metadata on first entry, got %#v", call.StatusHistory[0].Metadata)
	}
	if err := call.Validate(); err != nil {
		t.Fatalf("created entity must be consistent: %v", err)
	}
}

func TestEngine_CreateValidation(t *testing.T) {
	engine := newTestEngine(t)

	if _, err := engine.Create(context.Background(), core.EntityKind("invoice"), "x_1", nil); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
	if _, err := engine.Create(context.Background(), core.EntityKindCall, "  ", nil); err == nil {
		t.Fatalf("expected empty id to fail")
	}
}

func TestEngine_CallLifecycleTransitions(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Create(ctx, core.EntityKindCall, "call_1", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	ringing, err := engine.Transition(ctx, core.EntityKindCall, "call_1", core.CallStateRinging, nil)
	if err != nil {
		t.Fatalf("initiated -> ringing: %v", err)
	}
	if ringing.CurrentState != core.CallStateRinging {
		t.Fatalf("expected ringing, got %q", ringing.CurrentState)
	}

	connected, err := engine.Transition(ctx, core.EntityKindCall, "call_1", core.CallStateConnected, nil)
	if err != nil {
		t.Fatalf("ringing -> connected: %v", err)
	}
	if connected.CurrentState != core.CallStateConnected {
		t.Fatalf("expected connected, got %q", connected.CurrentState)
	}

	ended, err := engine.Transition(ctx, core.EntityKindCall, "call_1", core.CallStateEnded, map[string]any{
		"duration": 120,
	})
	if err != nil {
		t.Fatalf("connected -> ended: %v", err)
	}
	if ended.CurrentState != core.CallStateEnded {
		t.Fatalf("expected ended, got %q", ended.CurrentState)
	}
	if ended.Metadata["duration"] != 120 {
		t.Fatalf("expected duration persisted, got %#v", ended.Metadata)
	}
	if len(ended.StatusHistory) != 4 {
		t.Fatalf("expected 4 history entries, got %d", len(ended.StatusHistory))
	}
}

func TestEngine_RejectionLeavesEntityUnchanged(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Create(ctx, core.EntityKindCall, "call_1", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.Transition(ctx, core.EntityKindCall, "call_1", core.CallStateEnded, nil); err == nil {
		t.Fatalf("expected initiated -> ended to be rejected")
	}

	if _, err := engine.Transition(ctx, core.EntityKindCall, "call_1", core.CallStateFailed, nil); err != nil {
		t.Fatalf("initiated -> failed: %v", err)
	}

	_, err := engine.Transition(ctx, core.EntityKindCall, "call_1", core.CallStateRinging, nil)
	if err == nil {
		t.Fatalf("expected terminal state to reject further transitions")
	}
	if !IsRejected(err) {
		t.Fatalf("expected transition-rejected error, got %v", err)
	}

	current, err := engine.Get(ctx, core.EntityKindCall, "call_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.CurrentState != core.CallStateFailed {
		t.Fatalf("rejected transition must leave state unchanged, got %q", current.CurrentState)
	}
	if len(current.StatusHistory) != 2 {
		t.Fatalf("rejected transition must not append history, got %d entries", len(current.StatusHistory))
	}
}

func TestEngine_PaymentHistoryOrder(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Create(ctx, core.EntityKindPayment, "pay_1", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.Transition(ctx, core.EntityKindPayment, "pay_1", core.PaymentStateProcessing, nil); err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	completed, err := engine.Transition(ctx, core.EntityKindPayment, "pay_1", core.PaymentStateCompleted, nil)
	if err != nil {
		t.Fatalf("processing -> completed: %v", err)
	}

	if completed.CurrentState != core.PaymentStateCompleted {
		t.Fatalf("expected completed, got %q", completed.CurrentState)
	}
	want := []string{core.PaymentStatePending, core.PaymentStateProcessing, core.PaymentStateCompleted}
	if len(completed.StatusHistory) != len(want) {
		t.Fatalf("expected %d history entries, got %d", len(want), len(completed.StatusHistory))
	}
	for index, state := range want {
		if completed.StatusHistory[index].State != state {
			t.Fatalf("history[%d]: got %q want %q", index, completed.StatusHistory[index].State, state)
		}
	}
	if !completed.StatusHistory[0].Timestamp.Before(completed.StatusHistory[2].Timestamp) {
		t.Fatalf("history timestamps must be ordered")
	}
}

func TestEngine_SameStateRepeatRejected(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Create(ctx, core.EntityKindDeliveryRecord, "msg_1", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.Transition(ctx, core.EntityKindDeliveryRecord, "msg_1", core.DeliveryStateDelivered, nil); err != nil {
		t.Fatalf("sent -> delivered: %v", err)
	}

	_, err := engine.Transition(ctx, core.EntityKindDeliveryRecord, "msg_1", core.DeliveryStateDelivered, nil)
	if !IsRejected(err) {
		t.Fatalf("expected same-state repeat to be rejected, got %v", err)
	}

	record, err := engine.Get(ctx, core.EntityKindDeliveryRecord, "msg_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(record.StatusHistory) != 2 {
		t.Fatalf("repeat must not append history, got %d entries", len(record.StatusHistory))
	}
}

func TestEngine_MissingEntity(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Transition(context.Background(), core.EntityKindCall, "missing", core.CallStateRinging, nil)
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	_, err = engine.Get(context.Background(), core.EntityKindCall, "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error from get, got %v", err)
	}
}

func TestEngine_UnknownTargetStateRejected(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Create(ctx, core.EntityKindCall, "call_1", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := engine.Transition(ctx, core.EntityKindCall, "call_1", "completed", nil)
	if !IsRejected(err) {
		t.Fatalf("expected unknown target state rejection, got %v", err)
	}
}
