package dispatch

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-messaging-core/core"
)

func newTestDispatcher(t *testing.T, register ...core.ActionDescriptor) *Dispatcher {
	t.Helper()
	registry := core.NewActionRegistry()
	for _, descriptor := range register {
		if err := registry.Register(descriptor); err != nil {
			t.Fatalf("register %s: %v", descriptor.Name, err)
		}
	}
	return NewDispatcher(registry, &core.InvocationContext{})
}

func TestDispatch_Success(t *testing.T) {
	dispatcher := newTestDispatcher(t, core.ActionDescriptor{
		Name: "echo_params",
		Handler: func(_ context.Context, params map[string]any, _ *core.InvocationContext) (map[string]any, error) {
			return map[string]any{"echo": params["value"]}, nil
		},
	})

	response := dispatcher.Dispatch(context.Background(), core.ActionRequest{
		Action:     "echo_params",
		Parameters: map[string]any{"value": "hello"},
	})

	if response.Status != core.StatusOK {
		t.Fatalf("expected ok status, got %q", response.Status)
	}
	if response.Operation != "echo_params" {
		t.Fatalf("expected operation to equal action name, got %q", response.Operation)
	}
	if response.Payload["echo"] != "hello" {
		t.Fatalf("expected payload echo, got %#v", response.Payload)
	}
	if response.Error != nil {
		t.Fatalf("expected no error, got %+v", response.Error)
	}
}

func TestDispatch_UnknownActionReturnsNotFound(t *testing.T) {
	dispatcher := newTestDispatcher(t)

	response := dispatcher.Dispatch(context.Background(), core.ActionRequest{Action: "nonexistent_action"})

	if response.Status != core.StatusNotFound {
		t.Fatalf("expected not_found status, got %q", response.Status)
	}
	if response.Error == nil || response.Error.Code != core.MessagingErrorActionNotFound {
		t.Fatalf("expected action-not-found error, got %+v", response.Error)
	}
	if response.Operation != "" {
		t.Fatalf("operation must be empty on failure, got %q", response.Operation)
	}
}

func TestDispatch_ValidationErrorMapsToClientError(t *testing.T) {
	dispatcher := newTestDispatcher(t, core.ActionDescriptor{
		Name: "needs_input",
		Handler: func(context.Context, map[string]any, *core.InvocationContext) (map[string]any, error) {
			return nil, goerrors.New("needs_input: recipient is required", goerrors.CategoryBadInput).
				WithTextCode(core.MessagingErrorValidation)
		},
	})

	response := dispatcher.Dispatch(context.Background(), core.ActionRequest{Action: "needs_input"})

	if response.Status != core.StatusClientError {
		t.Fatalf("expected client_error status, got %q", response.Status)
	}
	if response.Error == nil || response.Error.Code != core.MessagingErrorValidation {
		t.Fatalf("expected validation error code, got %+v", response.Error)
	}
}

func TestDispatch_PlainErrorMappedThroughDefaultMapper(t *testing.T) {
	dispatcher := newTestDispatcher(t, core.ActionDescriptor{
		Name: "fails_plain",
		Handler: func(context.Context, map[string]any, *core.InvocationContext) (map[string]any, error) {
			return nil, errors.New("gateway send timed out")
		},
	})

	response := dispatcher.Dispatch(context.Background(), core.ActionRequest{Action: "fails_plain"})

	if response.Status != core.StatusServerError {
		t.Fatalf("expected server_error status, got %q", response.Status)
	}
	if response.Error == nil || response.Error.Code != core.MessagingErrorUpstream {
		t.Fatalf("expected upstream error code, got %+v", response.Error)
	}
}

func TestDispatch_PanicRecovered(t *testing.T) {
	dispatcher := newTestDispatcher(t, core.ActionDescriptor{
		Name: "panics",
		Handler: func(context.Context, map[string]any, *core.InvocationContext) (map[string]any, error) {
			panic("boom")
		},
	})

	response := dispatcher.Dispatch(context.Background(), core.ActionRequest{Action: "panics"})

	if response.Status != core.StatusServerError {
		t.Fatalf("expected server_error status after panic, got %q", response.Status)
	}
	if response.Error == nil || response.Error.Code != core.MessagingErrorInternal {
		t.Fatalf("expected internal error code, got %+v", response.Error)
	}
}

func TestDispatch_EmptyActionRejected(t *testing.T) {
	dispatcher := newTestDispatcher(t)

	response := dispatcher.Dispatch(context.Background(), core.ActionRequest{Action: "   "})

	if response.Status != core.StatusClientError {
		t.Fatalf("expected client_error for empty action, got %q", response.Status)
	}
}

func TestDispatchAll_SiblingIsolation(t *testing.T) {
	dispatcher := newTestDispatcher(t, core.ActionDescriptor{
		Name: "ok_action",
		Handler: func(context.Context, map[string]any, *core.InvocationContext) (map[string]any, error) {
			return map[string]any{"done": true}, nil
		},
	}, core.ActionDescriptor{
		Name: "bad_action",
		Handler: func(context.Context, map[string]any, *core.InvocationContext) (map[string]any, error) {
			panic("boom")
		},
	})

	responses := dispatcher.DispatchAll(context.Background(), []core.ActionRequest{
		{Action: "ok_action"},
		{Action: "bad_action"},
		{Action: "ok_action"},
	})

	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}
	if responses[0].Status != core.StatusOK || responses[2].Status != core.StatusOK {
		t.Fatalf("failing sibling must not block others: %+v", responses)
	}
	if responses[1].Status != core.StatusServerError {
		t.Fatalf("expected middle response to fail, got %q", responses[1].Status)
	}
}

func TestDispatch_NilDispatcherIsTotal(t *testing.T) {
	var dispatcher *Dispatcher

	response := dispatcher.Dispatch(context.Background(), core.ActionRequest{Action: "anything"})

	if response.Status != core.StatusServerError {
		t.Fatalf("expected server_error from nil dispatcher, got %q", response.Status)
	}
}
