package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-messaging-core/core"
)

type Dispatcher struct {
	Registry    core.Registry
	Context     *core.InvocationContext
	Logger      core.Logger
	Observer    core.OperationObserver
	ErrorMapper core.ErrorMapper
}

func NewDispatcher(registry core.Registry, invocation *core.InvocationContext) *Dispatcher {
	logger := glog.Nop()
	if invocation != nil && invocation.Logger != nil {
		logger = glog.Ensure(invocation.Logger)
	}
	return &Dispatcher{
		Registry: registry,
		Context:  invocation,
		Logger:   logger,
	}
}

// Dispatch never returns an error or panics to its caller; every outcome is
// a response carrying a status class.
func (d *Dispatcher) Dispatch(ctx context.Context, request core.ActionRequest) core.ActionResponse {
	startedAt := time.Now()
	action := strings.TrimSpace(request.Action)

	if d == nil || d.Registry == nil {
		return core.ActionResponse{
			Status: core.StatusServerError,
			Error: &core.ResponseError{
				Code:    core.MessagingErrorInternal,
				Message: "dispatch: dispatcher is not configured",
			},
		}
	}
	if action == "" {
		return d.failure(ctx, startedAt, request, goerrors.New(
			"dispatch: action name is required", goerrors.CategoryBadInput,
		).WithTextCode(core.MessagingErrorValidation))
	}

	descriptor, ok := d.Registry.Get(action)
	if !ok {
		return d.failure(ctx, startedAt, request, goerrors.New(
			fmt.Sprintf("dispatch: action not registered: %s", action),
			goerrors.CategoryNotFound,
		).WithTextCode(core.MessagingErrorActionNotFound))
	}

	payload, err := d.invoke(ctx, descriptor, request)
	if err != nil {
		return d.failure(ctx, startedAt, request, err)
	}

	d.observe(ctx, startedAt, request, nil)
	return core.ActionResponse{
		Status:    core.StatusOK,
		Operation: action,
		Payload:   payload,
	}
}

// DispatchAll processes requests independently and in order; a failing
// request never blocks its siblings.
func (d *Dispatcher) DispatchAll(ctx context.Context, requests []core.ActionRequest) []core.ActionResponse {
	responses := make([]core.ActionResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, d.Dispatch(ctx, request))
	}
	return responses
}

func (d *Dispatcher) invoke(
	ctx context.Context,
	descriptor core.ActionDescriptor,
	request core.ActionRequest,
) (payload map[string]any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			payload = nil
			err = goerrors.New(
				fmt.Sprintf("dispatch: handler panic in %s: %v", descriptor.Name, recovered),
				goerrors.CategoryInternal,
			).WithTextCode(core.MessagingErrorInternal).
				WithMetadata(map[string]any{"action": descriptor.Name})
		}
	}()
	if descriptor.Handler == nil {
		return nil, goerrors.New(
			fmt.Sprintf("dispatch: action has no handler: %s", descriptor.Name),
			goerrors.CategoryInternal,
		).WithTextCode(core.MessagingErrorInternal)
	}
	return descriptor.Handler(ctx, request.Parameters, d.Context)
}

func (d *Dispatcher) failure(
	ctx context.Context,
	startedAt time.Time,
	request core.ActionRequest,
	err error,
) core.ActionResponse {
	mapped := d.mapError(err)
	d.observe(ctx, startedAt, request, mapped)
	return core.ActionResponse{
		Status: core.StatusClassFor(mapped.Category),
		Error: &core.ResponseError{
			Code:    mapped.TextCode,
			Message: mapped.Message,
		},
	}
}

func (d *Dispatcher) mapError(err error) *goerrors.Error {
	mapper := core.ErrorMapper(nil)
	if d != nil {
		mapper = d.ErrorMapper
	}
	if mapper != nil {
		if mapped := mapper(err); mapped != nil {
			return mapped
		}
	}
	if mapped := core.DefaultErrorMapper(err); mapped != nil {
		return mapped
	}
	return goerrors.New("dispatch: unknown failure", goerrors.CategoryInternal).
		WithTextCode(core.MessagingErrorInternal)
}

func (d *Dispatcher) observe(ctx context.Context, startedAt time.Time, request core.ActionRequest, err error) {
	fields := map[string]any{
		"action":        strings.TrimSpace(request.Action),
		"trigger_kind":  string(request.TriggerKind),
		"invocation_id": request.InvocationID,
	}
	if d.Observer != nil {
		var observed error
		if err != nil {
			observed = err
		}
		d.Observer.ObserveOperation(ctx, startedAt, "dispatch", observed, fields)
		return
	}
	if d.Logger == nil {
		return
	}
	if err != nil {
		d.Logger.Error("dispatch failed",
			"action", fields["action"],
			"trigger_kind", fields["trigger_kind"],
			"invocation_id", fields["invocation_id"],
			"error", err.Error(),
		)
		return
	}
	d.Logger.Info("dispatch succeeded",
		"action", fields["action"],
		"trigger_kind", fields["trigger_kind"],
		"invocation_id", fields["invocation_id"],
	)
}
