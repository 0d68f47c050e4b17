package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/status"
	"github.com/goliatone/go-messaging-core/webhooks"
)

// DispatchingService is the total dispatcher boundary; it never returns an
// error because failures come back inside the response envelope.
type DispatchingService interface {
	Dispatch(ctx context.Context, request core.ActionRequest) core.ActionResponse
}

type WebhookIngestingService interface {
	IngestPayload(ctx context.Context, payload []byte) (webhooks.IngestResult, error)
}

type StatusMutatingService interface {
	Create(ctx context.Context, kind core.EntityKind, id string, metadata map[string]any) (core.StatableEntity, error)
	Transition(ctx context.Context, kind core.EntityKind, id string, target string, metadata map[string]any) (core.StatableEntity, error)
}

type QualityStatsService interface {
	DeliveryStats(ctx context.Context, filter core.EntityFilter) (status.DeliveryStats, error)
}

type DispatchActionCommand struct {
	service DispatchingService
}

func NewDispatchActionCommand(service DispatchingService) *DispatchActionCommand {
	return &DispatchActionCommand{service: service}
}

func (c *DispatchActionCommand) Execute(ctx context.Context, msg DispatchActionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: dispatch service is required")
	}
	out := c.service.Dispatch(ctx, msg.Request)
	storeResult(ctx, out)
	return nil
}

type IngestWebhookCommand struct {
	service WebhookIngestingService
}

func NewIngestWebhookCommand(service WebhookIngestingService) *IngestWebhookCommand {
	return &IngestWebhookCommand{service: service}
}

func (c *IngestWebhookCommand) Execute(ctx context.Context, msg IngestWebhookMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: webhook ingest service is required")
	}
	out, err := c.service.IngestPayload(ctx, msg.Payload)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateEntityCommand struct {
	service StatusMutatingService
}

func NewCreateEntityCommand(service StatusMutatingService) *CreateEntityCommand {
	return &CreateEntityCommand{service: service}
}

func (c *CreateEntityCommand) Execute(ctx context.Context, msg CreateEntityMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: status service is required")
	}
	out, err := c.service.Create(ctx, msg.Kind, msg.ID, msg.Metadata)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type TransitionEntityCommand struct {
	service StatusMutatingService
}

func NewTransitionEntityCommand(service StatusMutatingService) *TransitionEntityCommand {
	return &TransitionEntityCommand{service: service}
}

func (c *TransitionEntityCommand) Execute(ctx context.Context, msg TransitionEntityMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: status service is required")
	}
	out, err := c.service.Transition(ctx, msg.Kind, msg.ID, msg.Target, msg.Metadata)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RecomputeQualityCommand struct {
	service QualityStatsService
}

func NewRecomputeQualityCommand(service QualityStatsService) *RecomputeQualityCommand {
	return &RecomputeQualityCommand{service: service}
}

func (c *RecomputeQualityCommand) Execute(ctx context.Context, msg RecomputeQualityMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: quality stats service is required")
	}
	out, err := c.service.DeliveryStats(ctx, msg.Filter)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
