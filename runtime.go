package messaging

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-messaging-core/actions"
	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/dispatch"
	"github.com/goliatone/go-messaging-core/envelope"
	"github.com/goliatone/go-messaging-core/status"
	"github.com/goliatone/go-messaging-core/webhooks"
)

// Runtime composes the configured service with its status engine, action
// dispatcher, and webhook ingestor. It is the concrete CommandQueryService
// most callers hand to NewFacade.
type Runtime struct {
	service    *core.Service
	engine     *status.Engine
	dispatcher *dispatch.Dispatcher
	ingestor   *webhooks.Ingestor
	normalizer *envelope.Normalizer
}

type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	skipDefaultActions bool
	hooks              *ExtensionHooks
	engineOptions      []status.EngineOption
	ingestorOptions    []webhooks.IngestorOption
}

// WithoutDefaultActions skips registration of the built-in action catalog.
// Use it when the caller pre-registered its own descriptors on the registry.
func WithoutDefaultActions() RuntimeOption {
	return func(options *runtimeOptions) {
		options.skipDefaultActions = true
	}
}

// WithExtensionHooks applies registered action and webhook handler packs
// while the runtime is assembled.
func WithExtensionHooks(hooks *ExtensionHooks) RuntimeOption {
	return func(options *runtimeOptions) {
		options.hooks = hooks
	}
}

func WithEngineOptions(opts ...status.EngineOption) RuntimeOption {
	return func(options *runtimeOptions) {
		options.engineOptions = append(options.engineOptions, opts...)
	}
}

func WithIngestorOptions(opts ...webhooks.IngestorOption) RuntimeOption {
	return func(options *runtimeOptions) {
		options.ingestorOptions = append(options.ingestorOptions, opts...)
	}
}

func NewRuntime(service *core.Service, opts ...RuntimeOption) (*Runtime, error) {
	if service == nil {
		return nil, fmt.Errorf("messaging: service is required")
	}
	cfg := runtimeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	deps := service.Dependencies()
	if deps.EntityStore == nil {
		return nil, fmt.Errorf("messaging: entity store is required")
	}
	registry := service.Registry()
	if registry == nil {
		return nil, fmt.Errorf("messaging: action registry is required")
	}

	if !cfg.skipDefaultActions {
		if err := actions.RegisterActions(registry); err != nil {
			return nil, err
		}
	}
	if cfg.hooks != nil {
		if err := cfg.hooks.ApplyActionPacks(registry); err != nil {
			return nil, err
		}
	}

	engineOptions := append([]status.EngineOption{
		status.WithLogger(deps.Logger),
		status.WithQualityConfig(service.Config().Quality),
	}, cfg.engineOptions...)
	engine := status.NewEngine(deps.EntityStore, engineOptions...)

	dispatcher := dispatch.NewDispatcher(registry, service.InvocationContext(engine))

	ingestorOptions := append(
		[]webhooks.IngestorOption{webhooks.WithLogger(deps.Logger)},
		cfg.ingestorOptions...,
	)
	ingestor := webhooks.NewIngestor(deps.WebhookLedger, engine, deps.KeyValueStore, ingestorOptions...)
	if cfg.hooks != nil {
		if err := cfg.hooks.ApplyWebhookPacks(ingestor); err != nil {
			return nil, err
		}
	}

	return &Runtime{
		service:    service,
		engine:     engine,
		dispatcher: dispatcher,
		ingestor:   ingestor,
		normalizer: envelope.New(),
	}, nil
}

// Dispatch routes an action request through the registry. Failures come back
// inside the response envelope, never as an error.
func (r *Runtime) Dispatch(ctx context.Context, request core.ActionRequest) core.ActionResponse {
	return r.dispatcher.Dispatch(ctx, request)
}

func (r *Runtime) DispatchAll(ctx context.Context, requests []core.ActionRequest) []core.ActionResponse {
	return r.dispatcher.DispatchAll(ctx, requests)
}

// DispatchPayload normalizes a raw trigger payload and dispatches the
// requests it yields. Per-record normalization failures become client-error
// responses at their record position, so a malformed batch record never
// blocks its siblings; a payload that cannot be classified at all yields a
// single error response.
func (r *Runtime) DispatchPayload(ctx context.Context, payload []byte) []core.ActionResponse {
	outcomes, err := r.normalizer.NormalizeOutcomes(payload)
	if err != nil {
		return []core.ActionResponse{normalizationFailure(err)}
	}
	responses := make([]core.ActionResponse, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			responses = append(responses, normalizationFailure(outcome.Err))
			continue
		}
		responses = append(responses, r.dispatcher.Dispatch(ctx, outcome.Request))
	}
	return responses
}

func normalizationFailure(err error) core.ActionResponse {
	mapped := core.DefaultErrorMapper(err)
	if mapped == nil {
		mapped = goerrors.New("messaging: payload normalization failed", goerrors.CategoryBadInput).
			WithTextCode(core.MessagingErrorUnrecognizedEnvelope)
	}
	return core.ActionResponse{
		Status: core.StatusClassFor(mapped.Category),
		Error: &core.ResponseError{
			Code:    mapped.TextCode,
			Message: mapped.Message,
		},
	}
}

func (r *Runtime) IngestPayload(ctx context.Context, payload []byte) (webhooks.IngestResult, error) {
	return r.ingestor.IngestPayload(ctx, payload)
}

func (r *Runtime) Ingest(ctx context.Context, delivery webhooks.Delivery) (webhooks.IngestResult, error) {
	return r.ingestor.Ingest(ctx, delivery)
}

func (r *Runtime) Create(
	ctx context.Context,
	kind core.EntityKind,
	id string,
	metadata map[string]any,
) (core.StatableEntity, error) {
	return r.engine.Create(ctx, kind, id, metadata)
}

func (r *Runtime) Transition(
	ctx context.Context,
	kind core.EntityKind,
	id string,
	target string,
	metadata map[string]any,
) (core.StatableEntity, error) {
	return r.engine.Transition(ctx, kind, id, target, metadata)
}

func (r *Runtime) Get(ctx context.Context, kind core.EntityKind, id string) (core.StatableEntity, error) {
	return r.engine.Get(ctx, kind, id)
}

func (r *Runtime) List(
	ctx context.Context,
	kind core.EntityKind,
	filter core.EntityFilter,
) ([]core.StatableEntity, error) {
	return r.service.Dependencies().EntityStore.List(ctx, kind, filter)
}

func (r *Runtime) DeliveryStats(ctx context.Context, filter core.EntityFilter) (status.DeliveryStats, error) {
	return r.engine.DeliveryStats(ctx, filter)
}

func (r *Runtime) Service() *core.Service {
	if r == nil {
		return nil
	}
	return r.service
}

func (r *Runtime) Engine() *status.Engine {
	if r == nil {
		return nil
	}
	return r.engine
}

func (r *Runtime) Dispatcher() *dispatch.Dispatcher {
	if r == nil {
		return nil
	}
	return r.dispatcher
}

func (r *Runtime) Ingestor() *webhooks.Ingestor {
	if r == nil {
		return nil
	}
	return r.ingestor
}

func (r *Runtime) Dependencies() core.ServiceDependencies {
	if r == nil {
		return core.ServiceDependencies{}
	}
	return r.service.Dependencies()
}
