package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type StatusClass string

const (
	StatusOK          StatusClass = "ok"
	StatusClientError StatusClass = "client_error"
	StatusNotFound    StatusClass = "not_found"
	StatusServerError StatusClass = "server_error"
)

type TriggerKind string

const (
	TriggerGateway  TriggerKind = "gateway"
	TriggerBatch    TriggerKind = "batch"
	TriggerDirect   TriggerKind = "direct"
	TriggerSchedule TriggerKind = "schedule"
	TriggerCLI      TriggerKind = "cli"
)

// ActionRequest is the canonical envelope every trigger shape normalizes into.
type ActionRequest struct {
	Action          string
	Parameters      map[string]any
	TriggerKind     TriggerKind
	TriggerMetadata map[string]any
	InvocationID    string
}

type ResponseError struct {
	Code    string
	Message string
}

// ActionResponse always carries a status class; Operation equals the action
// name on success so callers can branch without inspecting the payload.
type ActionResponse struct {
	Status    StatusClass
	Operation string
	Payload   map[string]any
	Error     *ResponseError
}

// ActionHandler is the contract exposed to the peripheral action
// implementations. Returned errors are mapped to response envelopes by the
// dispatcher and never propagate past it.
type ActionHandler func(ctx context.Context, params map[string]any, ic *InvocationContext) (map[string]any, error)

type ActionDescriptor struct {
	Name        string
	Category    string
	Description string
	Handler     ActionHandler
}

type Registry interface {
	Register(descriptor ActionDescriptor) error
	Get(name string) (ActionDescriptor, bool)
	List(category ...string) []ActionDescriptor
}

// InvocationContext is the shared dependency bundle handed to every handler
// invocation. Handlers run to completion per invocation and present no
// concurrency primitives to their authors.
type InvocationContext struct {
	Entities EntityStore
	KV       KeyValueStore
	Gateway  MessagingGateway
	Status   StatusEngine
	Logger   Logger
	Config   Config
	Now      func() time.Time
}

func (ic *InvocationContext) Clock() time.Time {
	if ic != nil && ic.Now != nil {
		return ic.Now().UTC()
	}
	return time.Now().UTC()
}

type EntityFilter struct {
	States []string
	From   *time.Time
	To     *time.Time
	Limit  int
}

type EntityStore interface {
	Create(ctx context.Context, entity StatableEntity) (StatableEntity, error)
	Get(ctx context.Context, kind EntityKind, id string) (StatableEntity, error)
	Update(ctx context.Context, entity StatableEntity) (StatableEntity, error)
	List(ctx context.Context, kind EntityKind, filter EntityFilter) ([]StatableEntity, error)
}

type KVItem struct {
	Key        string
	Attributes map[string]any
	UpdatedAt  time.Time
}

// KeyValueStore is the consumed single-item-atomic store boundary. PutItem is
// a full overwrite; UpdateItem merges attribute updates into the stored item.
type KeyValueStore interface {
	GetItem(ctx context.Context, key string) (KVItem, bool, error)
	PutItem(ctx context.Context, item KVItem) error
	UpdateItem(ctx context.Context, key string, updates map[string]any) (KVItem, error)
	Scan(ctx context.Context, filter func(KVItem) bool, limit int) ([]KVItem, error)
}

type WebhookEvent struct {
	SourceAccountID string
	Field           string
	Value           map[string]any
	ReceivedAt      time.Time
	IdempotencyKey  string
}

type WebhookEventLedger interface {
	Seen(ctx context.Context, idempotencyKey string) (bool, error)
	Record(ctx context.Context, event WebhookEvent) error
	List(ctx context.Context, sourceAccountID string, limit int) ([]WebhookEvent, error)
}

type MessagePayload struct {
	Recipient string
	Type      string
	Body      map[string]any
}

type MessageReceipt struct {
	Success   bool
	MessageID string
	Error     string
}

// MessagingGateway is the outbound channel boundary; the core calls it to
// emit state-derived notifications and never implements it.
type MessagingGateway interface {
	Send(ctx context.Context, payload MessagePayload) (MessageReceipt, error)
}

type StatusEngine interface {
	Create(ctx context.Context, kind EntityKind, id string, metadata map[string]any) (StatableEntity, error)
	Transition(ctx context.Context, kind EntityKind, id string, target string, metadata map[string]any) (StatableEntity, error)
	Get(ctx context.Context, kind EntityKind, id string) (StatableEntity, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
