package adapters_test

import (
	"context"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-messaging-core/actions"
	"github.com/goliatone/go-messaging-core/adapters/gocommand"
	"github.com/goliatone/go-messaging-core/adapters/gojob"
	"github.com/goliatone/go-messaging-core/adapters/gologger"
	msgcommand "github.com/goliatone/go-messaging-core/command"
	"github.com/goliatone/go-messaging-core/core"
	"github.com/goliatone/go-messaging-core/dispatch"
	"github.com/goliatone/go-messaging-core/status"
	memstore "github.com/goliatone/go-messaging-core/store/memory"
	"github.com/goliatone/go-messaging-core/transport"
)

func TestRuntimeCompatibility_GoJobGoCommandGoLogger(t *testing.T) {
	ctx := context.Background()

	logger := &compatLogger{}
	provider := &compatProvider{logger: logger}

	_, _, jobProvider, jobLogger := gologger.ResolveForJob(gologger.DefaultLoggerName, provider, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job logger bridges")
	}

	queueTap := &compatEnqueuer{}
	enqueueAdapter := gojob.NewEnqueuerAdapter(queueTap)
	receipt, err := enqueueAdapter.Enqueue(ctx, gojob.QualityRecomputeExecution("acct_1"))
	if err != nil {
		t.Fatalf("enqueue via gojob adapter: %v", err)
	}
	if receipt.DispatchID == "" {
		t.Fatalf("expected dispatch id on enqueue receipt")
	}
	if queueTap.last == nil || queueTap.last.JobID != gojob.JobIDQualityRecompute {
		t.Fatalf("expected go-job message mapping through enqueuer adapter")
	}

	queueRegistry := jobqueuecommand.NewRegistry()
	commandAdapter := gocommand.NewRegistryAdapter(gocmd.NewRegistry())
	if err := commandAdapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := commandAdapter.RegisterCommand(gocmd.CommandFunc[compatMessage](func(context.Context, compatMessage) error {
		return nil
	})); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := commandAdapter.Initialize(); err != nil {
		t.Fatalf("initialize command registry: %v", err)
	}
	if _, ok := queueRegistry.Get("messaging.compat.command"); !ok {
		t.Fatalf("expected command resolver hook to mirror command into go-job queue registry")
	}
}

func TestRuntimeCompatibility_ActionDispatchThroughCommandBus(t *testing.T) {
	registry := core.NewActionRegistry()
	if err := actions.RegisterActions(registry); err != nil {
		t.Fatalf("register actions: %v", err)
	}

	store := memstore.NewInMemoryEntityStore()
	gateway := transport.NewNoopGateway()
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	invocation := &core.InvocationContext{
		Entities: store,
		KV:       memstore.NewInMemoryKeyValueStore(),
		Gateway:  gateway,
		Status:   status.NewEngine(store, status.WithClock(func() time.Time { return now })),
		Now:      func() time.Time { return now },
	}
	dispatcher := dispatch.NewDispatcher(registry, invocation)

	adapter := gocommand.NewRegistryAdapter(gocmd.NewRegistry())
	subscriptions, err := gocommand.SubscribeMessagingHandlers(adapter, gocommand.MessagingHandlers{
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("subscribe messaging handlers: %v", err)
	}
	defer func() {
		for _, sub := range subscriptions {
			sub.Unsubscribe()
		}
	}()

	collector := gocmd.NewResult[core.ActionResponse]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := gocommand.Dispatch(ctx, msgcommand.DispatchActionMessage{
		Request: core.ActionRequest{
			Action:      "send_message",
			Parameters:  map[string]any{"to": "+15550001111", "body": map[string]any{"text": "hi"}},
			TriggerKind: core.TriggerGateway,
		},
	}); err != nil {
		t.Fatalf("dispatch through command bus: %v", err)
	}

	response, ok := collector.Load()
	if !ok {
		t.Fatalf("expected action response in result collector")
	}
	if response.Status != core.StatusOK {
		t.Fatalf("expected ok response, got %+v", response)
	}
	messageID, _ := response.Payload["messageId"].(string)
	if messageID == "" {
		t.Fatalf("expected message id in payload, got %+v", response.Payload)
	}

	if sent := gateway.Sent(); len(sent) != 1 || sent[0].Recipient != "+15550001111" {
		t.Fatalf("expected one gateway send, got %+v", sent)
	}
	record, err := store.Get(context.Background(), core.EntityKindDeliveryRecord, messageID)
	if err != nil {
		t.Fatalf("expected delivery record for %s: %v", messageID, err)
	}
	if record.CurrentState != core.DeliveryStateSent {
		t.Fatalf("expected sent state, got %q", record.CurrentState)
	}
}

type compatMessage struct{}

func (compatMessage) Type() string { return "messaging.compat.command" }

type compatEnqueuer struct {
	last *job.ExecutionMessage
}

func (e *compatEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	e.last = msg
	return queue.EnqueueReceipt{DispatchID: "compat-dispatch", EnqueuedAt: time.Now()}, nil
}

type compatProvider struct {
	logger glog.Logger
}

func (p *compatProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type compatLogger struct{}

func (compatLogger) Trace(string, ...any)                    {}
func (compatLogger) Debug(string, ...any)                    {}
func (compatLogger) Info(string, ...any)                     {}
func (compatLogger) Warn(string, ...any)                     {}
func (compatLogger) Error(string, ...any)                    {}
func (compatLogger) Fatal(string, ...any)                    {}
func (compatLogger) WithContext(context.Context) glog.Logger { return compatLogger{} }
