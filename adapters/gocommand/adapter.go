package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	msgcommand "github.com/goliatone/go-messaging-core/command"
	msgquery "github.com/goliatone/go-messaging-core/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// MessagingHandlers bundles the services the command and query handlers sit on.
type MessagingHandlers struct {
	Dispatcher msgcommand.DispatchingService
	Ingestor   msgcommand.WebhookIngestingService
	Status     msgcommand.StatusMutatingService
	Stats      msgcommand.QualityStatsService
	Entities   msgquery.EntityReader
	Lister     msgquery.EntityLister
	Events     msgquery.WebhookEventReader
}

// SubscribeMessagingHandlers registers every messaging command and query onto
// the go-command bus. Nil dependencies skip their handlers, so a read-only
// deployment can wire queries alone. Returned subscriptions unsubscribe in
// reverse on any registration failure.
func SubscribeMessagingHandlers(
	adapter *RegistryAdapter,
	handlers MessagingHandlers,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}

	var subscriptions []commanddispatcher.Subscription
	rollback := func() {
		for i := len(subscriptions) - 1; i >= 0; i-- {
			subscriptions[i].Unsubscribe()
		}
	}
	track := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			rollback()
			return err
		}
		subscriptions = append(subscriptions, sub)
		return nil
	}

	if handlers.Dispatcher != nil {
		if err := track(RegisterAndSubscribe(adapter, msgcommand.NewDispatchActionCommand(handlers.Dispatcher), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.Ingestor != nil {
		if err := track(RegisterAndSubscribe(adapter, msgcommand.NewIngestWebhookCommand(handlers.Ingestor), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.Status != nil {
		if err := track(RegisterAndSubscribe(adapter, msgcommand.NewCreateEntityCommand(handlers.Status), runnerOpts...)); err != nil {
			return nil, err
		}
		if err := track(RegisterAndSubscribe(adapter, msgcommand.NewTransitionEntityCommand(handlers.Status), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.Stats != nil {
		if err := track(RegisterAndSubscribe(adapter, msgcommand.NewRecomputeQualityCommand(handlers.Stats), runnerOpts...)); err != nil {
			return nil, err
		}
		if err := track(RegisterAndSubscribeQuery(adapter, msgquery.NewDeliveryStatsQuery(handlers.Stats), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.Entities != nil {
		if err := track(RegisterAndSubscribeQuery(adapter, msgquery.NewGetEntityQuery(handlers.Entities), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.Lister != nil {
		if err := track(RegisterAndSubscribeQuery(adapter, msgquery.NewListEntitiesQuery(handlers.Lister), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	if handlers.Events != nil {
		if err := track(RegisterAndSubscribeQuery(adapter, msgquery.NewListWebhookEventsQuery(handlers.Events), runnerOpts...)); err != nil {
			return nil, err
		}
	}

	return subscriptions, nil
}
