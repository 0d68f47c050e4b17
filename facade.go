package messaging

import (
	"fmt"

	msgcommand "github.com/goliatone/go-messaging-core/command"
	"github.com/goliatone/go-messaging-core/core"
	msgquery "github.com/goliatone/go-messaging-core/query"
)

// CommandQueryService is the surface the facade needs from a runtime. The
// Runtime type satisfies it; so does any service that exposes the same
// dispatch, ingest, status, and read operations.
type CommandQueryService interface {
	msgcommand.DispatchingService
	msgcommand.WebhookIngestingService
	msgcommand.StatusMutatingService
	msgcommand.QualityStatsService
	msgquery.EntityReader
	msgquery.EntityLister
}

type Commands struct {
	DispatchAction   *msgcommand.DispatchActionCommand
	IngestWebhook    *msgcommand.IngestWebhookCommand
	CreateEntity     *msgcommand.CreateEntityCommand
	TransitionEntity *msgcommand.TransitionEntityCommand
	RecomputeQuality *msgcommand.RecomputeQualityCommand
}

type Queries struct {
	GetEntity         *msgquery.GetEntityQuery
	ListEntities      *msgquery.ListEntitiesQuery
	DeliveryStats     *msgquery.DeliveryStatsQuery
	ListWebhookEvents *msgquery.ListWebhookEventsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	eventReader msgquery.WebhookEventReader
}

// WithWebhookEventReader overrides the ledger-backed reader used by the
// ListWebhookEvents query.
func WithWebhookEventReader(reader msgquery.WebhookEventReader) FacadeOption {
	return func(options *facadeOptions) {
		options.eventReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("messaging: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.eventReader
	if reader == nil {
		reader = resolveWebhookEventReader(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		DispatchAction:   msgcommand.NewDispatchActionCommand(service),
		IngestWebhook:    msgcommand.NewIngestWebhookCommand(service),
		CreateEntity:     msgcommand.NewCreateEntityCommand(service),
		TransitionEntity: msgcommand.NewTransitionEntityCommand(service),
		RecomputeQuality: msgcommand.NewRecomputeQualityCommand(service),
	}
	facade.queries = Queries{
		GetEntity:         msgquery.NewGetEntityQuery(service),
		ListEntities:      msgquery.NewListEntitiesQuery(service),
		DeliveryStats:     msgquery.NewDeliveryStatsQuery(service),
		ListWebhookEvents: msgquery.NewListWebhookEventsQuery(reader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*Runtime)(nil)

// resolveWebhookEventReader finds an audit-trail reader for the service. The
// entity lister and the event ledger both expose a List method with different
// shapes, so a runtime cannot implement both; the ledger carried in the
// service dependencies fills the gap.
func resolveWebhookEventReader(service CommandQueryService) msgquery.WebhookEventReader {
	if service == nil {
		return nil
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	deps := provider.Dependencies()
	if deps.WebhookLedger == nil {
		return nil
	}
	return deps.WebhookLedger
}
