package core

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// StoreProvider exposes the persistence-backed stores the core consumes.
type StoreProvider interface {
	EntityStore() EntityStore
	KeyValueStore() KeyValueStore
	WebhookEventLedger() WebhookEventLedger
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// OperationObserver records structured logs and metrics for a completed
// operation; Service is the canonical implementation.
type OperationObserver interface {
	ObserveOperation(ctx context.Context, startedAt time.Time, operation string, err error, fields map[string]any)
}

// Service is the dependency hub for the messaging core: resolved config,
// logging, metrics, the action registry, and the consumed store and gateway
// boundaries. It carries no per-request state.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	registry          Registry
	entityStore       EntityStore
	kvStore           KeyValueStore
	webhookLedger     WebhookEventLedger
	gateway           MessagingGateway
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	Registry          Registry
	EntityStore       EntityStore
	KeyValueStore     KeyValueStore
	WebhookLedger     WebhookEventLedger
	Gateway           MessagingGateway
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("messaging", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("messaging"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewActionRegistry()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	service := &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		registry:          builder.registry,
		entityStore:       builder.entityStore,
		kvStore:           builder.kvStore,
		webhookLedger:     builder.webhookLedger,
		gateway:           builder.gateway,
	}

	if err := service.resolveStores(); err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	return service, nil
}

// Setup is an alias for NewService kept for wiring symmetry with other
// goliatone modules.
func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func (s *Service) resolveStores() error {
	if s.entityStore != nil || s.repositoryFactory == nil {
		return nil
	}
	factory, ok := s.repositoryFactory.(RepositoryStoreFactory)
	if !ok {
		return fmt.Errorf("core: repository factory does not implement RepositoryStoreFactory")
	}
	stores, err := factory.BuildStores(s.persistenceClient)
	if err != nil {
		return err
	}
	if stores == nil {
		return fmt.Errorf("core: repository factory returned nil store provider")
	}
	s.entityStore = stores.EntityStore()
	if s.kvStore == nil {
		s.kvStore = stores.KeyValueStore()
	}
	if s.webhookLedger == nil {
		s.webhookLedger = stores.WebhookEventLedger()
	}
	return nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Registry() Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		Registry:          s.registry,
		EntityStore:       s.entityStore,
		KeyValueStore:     s.kvStore,
		WebhookLedger:     s.webhookLedger,
		Gateway:           s.gateway,
	}
}

// InvocationContext builds the shared dependency bundle handed to handlers.
// The status engine is attached by the caller once constructed; core cannot
// depend on the status package.
func (s *Service) InvocationContext(engine StatusEngine) *InvocationContext {
	if s == nil {
		return nil
	}
	return &InvocationContext{
		Entities: s.entityStore,
		KV:       s.kvStore,
		Gateway:  s.gateway,
		Status:   engine,
		Logger:   s.logger,
		Config:   s.config,
	}
}

func (s *Service) ObserveOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	s.observeOperation(ctx, startedAt, operation, err, fields)
}

func (s *Service) MapError(err error) error {
	if s == nil || s.errorMapper == nil {
		return err
	}
	if err == nil {
		return nil
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
