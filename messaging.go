package messaging

import "github.com/goliatone/go-messaging-core/core"

type Config = core.Config

type QualityConfig = core.QualityConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type ConfigProvider = core.ConfigProvider
type OptionsResolver = core.OptionsResolver
type ErrorFactory = core.ErrorFactory
type ErrorMapper = core.ErrorMapper
type Registry = core.Registry
type EntityStore = core.EntityStore
type KeyValueStore = core.KeyValueStore
type WebhookEventLedger = core.WebhookEventLedger
type MessagingGateway = core.MessagingGateway
type RepositoryStoreFactory = core.RepositoryStoreFactory
type StoreProvider = core.StoreProvider

type ActionRequest = core.ActionRequest
type ActionResponse = core.ActionResponse
type ActionDescriptor = core.ActionDescriptor
type InvocationContext = core.InvocationContext

type EntityKind = core.EntityKind
type EntityFilter = core.EntityFilter
type StatableEntity = core.StatableEntity
type WebhookEvent = core.WebhookEvent

type MessagePayload = core.MessagePayload
type MessageReceipt = core.MessageReceipt

var (
	WithLogger             = core.WithLogger
	WithLoggerProvider     = core.WithLoggerProvider
	WithMetricsRecorder    = core.WithMetricsRecorder
	WithErrorFactory       = core.WithErrorFactory
	WithErrorMapper        = core.WithErrorMapper
	WithPersistenceClient  = core.WithPersistenceClient
	WithRepositoryFactory  = core.WithRepositoryFactory
	WithConfigProvider     = core.WithConfigProvider
	WithOptionsResolver    = core.WithOptionsResolver
	WithRegistry           = core.WithRegistry
	WithEntityStore        = core.WithEntityStore
	WithKeyValueStore      = core.WithKeyValueStore
	WithWebhookEventLedger = core.WithWebhookEventLedger
	WithMessagingGateway   = core.WithMessagingGateway
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
