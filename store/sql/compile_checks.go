package sqlstore

import "github.com/goliatone/go-messaging-core/core"

var (
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.EntityStore            = (*EntityStore)(nil)
	_ core.EntityStore            = (*CachedEntityStore)(nil)
	_ core.KeyValueStore          = (*KeyValueStore)(nil)
	_ core.WebhookEventLedger     = (*WebhookEventLedger)(nil)
)
