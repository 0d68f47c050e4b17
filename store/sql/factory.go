package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-messaging-core/core"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	entityStore *EntityStore
	kvStore     *KeyValueStore
	eventLedger *WebhookEventLedger
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.entityStore != nil && f.kvStore != nil && f.eventLedger != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) EntityStore() core.EntityStore {
	if f == nil {
		return nil
	}
	return f.entityStore
}

func (f *RepositoryFactory) KeyValueStore() core.KeyValueStore {
	if f == nil {
		return nil
	}
	return f.kvStore
}

func (f *RepositoryFactory) WebhookEventLedger() core.WebhookEventLedger {
	if f == nil {
		return nil
	}
	return f.eventLedger
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	entityStore, err := NewEntityStore(f.db)
	if err != nil {
		return err
	}
	f.entityStore = entityStore

	kvStore, err := NewKeyValueStore(f.db)
	if err != nil {
		return err
	}
	f.kvStore = kvStore

	eventLedger, err := NewWebhookEventLedger(f.db)
	if err != nil {
		return err
	}
	f.eventLedger = eventLedger

	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
