package sqlstore

import (
	"fmt"

	"github.com/uptrace/bun"
)

// StoreFactory builds the SQL-backed stores off one bun handle so the
// ledger, outbox, settlement, and metadata tables share a connection
// pool.
type StoreFactory struct {
	db *bun.DB

	balanceStore    *BalanceStore
	ownershipStore  *OwnershipStore
	outboxStore     *OutboxStore
	settlementStore *SettlementStore
	metadataStore   *MetadataStore
}

func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

func NewStoreFactoryFromDB(db *bun.DB) (*StoreFactory, error) {
	factory := NewStoreFactory()
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// BuildStores accepts either a *bun.DB or any persistence client
// exposing DB() *bun.DB, such as go-persistence-bun's Client.
func (f *StoreFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: store factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.balanceStore != nil {
		return nil
	}
	return f.initStores()
}

func (f *StoreFactory) initStores() error {
	balanceStore, err := NewBalanceStore(f.db)
	if err != nil {
		return err
	}
	f.balanceStore = balanceStore

	ownershipStore, err := NewOwnershipStore(f.db)
	if err != nil {
		return err
	}
	f.ownershipStore = ownershipStore

	outboxStore, err := NewOutboxStore(f.db)
	if err != nil {
		return err
	}
	f.outboxStore = outboxStore

	settlementStore, err := NewSettlementStore(f.db)
	if err != nil {
		return err
	}
	f.settlementStore = settlementStore

	metadataStore, err := NewMetadataStore(f.db)
	if err != nil {
		return err
	}
	f.metadataStore = metadataStore

	return nil
}

func (f *StoreFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *StoreFactory) BalanceStore() *BalanceStore {
	if f == nil {
		return nil
	}
	return f.balanceStore
}

func (f *StoreFactory) OwnershipStore() *OwnershipStore {
	if f == nil {
		return nil
	}
	return f.ownershipStore
}

func (f *StoreFactory) OutboxStore() *OutboxStore {
	if f == nil {
		return nil
	}
	return f.outboxStore
}

func (f *StoreFactory) SettlementStore() *SettlementStore {
	if f == nil {
		return nil
	}
	return f.settlementStore
}

func (f *StoreFactory) MetadataStore() *MetadataStore {
	if f == nil {
		return nil
	}
	return f.metadataStore
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
