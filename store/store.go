// Package store defines the persistence contract implemented by the memory,
// postgres, sqlite and mongo backends.
package store

import (
	"context"

	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/producer"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
)

// Store is the unified storage interface for all provenance entities.
// Methods are declared explicitly rather than by embedding the per-package
// interfaces because their names collide (Create, Get, List).
//
// Stock mutations (AddDepositStock, RemoveDepositStock, TransferStock,
// SellUnit) must each be atomic: either the whole change is applied or the
// store is left untouched and the matching sentinel error is returned.
type Store interface {
	// Settings methods
	GetSettings(ctx context.Context) (*settings.Settings, error)
	SaveSettings(ctx context.Context, s *settings.Settings) error

	// Producer methods
	CreateProducer(ctx context.Context, p *producer.Producer) error
	GetProducer(ctx context.Context, account id.AccountID) (*producer.Producer, error)
	ListProducers(ctx context.Context, opts producer.ListOpts) ([]*producer.Producer, error)

	// Product methods
	CreateProduct(ctx context.Context, p *product.Product) error
	GetProduct(ctx context.Context, productID product.ID) (*product.Product, error)
	ListProducts(ctx context.Context, opts product.ListOpts) ([]*product.Product, error)

	// Deposit methods
	GetDeposit(ctx context.Context, productID product.ID) (*deposit.Record, error)
	AddDepositStock(ctx context.Context, productID product.ID, quantity, capacity int64) (*deposit.Record, error)
	RemoveDepositStock(ctx context.Context, productID product.ID, quantity int64) (*deposit.Record, error)
	SetAuthorizedStore(ctx context.Context, a *deposit.Authorization) error
	GetAuthorizedStore(ctx context.Context, producer id.AccountID) (*deposit.Authorization, error)

	// Retail methods
	CreateRetailStore(ctx context.Context, s *retail.Store) error
	GetRetailStore(ctx context.Context, storeID id.StoreID) (*retail.Store, error)
	UpdateRetailStore(ctx context.Context, s *retail.Store) error
	GetShelf(ctx context.Context, storeID id.StoreID, productID product.ID) (*retail.Shelf, error)
	SellUnit(ctx context.Context, storeID id.StoreID, productID product.ID) (*retail.Shelf, error)
	TransferStock(ctx context.Context, productID product.ID, storeID id.StoreID, quantity int64) (*retail.Shelf, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
