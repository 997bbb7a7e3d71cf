package retail

import (
	"context"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/product"
)

type Repository interface {
	Create(ctx context.Context, s *Store) error
	Get(ctx context.Context, storeID id.StoreID) (*Store, error)
	Update(ctx context.Context, s *Store) error
	// GetShelf returns a zero Shelf for products the store never received.
	GetShelf(ctx context.Context, storeID id.StoreID, productID product.ID) (*Shelf, error)
	// SellUnit removes one unit from the shelf unless it is empty.
	SellUnit(ctx context.Context, storeID id.StoreID, productID product.ID) (*Shelf, error)
	// Transfer moves quantity units from escrow to the store in one step.
	Transfer(ctx context.Context, productID product.ID, storeID id.StoreID, quantity int64) (*Shelf, error)
}
