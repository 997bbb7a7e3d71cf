package deposit

import (
	"context"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/product"
)

type Store interface {
	// Get returns a zero Record for products that never held stock.
	Get(ctx context.Context, productID product.ID) (*Record, error)
	// Add credits quantity units unless the result would exceed capacity.
	Add(ctx context.Context, productID product.ID, quantity, capacity int64) (*Record, error)
	// Remove debits quantity units unless stock is lower than quantity.
	Remove(ctx context.Context, productID product.ID, quantity int64) (*Record, error)
	SetAuthorization(ctx context.Context, a *Authorization) error
	GetAuthorization(ctx context.Context, producer id.AccountID) (*Authorization, error)
}
