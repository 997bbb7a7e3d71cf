package product

import (
	"context"

	"github.com/xraph/provenance/id"
)

type Store interface {
	// Create assigns the next sequential id to p and persists it.
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, productID ID) (*Product, error)
	List(ctx context.Context, opts ListOpts) ([]*Product, error)
}

type ListOpts struct {
	Producer id.AccountID // zero value lists every producer
	Limit    int
	Offset   int
}
