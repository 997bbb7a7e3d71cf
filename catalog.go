package provenance

import (
	"context"
	"strings"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/types"
)

// Register adds a product to the catalog on behalf of the calling producer
// and returns its id. Ids are assigned sequentially from 1.
func (e *Engine) Register(ctx context.Context, name, description string, attribute int64) (product.ID, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return 0, err
	}

	var p *product.Product
	err = e.execute(ctx, func(ctx context.Context) error {
		enrolled, err := e.isProducer(ctx, caller)
		if err != nil {
			return err
		}
		if !enrolled {
			return ErrUnauthorized
		}
		if strings.TrimSpace(name) == "" {
			return invalid("name", "must not be empty")
		}

		p = &product.Product{
			Entity:      types.NewEntity(),
			Name:        name,
			Description: description,
			Attribute:   attribute,
			Producer:    caller,
			Registered:  true,
		}
		return e.store.CreateProduct(ctx, p)
	})
	if err != nil {
		return 0, err
	}

	e.logger.Debug("product registered",
		"product_id", uint64(p.ID),
		"producer", caller.String(),
	)
	e.plugins.EmitProductRegistered(notify(ctx), p)

	return p.ID, nil
}

// GetProduct returns a registered product.
func (e *Engine) GetProduct(ctx context.Context, productID product.ID) (*product.Product, error) {
	var p *product.Product
	err := e.execute(ctx, func(ctx context.Context) error {
		var err error
		p, err = e.store.GetProduct(ctx, productID)
		return err
	})
	return p, err
}

// ProducerOf returns the account that registered a product.
func (e *Engine) ProducerOf(ctx context.Context, productID product.ID) (id.AccountID, error) {
	p, err := e.GetProduct(ctx, productID)
	if err != nil {
		return id.Nil, err
	}
	return p.Producer, nil
}

// ListProducts lists registered products in id order.
func (e *Engine) ListProducts(ctx context.Context, opts product.ListOpts) ([]*product.Product, error) {
	var list []*product.Product
	err := e.execute(ctx, func(ctx context.Context) error {
		var err error
		list, err = e.store.ListProducts(ctx, opts)
		return err
	})
	return list, err
}
