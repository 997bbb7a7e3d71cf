package provenance

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/types"
)

// OpenStore creates a retail store operated by the caller. The store has no
// price until SetPricePerUnit is called.
func (e *Engine) OpenStore(ctx context.Context) (*retail.Store, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	s := &retail.Store{
		Entity:       types.NewEntity(),
		ID:           id.NewStoreID(),
		Owner:        caller,
		PricePerUnit: types.Zero(e.channel.Denomination()),
	}
	err = e.execute(ctx, func(ctx context.Context) error {
		return e.store.CreateRetailStore(ctx, s)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("store opened",
		"store", s.ID.String(),
		"owner", caller.String(),
	)
	e.plugins.EmitStoreOpened(notify(ctx), s)

	return s, nil
}

// GetStore returns a retail store.
func (e *Engine) GetStore(ctx context.Context, storeID id.StoreID) (*retail.Store, error) {
	var s *retail.Store
	err := e.execute(ctx, func(ctx context.Context) error {
		var err error
		s, err = e.store.GetRetailStore(ctx, storeID)
		return err
	})
	return s, err
}

// SetPricePerUnit sets the price of every product the store sells.
// Store owner only; the price must be positive.
func (e *Engine) SetPricePerUnit(ctx context.Context, storeID id.StoreID, price types.Money) error {
	caller, err := callerOf(ctx)
	if err != nil {
		return err
	}

	return e.execute(ctx, func(ctx context.Context) error {
		s, err := e.ownedStore(ctx, storeID, caller)
		if err != nil {
			return err
		}
		if err := e.checkDenomination(price); err != nil {
			return err
		}
		if !price.IsPositive() {
			return invalid("price", "must be greater than zero")
		}

		s.PricePerUnit = price
		s.Touch()
		return e.store.UpdateRetailStore(ctx, s)
	})
}

// ReceiveFromDeposit pulls quantity units of a product from escrow onto the
// store's shelf. Store owner only; the store must be the one the product's
// producer authorized.
func (e *Engine) ReceiveFromDeposit(ctx context.Context, storeID id.StoreID, productID product.ID, quantity int64) (*retail.Shelf, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	var shelf *retail.Shelf
	err = e.execute(ctx, func(ctx context.Context) error {
		s, err := e.ownedStore(ctx, storeID, caller)
		if err != nil {
			return err
		}
		shelf, err = e.transferOut(ctx, productID, quantity, storeID)
		if err != nil {
			return err
		}
		shelf.PricePerUnit = s.PricePerUnit
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emitTransfer(ctx, shelf, quantity)
	return shelf, nil
}

// Shelf returns the store's stock of a product.
func (e *Engine) Shelf(ctx context.Context, storeID id.StoreID, productID product.ID) (*retail.Shelf, error) {
	var shelf *retail.Shelf
	err := e.execute(ctx, func(ctx context.Context) error {
		var err error
		shelf, _, err = e.shelf(ctx, storeID, productID)
		return err
	})
	return shelf, err
}

// IsAvailable reports whether the store has at least one unit of a product.
func (e *Engine) IsAvailable(ctx context.Context, storeID id.StoreID, productID product.ID) (bool, error) {
	shelf, err := e.Shelf(ctx, storeID, productID)
	if err != nil {
		return false, err
	}
	return shelf.Available(), nil
}

// IsAuthentic reports whether a product is registered in the catalog and
// the store ever received it from escrow.
func (e *Engine) IsAuthentic(ctx context.Context, storeID id.StoreID, productID product.ID) (bool, error) {
	var authentic bool
	err := e.execute(ctx, func(ctx context.Context) error {
		shelf, _, err := e.shelf(ctx, storeID, productID)
		if err != nil {
			return err
		}
		p, err := e.store.GetProduct(ctx, productID)
		if IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		authentic = p.Registered && shelf.Received > 0
		return nil
	})
	return authentic, err
}

// Buy sells one unit of a product to the caller at the store's price.
// offered is collected in full and retained by the store.
func (e *Engine) Buy(ctx context.Context, storeID id.StoreID, productID product.ID, offered types.Money) (*retail.Sale, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	var (
		sale *retail.Sale
		rcpt *payment.Receipt
	)
	err = e.execute(ctx, func(ctx context.Context) error {
		shelf, s, err := e.shelf(ctx, storeID, productID)
		if err != nil {
			return err
		}
		if !shelf.Available() || !s.Priced() {
			return fmt.Errorf("%w: product %d at store %s", ErrUnavailable, productID, storeID)
		}

		rcpt, err = e.collect(ctx, caller, storeID, offered, s.PricePerUnit)
		if err != nil {
			return err
		}
		if _, err := e.store.SellUnit(ctx, storeID, productID); err != nil {
			return e.refund(ctx, rcpt, err)
		}
		e.settle(ctx, rcpt)

		sale = &retail.Sale{
			ID:        id.NewSaleID(),
			StoreID:   storeID,
			ProductID: productID,
			Buyer:     caller,
			Price:     s.PricePerUnit,
			Paid:      rcpt.Amount,
			ReceiptID: rcpt.ID,
			SoldAt:    time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("unit sold",
		"store", storeID.String(),
		"product_id", uint64(productID),
		"buyer", caller.String(),
		"paid", sale.Paid.String(),
	)

	nctx := notify(ctx)
	e.plugins.EmitPaymentReceived(nctx, rcpt)
	e.plugins.EmitUnitSold(nctx, sale)

	return sale, nil
}

// ownedStore loads a store and checks that caller operates it.
func (e *Engine) ownedStore(ctx context.Context, storeID id.StoreID, caller id.AccountID) (*retail.Store, error) {
	s, err := e.store.GetRetailStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !s.OwnedBy(caller) {
		return nil, fmt.Errorf("%w: not the owner of store %s", ErrUnauthorized, storeID)
	}
	return s, nil
}

// shelf loads a store and its shelf for a product, with the store price
// filled in.
func (e *Engine) shelf(ctx context.Context, storeID id.StoreID, productID product.ID) (*retail.Shelf, *retail.Store, error) {
	s, err := e.store.GetRetailStore(ctx, storeID)
	if err != nil {
		return nil, nil, err
	}
	sh, err := e.store.GetShelf(ctx, storeID, productID)
	if err != nil {
		return nil, nil, err
	}
	sh.PricePerUnit = s.PricePerUnit
	return sh, s, nil
}
