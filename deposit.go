package provenance

import (
	"context"
	"fmt"

	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/payment"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/retail"
	"github.com/xraph/provenance/settings"
	"github.com/xraph/provenance/types"
)

// SetDepositFeePerUnit sets the fee charged per deposited unit.
// Administrator only.
func (e *Engine) SetDepositFeePerUnit(ctx context.Context, fee types.Money) error {
	return e.updateSettings(ctx, "deposit_fee_per_unit", func(st *settings.Settings) error {
		if err := e.checkDenomination(fee); err != nil {
			return err
		}
		st.Deposit.FeePerUnit = fee
		return nil
	})
}

// SetMaxStock sets the escrow capacity per product. Administrator only.
// Lowering it below a product's current stock blocks further deposits of
// that product without touching the stock.
func (e *Engine) SetMaxStock(ctx context.Context, capacity int64) error {
	return e.updateSettings(ctx, "max_stock", func(st *settings.Settings) error {
		if capacity < 0 {
			return invalid("max_stock", "must not be negative")
		}
		st.Deposit.MaxStock = capacity
		return nil
	})
}

// DepositSettings returns the deposit fee and capacity.
func (e *Engine) DepositSettings(ctx context.Context) (deposit.Settings, error) {
	var ds deposit.Settings
	err := e.execute(ctx, func(context.Context) error {
		ds = e.settings.Deposit
		return nil
	})
	return ds, err
}

// Deposit places quantity units of a product in escrow. Any caller may
// deposit. quantity times the fee per unit is collected from offered and
// retained by the deposit holding account.
func (e *Engine) Deposit(ctx context.Context, productID product.ID, quantity int64, offered types.Money) (*deposit.Record, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	var (
		rec  *deposit.Record
		rcpt *payment.Receipt
	)
	err = e.execute(ctx, func(ctx context.Context) error {
		if quantity <= 0 {
			return invalid("quantity", "must be greater than zero")
		}
		if _, err := e.store.GetProduct(ctx, productID); err != nil {
			return err
		}

		ds := e.settings.Deposit
		due, ok := ds.Due(quantity)
		if !ok {
			return invalid("quantity", "deposit fee overflows")
		}

		var err error
		rcpt, err = e.collect(ctx, caller, e.settings.DepositAccount, offered, due)
		if err != nil {
			return err
		}

		rec, err = e.store.AddDepositStock(ctx, productID, quantity, ds.MaxStock)
		if err != nil {
			return e.refund(ctx, rcpt, err)
		}
		e.settle(ctx, rcpt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("stock deposited",
		"product_id", uint64(productID),
		"quantity", quantity,
		"stock", rec.Stock,
		"paid", rcpt.Amount.String(),
	)

	nctx := notify(ctx)
	e.plugins.EmitPaymentReceived(nctx, rcpt)
	e.plugins.EmitStockDeposited(nctx, rec, quantity)

	return rec, nil
}

// Withdraw takes quantity units of a product out of escrow. Only the
// product's producer may withdraw; deposit fees are not refunded.
func (e *Engine) Withdraw(ctx context.Context, productID product.ID, quantity int64) (*deposit.Record, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	var rec *deposit.Record
	err = e.execute(ctx, func(ctx context.Context) error {
		p, err := e.store.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !p.OwnedBy(caller) {
			return fmt.Errorf("%w: not the producer of product %d", ErrUnauthorized, productID)
		}
		if quantity <= 0 {
			return invalid("quantity", "must be greater than zero")
		}

		rec, err = e.store.RemoveDepositStock(ctx, productID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("stock withdrawn",
		"product_id", uint64(productID),
		"quantity", quantity,
		"stock", rec.Stock,
	)
	e.plugins.EmitStockWithdrawn(notify(ctx), rec, quantity)

	return rec, nil
}

// DepositRecord returns the escrow balance of a registered product.
func (e *Engine) DepositRecord(ctx context.Context, productID product.ID) (*deposit.Record, error) {
	var rec *deposit.Record
	err := e.execute(ctx, func(ctx context.Context) error {
		if _, err := e.store.GetProduct(ctx, productID); err != nil {
			return err
		}
		var err error
		rec, err = e.store.GetDeposit(ctx, productID)
		return err
	})
	return rec, err
}

// AuthorizeStore allows a retail store to pull the calling producer's
// products out of escrow. A producer authorizes one store at a time; a new
// call replaces the previous authorization.
func (e *Engine) AuthorizeStore(ctx context.Context, storeID id.StoreID) (*deposit.Authorization, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	var auth *deposit.Authorization
	err = e.execute(ctx, func(ctx context.Context) error {
		enrolled, err := e.isProducer(ctx, caller)
		if err != nil {
			return err
		}
		if !enrolled {
			return fmt.Errorf("%w: only producers can authorize stores", ErrUnauthorized)
		}
		if _, err := e.store.GetRetailStore(ctx, storeID); err != nil {
			return err
		}

		auth = &deposit.Authorization{
			Entity:   types.NewEntity(),
			Producer: caller,
			Store:    storeID,
		}
		return e.store.SetAuthorizedStore(ctx, auth)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("store authorized",
		"producer", caller.String(),
		"store", storeID.String(),
	)
	e.plugins.EmitStoreAuthorized(notify(ctx), auth)

	return auth, nil
}

// AuthorizedStore returns the store the calling producer has authorized.
func (e *Engine) AuthorizedStore(ctx context.Context) (*deposit.Authorization, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	var auth *deposit.Authorization
	err = e.execute(ctx, func(ctx context.Context) error {
		var err error
		auth, err = e.store.GetAuthorizedStore(ctx, caller)
		return err
	})
	return auth, err
}

// TransferOut moves quantity units of a product from escrow to the shelf
// of store to. The caller must be that store, and it must be the store the
// product's producer authorized.
func (e *Engine) TransferOut(ctx context.Context, productID product.ID, quantity int64, to id.StoreID) (*retail.Shelf, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	var shelf *retail.Shelf
	err = e.execute(ctx, func(ctx context.Context) error {
		if quantity > 0 && !caller.Equal(to) {
			return fmt.Errorf("%w: stock can only be transferred to the calling store", ErrUnauthorized)
		}
		var err error
		shelf, err = e.transferOut(ctx, productID, quantity, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emitTransfer(ctx, shelf, quantity)
	return shelf, nil
}

// transferOut runs inside the sequencer.
func (e *Engine) transferOut(ctx context.Context, productID product.ID, quantity int64, storeID id.StoreID) (*retail.Shelf, error) {
	if quantity <= 0 {
		return nil, invalid("quantity", "transfer amount must be greater than zero")
	}

	p, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	auth, err := e.store.GetAuthorizedStore(ctx, p.Producer)
	if IsNotFound(err) || (err == nil && !auth.Store.Equal(storeID)) {
		return nil, fmt.Errorf("%w: store %s is not authorized for product %d", ErrUnauthorized, storeID, productID)
	}
	if err != nil {
		return nil, err
	}

	return e.store.TransferStock(ctx, productID, storeID, quantity)
}

func (e *Engine) emitTransfer(ctx context.Context, shelf *retail.Shelf, quantity int64) {
	e.logger.Debug("stock transferred",
		"product_id", uint64(shelf.ProductID),
		"store", shelf.StoreID.String(),
		"quantity", quantity,
		"shelf_stock", shelf.Stock,
	)
	e.plugins.EmitStockTransferred(notify(ctx), shelf, quantity)
}
