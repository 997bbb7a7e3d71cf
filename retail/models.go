// Package retail defines retail stores and the stock on their shelves.
package retail

import (
	"time"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/types"
)

// Store is a retail storefront. PricePerUnit applies to every product the
// store sells; a zero amount means no price has been set yet.
type Store struct {
	types.Entity
	ID           id.StoreID   `json:"id"`
	Owner        id.AccountID `json:"owner"`
	PricePerUnit types.Money  `json:"price_per_unit"`
}

// OwnedBy reports whether account operates the store.
func (s *Store) OwnedBy(account id.AccountID) bool {
	return s.Owner.Equal(account)
}

// Priced reports whether a positive unit price has been set.
func (s *Store) Priced() bool {
	return s.PricePerUnit.IsPositive()
}

// Shelf is the stock of one product held by one store. Stock always equals
// Received - Sold.
type Shelf struct {
	StoreID      id.StoreID  `json:"store_id"`
	ProductID    product.ID  `json:"product_id"`
	Stock        int64       `json:"stock"`
	Received     int64       `json:"received"`
	Sold         int64       `json:"sold"`
	PricePerUnit types.Money `json:"price_per_unit"`
}

// Available reports whether at least one unit can be sold.
func (s *Shelf) Available() bool { return s.Stock > 0 }

// Sale records one unit sold to a buyer.
type Sale struct {
	ID        id.SaleID    `json:"id"`
	StoreID   id.StoreID   `json:"store_id"`
	ProductID product.ID   `json:"product_id"`
	Buyer     id.AccountID `json:"buyer"`
	Price     types.Money  `json:"price"`
	Paid      types.Money  `json:"paid"`
	ReceiptID id.ReceiptID `json:"receipt_id"`
	SoldAt    time.Time    `json:"sold_at"`
}
