// Package deposit defines the escrow ledger that holds product stock
// between registration and retail.
package deposit

import (
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/types"
)

// Settings is the process-wide deposit configuration.
type Settings struct {
	FeePerUnit types.Money `json:"fee_per_unit"`
	MaxStock   int64       `json:"max_stock"`
}

// Due returns the fee owed for depositing quantity units, or false when the
// amount does not fit in an int64.
func (s Settings) Due(quantity int64) (types.Money, bool) {
	return s.FeePerUnit.MultiplyChecked(quantity)
}

// Record is the escrow balance of one product. Stock always equals
// Deposited - Withdrawn - Transferred.
type Record struct {
	ProductID   product.ID `json:"product_id"`
	Stock       int64      `json:"stock"`
	Deposited   int64      `json:"deposited"`
	Withdrawn   int64      `json:"withdrawn"`
	Transferred int64      `json:"transferred"`
}

// Authorization names the retail store a producer allows to pull stock out
// of escrow. A producer has at most one at a time.
type Authorization struct {
	types.Entity
	Producer id.AccountID `json:"producer"`
	Store    id.StoreID   `json:"store"`
}
