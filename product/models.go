// Package product defines catalog entries for registered products.
package product

import (
	"strconv"

	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/types"
)

// ID is a catalog-assigned product identifier. Ids start at 1 and are
// never reused; 0 never names a product.
type ID uint64

// String returns the decimal form of the id.
func (i ID) String() string { return strconv.FormatUint(uint64(i), 10) }

// Product is a catalog entry. Its fields never change after registration.
type Product struct {
	types.Entity
	ID          ID           `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Attribute   int64        `json:"attribute"`
	Producer    id.AccountID `json:"producer"`
	Registered  bool         `json:"registered"`
}

// OwnedBy reports whether account registered the product.
func (p *Product) OwnedBy(account id.AccountID) bool {
	return p.Producer.Equal(account)
}
