package provenance

import (
	"github.com/xraph/provenance/product"
	"github.com/xraph/provenance/types"
)

// Money is re-exported from types package.
type Money = types.Money

// ProductID is re-exported from product package.
type ProductID = product.ID

// Re-export Money constructors
var (
	Native = types.Native
	Token  = types.Token
	Zero   = types.Zero
)
