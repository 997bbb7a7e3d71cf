package provenance

import "github.com/xraph/provenance/id"

// ID is the identifier type for accounts, stores, receipts and sales.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
