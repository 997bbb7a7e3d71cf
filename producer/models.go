// Package producer defines enrolled producer accounts.
package producer

import (
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/types"
)

// Producer is an account that paid the enrollment fee and may register
// products. Enrolled never reverts to false.
type Producer struct {
	types.Entity
	Account  id.AccountID `json:"account"`
	Name     string       `json:"name"`
	Enrolled bool         `json:"enrolled"`
}
