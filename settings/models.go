// Package settings defines the process-wide administration record.
package settings

import (
	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/types"
)

// Settings holds the administrator, the holding accounts that retain
// collected fees and the configurable fees and capacity.
type Settings struct {
	types.Entity
	Admin           id.AccountID     `json:"admin"`
	RegistryAccount id.AccountID     `json:"registry_account"`
	DepositAccount  id.AccountID     `json:"deposit_account"`
	EnrollmentFee   types.Money      `json:"enrollment_fee"`
	Deposit         deposit.Settings `json:"deposit"`
}

// IsAdmin reports whether account administers the ledger.
func (s *Settings) IsAdmin(account id.AccountID) bool {
	return !account.IsNil() && s.Admin.Equal(account)
}
