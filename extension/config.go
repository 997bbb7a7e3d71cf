package extension

import "time"

// Store drivers understood by the extension.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds the Provenance extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.provenance" or "provenance" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Driver selects the store backend: memory, postgres, sqlite or mongo
	// (default: memory). Every driver other than memory needs a grove.DB
	// supplied with WithGroveDB.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// Admin is the administrator account used when the store holds no
	// settings yet, e.g. "acct_01h2xcejqtf2nbrexx3vqjhp41".
	Admin string `json:"admin" mapstructure:"admin" yaml:"admin"`

	// EnrollmentFee is the initial enrollment fee in the smallest unit of
	// the payment channel's denomination.
	EnrollmentFee int64 `json:"enrollment_fee" mapstructure:"enrollment_fee" yaml:"enrollment_fee"`

	// DepositFeePerUnit is the initial fee per deposited unit.
	DepositFeePerUnit int64 `json:"deposit_fee_per_unit" mapstructure:"deposit_fee_per_unit" yaml:"deposit_fee_per_unit"`

	// MaxStock is the initial escrow capacity per product.
	MaxStock int64 `json:"max_stock" mapstructure:"max_stock" yaml:"max_stock"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:        DriverMemory,
		PluginTimeout: 5 * time.Second,
	}
}
