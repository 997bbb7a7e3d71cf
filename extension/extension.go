// Package extension provides the Forge extension adapter for Provenance.
//
// It implements the forge.Extension interface to integrate the provenance
// engine into a Forge application with store selection, DI registration,
// and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.provenance" or
// "provenance" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/deposit"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/settings"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/store/memory"
	"github.com/xraph/provenance/store/mongo"
	"github.com/xraph/provenance/store/postgres"
	"github.com/xraph/provenance/store/sqlite"
	"github.com/xraph/provenance/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "provenance"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Supply-chain stock ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Provenance as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *provenance.Engine
	store      store.Store
	groveDB    *grove.DB
	engineOpts []provenance.Option
}

// New creates a new Provenance Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying provenance engine.
// This is nil until Register is called.
func (e *Extension) Engine() *provenance.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := openStore(e.config.Driver, e.groveDB)
		if err != nil {
			return err
		}
		e.store = s
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	eng := provenance.New(e.store, opts...)
	if e.config.PluginTimeout > 0 {
		eng.Plugins().WithTimeout(e.config.PluginTimeout)
	}
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*provenance.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("provenance: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("provenance: store not initialized")
	}
	return e.store.Ping(ctx)
}

// openStore constructs the store for driver on db.
func openStore(driver string, db *grove.DB) (store.Store, error) {
	if driver == "" || driver == DriverMemory {
		return memory.New(), nil
	}
	if db == nil {
		return nil, fmt.Errorf("provenance: driver %q needs a grove database (use WithGroveDB)", driver)
	}

	switch driver {
	case DriverPostgres:
		return postgres.New(db), nil
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverMongo:
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("provenance: unknown store driver %q", driver)
	}
}

// buildEngineOpts constructs provenance.Option values from the resolved config.
// Pass-through engine options are applied last and win.
func (e *Extension) buildEngineOpts() ([]provenance.Option, error) {
	opts := make([]provenance.Option, 0, len(e.engineOpts)+3)

	if e.config.Admin != "" {
		admin, err := id.ParseAccountID(e.config.Admin)
		if err != nil {
			return nil, fmt.Errorf("provenance: admin: %w", err)
		}
		opts = append(opts, provenance.WithAdmin(admin))
	}

	opts = append(opts, provenance.WithSettings(settings.Settings{
		EnrollmentFee: types.Money{Amount: e.config.EnrollmentFee},
		Deposit: deposit.Settings{
			FeePerUnit: types.Money{Amount: e.config.DepositFeePerUnit},
			MaxStock:   e.config.MaxStock,
		},
	}))

	if e.config.DisableMigrate {
		opts = append(opts, provenance.WithoutMigrate())
	}

	opts = append(opts, e.engineOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("provenance: configuration is required but not found in config files; " +
				"ensure 'extensions.provenance' or 'provenance' key exists in your config")
		}

		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("provenance: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("driver", e.config.Driver),
		forge.F("admin", e.config.Admin),
		forge.F("enrollment_fee", e.config.EnrollmentFee),
		forge.F("deposit_fee_per_unit", e.config.DepositFeePerUnit),
		forge.F("max_stock", e.config.MaxStock),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.provenance", "provenance"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("provenance: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("provenance: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.Driver == "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}
	if yamlConfig.Admin == "" {
		yamlConfig.Admin = programmaticConfig.Admin
	}

	if yamlConfig.EnrollmentFee == 0 {
		yamlConfig.EnrollmentFee = programmaticConfig.EnrollmentFee
	}
	if yamlConfig.DepositFeePerUnit == 0 {
		yamlConfig.DepositFeePerUnit = programmaticConfig.DepositFeePerUnit
	}
	if yamlConfig.MaxStock == 0 {
		yamlConfig.MaxStock = programmaticConfig.MaxStock
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	return mergeWithDefaults(yamlConfig)
}
