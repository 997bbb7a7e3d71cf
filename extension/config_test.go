package extension

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/id"
	"github.com/xraph/provenance/store/memory"
	"github.com/xraph/provenance/types"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{MaxStock: 10})
	assert.Equal(t, DriverMemory, cfg.Driver)
	assert.Equal(t, 5*time.Second, cfg.PluginTimeout)
	assert.Equal(t, int64(10), cfg.MaxStock)
}

func TestMergeConfigurationsPrefersFile(t *testing.T) {
	file := Config{Driver: DriverPostgres, MaxStock: 500}
	programmatic := Config{
		Driver:         DriverSQLite,
		DisableMigrate: true,
		Admin:          "acct_01h2xcejqtf2nbrexx3vqjhp41",
		MaxStock:       10,
		EnrollmentFee:  100,
	}

	cfg := mergeConfigurations(file, programmatic)
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, int64(500), cfg.MaxStock)
	assert.True(t, cfg.DisableMigrate)
	assert.Equal(t, programmatic.Admin, cfg.Admin)
	assert.Equal(t, int64(100), cfg.EnrollmentFee)
	assert.Equal(t, 5*time.Second, cfg.PluginTimeout)
}

func TestOpenStore(t *testing.T) {
	s, err := openStore("", nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	_, err = openStore(DriverPostgres, nil)
	assert.Error(t, err)

	_, err = openStore("cassandra", nil)
	assert.Error(t, err)
}

func TestBuildEngineOptsSeedsSettings(t *testing.T) {
	ctx := context.Background()
	admin := id.NewAccountID()

	e := New(WithConfig(Config{
		Admin:             admin.String(),
		EnrollmentFee:     100,
		DepositFeePerUnit: 2,
		MaxStock:          50,
	}))
	opts, err := e.buildEngineOpts()
	require.NoError(t, err)

	eng := provenance.New(memory.New(), opts...)
	require.NoError(t, eng.Start(ctx))
	defer eng.Stop()

	st, err := eng.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, st.Admin.Equal(admin))
	assert.Equal(t, types.Native(100), st.EnrollmentFee)
	assert.Equal(t, types.Native(2), st.Deposit.FeePerUnit)
	assert.Equal(t, int64(50), st.Deposit.MaxStock)
}

func TestBuildEngineOptsRejectsBadAdmin(t *testing.T) {
	e := New(WithAdmin("not-an-account"))
	_, err := e.buildEngineOpts()
	assert.Error(t, err)
}
