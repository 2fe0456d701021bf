package globalconfig

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/testhelpers/ldtestdata"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featureflags "github.com/sandbox-pool/infra/packages/shared/pkg/feature-flags"
)

var defaults = GlobalConfig{
	ManagedRegions:                       []string{"us-east-1"},
	MaxLeasesPerUser:                     1,
	MaxBudget:                            decimal.NewFromInt(1000),
	MaxDurationHours:                     720,
	CleanupNumSuccessfulAttemptsToFinish: 2,
	CleanupNumFailedAttemptsToAbort:      3,
}

func TestFlagProviderFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	client, err := featureflags.NewClient("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(t.Context()) })

	cfg, err := NewFlagProvider(client, defaults).Get(t.Context())
	require.NoError(t, err)

	assert.False(t, cfg.MaintenanceMode)
	assert.Equal(t, []string{"us-east-1"}, cfg.ManagedRegions)
	assert.Equal(t, 1, cfg.MaxLeasesPerUser)
	assert.True(t, cfg.MaxBudget.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 720, cfg.MaxDurationHours)
	assert.Equal(t, 3, cfg.CleanupNumFailedAttemptsToAbort)
}

func TestFlagProviderReadsFreshValues(t *testing.T) {
	t.Parallel()

	td := ldtestdata.DataSource()
	client, err := featureflags.NewClient("", td)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(t.Context()) })

	provider := NewFlagProvider(client, defaults)

	td.Update(td.Flag(featureflags.MaintenanceModeFlagName).VariationForAll(true))
	td.Update(td.Flag(featureflags.UnfreezeEnabledFlagName).VariationForAll(true))
	td.Update(td.Flag(featureflags.MaxBudgetFlagName).ValueForAll(ldvalue.String("250.50")))
	td.Update(td.Flag(featureflags.ManagedRegionsFlagName).ValueForAll(ldvalue.ArrayOf(ldvalue.String("eu-west-1"), ldvalue.String("us-west-2"))))

	cfg, err := provider.Get(t.Context())
	require.NoError(t, err)
	assert.True(t, cfg.MaintenanceMode)
	assert.True(t, cfg.UnfreezeEnabled)
	assert.True(t, cfg.MaxBudget.Equal(decimal.RequireFromString("250.5")))
	assert.Equal(t, []string{"eu-west-1", "us-west-2"}, cfg.ManagedRegions)

	td.Update(td.Flag(featureflags.MaintenanceModeFlagName).VariationForAll(false))

	cfg, err = provider.Get(t.Context())
	require.NoError(t, err)
	assert.False(t, cfg.MaintenanceMode)
}

func TestFlagProviderRejectsMalformedBudget(t *testing.T) {
	t.Parallel()

	td := ldtestdata.DataSource()
	client, err := featureflags.NewClient("", td)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(t.Context()) })

	td.Update(td.Flag(featureflags.MaxBudgetFlagName).ValueForAll(ldvalue.String("lots")))

	_, err = NewFlagProvider(client, defaults).Get(t.Context())
	require.Error(t, err)
}

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	provider := NewStaticProvider(defaults)
	provider.Update(func(cfg *GlobalConfig) {
		cfg.MaintenanceMode = true
	})

	cfg, err := provider.Get(t.Context())
	require.NoError(t, err)
	assert.True(t, cfg.MaintenanceMode)
	assert.Equal(t, 1, cfg.MaxLeasesPerUser)
}
