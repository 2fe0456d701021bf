package feature_flags

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-server-sdk/v7/testhelpers/ldtestdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOfflineClient(t *testing.T) (*Client, *ldtestdata.TestDataSource) {
	t.Helper()

	td := ldtestdata.DataSource()
	client, err := NewClient("", td)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, client.Close(t.Context()))
	})

	return client, td
}

func TestOfflineDatastore(t *testing.T) {
	t.Parallel()

	client, td := newOfflineClient(t)
	flag := NewBoolFlag(MaintenanceModeFlagName, false)

	// value is not set so it should be the fallback
	assert.False(t, client.BoolFlag(t.Context(), flag))

	td.Update(td.Flag(MaintenanceModeFlagName).VariationForAll(true))

	assert.True(t, client.BoolFlag(t.Context(), flag))
}

func TestIntAndJSONFlags(t *testing.T) {
	t.Parallel()

	client, td := newOfflineClient(t)

	limit := NewIntFlag(MaxLeasesPerUserFlagName, 3)
	assert.Equal(t, 3, client.IntFlag(t.Context(), limit))

	td.Update(td.Flag(MaxLeasesPerUserFlagName).ValueForAll(ldvalue.Int(5)))
	assert.Equal(t, 5, client.IntFlag(t.Context(), limit))

	regions := NewJSONFlag(ManagedRegionsFlagName, ldvalue.ArrayOf(ldvalue.String("us-east-1")))
	assert.Equal(t, 1, client.JSONFlag(t.Context(), regions).Count())
}

func TestUserTargeting(t *testing.T) {
	t.Parallel()

	client, td := newOfflineClient(t)
	flag := NewBoolFlag(UnfreezeEnabledFlagName, false)

	td.Update(td.Flag(UnfreezeEnabledFlagName).
		VariationForAll(false).
		VariationForKey(UserKind, "admin@example.com", true))

	ctx := CreateContext(t.Context(), UserContext("admin@example.com"))
	assert.True(t, client.BoolFlag(ctx, flag))
	assert.False(t, client.BoolFlag(t.Context(), flag, UserContext("someone@example.com")))
}

func TestMergeContexts(t *testing.T) {
	t.Parallel()

	one := ldcontext.NewWithKind("one", "a")
	two := ldcontext.NewWithKind("two", "b")
	oneAgain := ldcontext.NewWithKind("one", "c")

	merged := mergeContexts([]ldcontext.Context{one, ldcontext.NewMulti(two, oneAgain)})
	require.True(t, merged.Multiple())

	byKind := merged.IndividualContextByKind("one")
	require.True(t, byKind.IsDefined())
	assert.Equal(t, "c", byKind.Key())
}
