package cfg

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		removeEnv(t, "STORE_BACKEND")
		removeEnv(t, "SWEEP_INTERVAL")

		config, err := Parse()
		require.NoError(t, err)

		assert.Equal(t, StoreMemory, config.StoreBackend)
		assert.Equal(t, 5*time.Minute, config.SweepInterval)
		assert.Equal(t, "lifecycle-events", config.EventStreamName)

		defaults, err := config.Defaults.GlobalConfig()
		require.NoError(t, err)
		assert.True(t, defaults.RequireMaxSpend)
		assert.True(t, defaults.MaxBudget.Equal(decimal.Zero))
		assert.Equal(t, []string{"us-east-1"}, defaults.ManagedRegions)
	})

	t.Run("redis backend needs a url", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "redis")
		removeEnv(t, "REDIS_URL")
		removeEnv(t, "REDIS_CLUSTER_URL")

		_, err := Parse()
		assert.ErrorContains(t, err, "requires REDIS_URL or REDIS_CLUSTER_URL")
	})

	t.Run("postgres backend needs a connection string", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")
		t.Setenv("POSTGRES_CONNECTION_STRING", "")

		_, err := Parse()
		assert.ErrorContains(t, err, "requires POSTGRES_CONNECTION_STRING")
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "dynamo")

		_, err := Parse()
		assert.ErrorContains(t, err, `unknown STORE_BACKEND "dynamo"`)
	})

	t.Run("malformed default budget", func(t *testing.T) {
		removeEnv(t, "STORE_BACKEND")
		t.Setenv("DEFAULT_MAX_BUDGET", "lots")

		_, err := Parse()
		assert.ErrorContains(t, err, "DEFAULT_MAX_BUDGET is not a decimal")
	})

	t.Run("sweep interval must be positive", func(t *testing.T) {
		removeEnv(t, "STORE_BACKEND")
		t.Setenv("SWEEP_INTERVAL", "0s")

		_, err := Parse()
		assert.ErrorContains(t, err, "SWEEP_INTERVAL must be positive")
	})
}

// removeEnv was mostly copied from the implementation of t.Setenv
func removeEnv(t *testing.T, key string) {
	t.Helper()

	prevValue, ok := os.LookupEnv(key)

	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("cannot unset environment variable: %v", err)
	}

	if ok {
		t.Cleanup(func() {
			os.Setenv(key, prevValue)
		})
	} else {
		t.Cleanup(func() {
			os.Unsetenv(key)
		})
	}
}
