package redis_test

import (
	"testing"

	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/store/redis"
	"github.com/sandbox-pool/infra/packages/api/internal/store/storetest"
	redis_utils "github.com/sandbox-pool/infra/packages/shared/pkg/redis"
)

func TestBackend(t *testing.T) {
	t.Parallel()

	backend := redis.NewBackend(redis_utils.SetupInstance(t))

	storetest.Run(t, func(*testing.T) store.Backend {
		return backend
	})
}
