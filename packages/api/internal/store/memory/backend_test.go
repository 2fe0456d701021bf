package memory_test

import (
	"testing"

	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/store/memory"
	"github.com/sandbox-pool/infra/packages/api/internal/store/storetest"
)

func TestBackend(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(*testing.T) store.Backend {
		return memory.NewBackend()
	})
}
