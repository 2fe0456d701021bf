package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandbox-pool/infra/packages/api/internal/lifecycle"
	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/api/internal/store/memory"
)

func TestMembership(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(memory.NewBackend())

	team, err := registry.Create(t.Context(), "platform", "Owner@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", team.Owner)
	assert.True(t, team.IsOwner(" OWNER@example.com"))
	assert.False(t, team.IsOwner("dev@example.com"))

	member, err := registry.IsMember(t.Context(), team.ID, "owner@example.com")
	require.NoError(t, err)
	assert.True(t, member)

	team, err = registry.AddMember(t.Context(), team.ID, "dev@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev@example.com"}, team.Members)

	// Adding twice is a no-op.
	team, err = registry.AddMember(t.Context(), team.ID, "DEV@example.com")
	require.NoError(t, err)
	assert.Len(t, team.Members, 1)

	member, err = registry.IsMember(t.Context(), team.ID, "dev@example.com")
	require.NoError(t, err)
	assert.True(t, member)

	team, err = registry.RemoveMember(t.Context(), team.ID, "dev@example.com")
	require.NoError(t, err)
	assert.Empty(t, team.Members)

	member, err = registry.IsMember(t.Context(), team.ID, "dev@example.com")
	require.NoError(t, err)
	assert.False(t, member)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(memory.NewBackend())

	_, err := registry.Create(t.Context(), "", "owner@example.com")
	assert.True(t, lifecycle.IsValidation(err))

	_, err = registry.Create(t.Context(), "platform", " ")
	assert.True(t, lifecycle.IsValidation(err))
}

func TestUnknownTeam(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(memory.NewBackend())

	_, err := registry.IsMember(t.Context(), "missing", "dev@example.com")
	assert.True(t, store.IsNotFound(err))

	_, err = registry.AddMember(t.Context(), "missing", "dev@example.com")
	assert.True(t, store.IsNotFound(err))
}
