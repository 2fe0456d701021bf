package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandbox-pool/infra/packages/api/internal/store"
)

func TestPageIdentifierRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  store.Key
	}{
		{name: "partition only", key: store.NewKey("123456789012")},
		{name: "composite", key: store.NewCompositeKey("jane@example.com", "0b5e3a6c-3f4e-4d7e-9a43-1c9a5e4e2f10")},
		{name: "special characters", key: store.NewCompositeKey("a/b+c=d", "x y\tz")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token := store.EncodePageIdentifier(&tt.key)
			require.NotNil(t, token)
			assert.NotContains(t, *token, "=")

			decoded, err := store.DecodePageIdentifier(token)
			require.NoError(t, err)
			require.NotNil(t, decoded)
			assert.Equal(t, tt.key, *decoded)
		})
	}
}

func TestPageIdentifierAbsent(t *testing.T) {
	t.Parallel()

	assert.Nil(t, store.EncodePageIdentifier(nil))

	key, err := store.DecodePageIdentifier(nil)
	require.NoError(t, err)
	assert.Nil(t, key)

	empty := ""
	key, err = store.DecodePageIdentifier(&empty)
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestPageIdentifierInvalid(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"%%%", "bm90LWpzb24", "e30"} {
		_, err := store.DecodePageIdentifier(&token)
		require.ErrorIs(t, err, store.ErrInvalidPageIdentifier, token)
	}
}

func TestKeyOrderingMatchesEncoding(t *testing.T) {
	t.Parallel()

	keys := []store.Key{
		store.NewCompositeKey("a", "z"),
		store.NewCompositeKey("ab", ""),
		store.NewCompositeKey("ab", "a"),
		store.NewKey("b"),
	}

	for i := range len(keys) - 1 {
		assert.True(t, keys[i].Less(keys[i+1]))
		assert.Less(t, keys[i].Encoded(), keys[i+1].Encoded())
	}

	decoded, err := store.DecodeKey(keys[0].Encoded())
	require.NoError(t, err)
	assert.Equal(t, keys[0], decoded)
}
