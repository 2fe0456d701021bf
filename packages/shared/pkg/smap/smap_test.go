package smap

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_InsertIfAbsent(t *testing.T) {
	t.Parallel()

	m := New[int]()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			if m.InsertIfAbsent("key", i) {
				wins.Add(1)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 1, m.Count())
}

func TestMap_RemoveCb(t *testing.T) {
	t.Parallel()

	m := New[string]()
	m.Insert("a", "keep")
	m.Insert("b", "drop")

	removed := m.RemoveCb("a", func(_ string, v string, exists bool) bool {
		return exists && v == "drop"
	})
	assert.False(t, removed)

	removed = m.RemoveCb("b", func(_ string, v string, exists bool) bool {
		return exists && v == "drop"
	})
	assert.True(t, removed)

	keys := m.Keys()
	sort.Strings(keys)
	require.Equal(t, []string{"a"}, keys)
}

func TestMap_Upsert(t *testing.T) {
	t.Parallel()

	m := New[int]()
	for range 3 {
		m.Upsert("n", 1, func(exists bool, current int, n int) int {
			if !exists {
				return n
			}

			return current + n
		})
	}

	v, ok := m.Get("n")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}
