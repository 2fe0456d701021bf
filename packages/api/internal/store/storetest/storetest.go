// Package storetest holds the behavior every store.Backend must share.
package storetest

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandbox-pool/infra/packages/api/internal/store"
)

type widget struct {
	Owner      string `json:"owner"`
	ID         string `json:"id"`
	Count      int    `json:"count"`
	store.Meta `json:"meta"`
}

func (w *widget) RecordKey() store.Key {
	return store.NewCompositeKey(w.Owner, w.ID)
}

func newWidget() *widget {
	return &widget{}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// Run exercises backend against the record store contract. newBackend may
// return the same backend for every call, each subtest uses its own namespace.
func Run(t *testing.T, newBackend func(t *testing.T) store.Backend) {
	t.Helper()

	newTable := func(t *testing.T, version int) (*store.Table[*widget], *clock) {
		t.Helper()

		c := &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
		table := store.NewTable(newBackend(t), "widgets-"+uuid.NewString(), version, newWidget, store.WithClock(c.Now))

		return table, c
	}

	t.Run("create and get", func(t *testing.T) {
		t.Parallel()

		table, c := newTable(t, 1)

		item := &widget{Owner: "alice", ID: "a", Count: 1}
		require.NoError(t, table.Create(t.Context(), item))

		got, err := table.Get(t.Context(), store.NewCompositeKey("alice", "a"))
		require.NoError(t, err)
		assert.Equal(t, 1, got.Count)
		assert.Equal(t, 1, got.SchemaVersion)
		assert.True(t, got.CreatedTime.Equal(c.Now()))
		assert.True(t, got.LastEditTime.Equal(c.Now()))
	})

	t.Run("create existing key fails", func(t *testing.T) {
		t.Parallel()

		table, _ := newTable(t, 1)

		require.NoError(t, table.Create(t.Context(), &widget{Owner: "alice", ID: "a"}))

		err := table.Create(t.Context(), &widget{Owner: "alice", ID: "a", Count: 5})
		require.Error(t, err)
		assert.True(t, store.IsAlreadyExists(err))

		got, err := table.Get(t.Context(), store.NewCompositeKey("alice", "a"))
		require.NoError(t, err)
		assert.Equal(t, 0, got.Count)
	})

	t.Run("get unknown item", func(t *testing.T) {
		t.Parallel()

		table, _ := newTable(t, 1)

		_, err := table.Get(t.Context(), store.NewCompositeKey("nobody", "x"))
		require.Error(t, err)
		assert.True(t, store.IsNotFound(err))
	})

	t.Run("put returns previous item", func(t *testing.T) {
		t.Parallel()

		table, _ := newTable(t, 1)

		previous, err := table.Put(t.Context(), &widget{Owner: "bob", ID: "b", Count: 1})
		require.NoError(t, err)
		assert.Nil(t, previous)

		previous, err = table.Put(t.Context(), &widget{Owner: "bob", ID: "b", Count: 2})
		require.NoError(t, err)
		require.NotNil(t, previous)
		assert.Equal(t, 1, previous.Count)

		got, err := table.Get(t.Context(), store.NewCompositeKey("bob", "b"))
		require.NoError(t, err)
		assert.Equal(t, 2, got.Count)
	})

	t.Run("version checked put", func(t *testing.T) {
		t.Parallel()

		table, c := newTable(t, 1)
		key := store.NewCompositeKey("carol", "c")

		require.NoError(t, table.Create(t.Context(), &widget{Owner: "carol", ID: "c"}))
		created := c.Now()

		read, err := table.Get(t.Context(), key)
		require.NoError(t, err)

		c.Advance(time.Minute)

		updated := *read
		updated.Count = 10
		require.NoError(t, table.PutWithVersionCheck(t.Context(), &updated, read))

		got, err := table.Get(t.Context(), key)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Count)
		assert.True(t, got.CreatedTime.Equal(created))
		assert.True(t, got.LastEditTime.Equal(created.Add(time.Minute)))

		stale := *read
		stale.Count = 20
		err = table.PutWithVersionCheck(t.Context(), &stale, read)
		require.Error(t, err)
		assert.True(t, store.IsConflict(err))

		got, err = table.Get(t.Context(), key)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Count)
	})

	t.Run("concurrent version checked writers have one winner", func(t *testing.T) {
		t.Parallel()

		table, _ := newTable(t, 1)
		key := store.NewCompositeKey("dave", "d")

		require.NoError(t, table.Create(t.Context(), &widget{Owner: "dave", ID: "d"}))

		read, err := table.Get(t.Context(), key)
		require.NoError(t, err)

		const writers = 8

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			wins      int
			conflicts int
		)

		for i := range writers {
			wg.Go(func() {
				next := *read
				next.Count = i + 1

				err := table.PutWithVersionCheck(t.Context(), &next, read)

				mu.Lock()
				defer mu.Unlock()

				switch {
				case err == nil:
					wins++
				case store.IsConflict(err):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			})
		}

		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, writers-1, conflicts)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		table, _ := newTable(t, 1)
		key := store.NewCompositeKey("erin", "e")

		require.NoError(t, table.Create(t.Context(), &widget{Owner: "erin", ID: "e"}))

		read, err := table.Get(t.Context(), key)
		require.NoError(t, err)

		require.NoError(t, table.Delete(t.Context(), key))

		_, err = table.Get(t.Context(), key)
		assert.True(t, store.IsNotFound(err))

		err = table.Delete(t.Context(), key)
		assert.True(t, store.IsNotFound(err))

		next := *read
		next.Count = 3
		err = table.PutWithVersionCheck(t.Context(), &next, read)
		assert.True(t, store.IsConflict(err))

		require.NoError(t, table.Create(t.Context(), &widget{Owner: "erin", ID: "e"}))
	})

	t.Run("version checked delete", func(t *testing.T) {
		t.Parallel()

		table, _ := newTable(t, 1)
		key := store.NewCompositeKey("gina", "g")

		require.NoError(t, table.Create(t.Context(), &widget{Owner: "gina", ID: "g"}))

		read, err := table.Get(t.Context(), key)
		require.NoError(t, err)

		next := *read
		next.Count = 1
		require.NoError(t, table.PutWithVersionCheck(t.Context(), &next, read))

		err = table.DeleteWithVersionCheck(t.Context(), read)
		assert.True(t, store.IsConflict(err))

		current, err := table.Get(t.Context(), key)
		require.NoError(t, err)
		require.NoError(t, table.DeleteWithVersionCheck(t.Context(), current))

		_, err = table.Get(t.Context(), key)
		assert.True(t, store.IsNotFound(err))
	})

	t.Run("schema version mismatch", func(t *testing.T) {
		t.Parallel()

		backend := newBackend(t)
		namespace := "widgets-" + uuid.NewString()
		v1 := store.NewTable(backend, namespace, 1, newWidget)
		v2 := store.NewTable(backend, namespace, 2, newWidget)

		require.NoError(t, v1.Create(t.Context(), &widget{Owner: "frank", ID: "f"}))

		_, err := v2.Get(t.Context(), store.NewCompositeKey("frank", "f"))
		require.Error(t, err)
		assert.True(t, store.IsSchemaMismatch(err))

		read, err := v1.Get(t.Context(), store.NewCompositeKey("frank", "f"))
		require.NoError(t, err)

		_, err = v2.Put(t.Context(), read)
		assert.True(t, store.IsSchemaMismatch(err))

		got, err := v1.Get(t.Context(), store.NewCompositeKey("frank", "f"))
		require.NoError(t, err)
		assert.Equal(t, 1, got.SchemaVersion)
	})

	t.Run("list pages in key order", func(t *testing.T) {
		t.Parallel()

		table, _ := newTable(t, 1)

		for i := range 7 {
			owner := "a"
			if i%2 == 1 {
				owner = "b"
			}

			require.NoError(t, table.Create(t.Context(), &widget{Owner: owner, ID: fmt.Sprintf("%02d", i), Count: i}))
		}

		var (
			seen  []string
			token *string
			pages int
		)

		for {
			page, err := table.List(t.Context(), store.ListOptions[*widget]{PageIdentifier: token, PageSize: 3})
			require.NoError(t, err)

			pages++
			for _, item := range page.Items {
				seen = append(seen, item.RecordKey().String())
			}

			if page.NextPageIdentifier == nil {
				break
			}

			token = page.NextPageIdentifier
		}

		assert.Equal(t, 3, pages)
		assert.Equal(t, []string{"a/00", "a/02", "a/04", "a/06", "b/01", "b/03", "b/05"}, seen)
	})

	t.Run("list applies filter across pages", func(t *testing.T) {
		t.Parallel()

		table, _ := newTable(t, 1)

		for i := range 10 {
			require.NoError(t, table.Create(t.Context(), &widget{Owner: "g", ID: fmt.Sprintf("%02d", i), Count: i}))
		}

		even := func(w *widget) bool { return w.Count%2 == 0 }

		page, err := table.List(t.Context(), store.ListOptions[*widget]{PageSize: 2, Filter: even})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, 0, page.Items[0].Count)
		assert.Equal(t, 2, page.Items[1].Count)
		require.NotNil(t, page.NextPageIdentifier)

		all, err := table.ListAll(t.Context(), even)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("invalid page identifier", func(t *testing.T) {
		t.Parallel()

		table, _ := newTable(t, 1)

		token := "not base64 !"
		_, err := table.List(t.Context(), store.ListOptions[*widget]{PageIdentifier: &token})
		require.ErrorIs(t, err, store.ErrInvalidPageIdentifier)
	})
}
