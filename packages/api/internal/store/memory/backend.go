// Package memory keeps records in process memory. It serves tests and
// single-replica local runs.
package memory

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/sandbox-pool/infra/packages/api/internal/store"
	"github.com/sandbox-pool/infra/packages/shared/pkg/smap"
)

const namespaceSeparator = "\x1e"

type entry struct {
	mu      sync.Mutex
	data    []byte
	deleted bool
}

func (e *entry) read() ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, false
	}

	return bytes.Clone(e.data), true
}

type Backend struct {
	items *smap.Map[*entry]
}

var _ store.Backend = (*Backend)(nil)

func NewBackend() *Backend {
	return &Backend{items: smap.New[*entry]()}
}

func itemKey(namespace string, key store.Key) string {
	return namespace + namespaceSeparator + key.Encoded()
}

func (b *Backend) Get(_ context.Context, namespace string, key store.Key) ([]byte, error) {
	item, ok := b.items.Get(itemKey(namespace, key))
	if !ok {
		return nil, &store.UnknownItemError{Namespace: namespace, Key: key}
	}

	data, ok := item.read()
	if !ok {
		return nil, &store.UnknownItemError{Namespace: namespace, Key: key}
	}

	return data, nil
}

func (b *Backend) Create(_ context.Context, namespace string, key store.Key, data []byte) error {
	if !b.items.InsertIfAbsent(itemKey(namespace, key), &entry{data: bytes.Clone(data)}) {
		return &store.ItemAlreadyExistsError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) Put(_ context.Context, namespace string, key store.Key, data []byte) ([]byte, error) {
	var previous []byte

	b.items.Upsert(itemKey(namespace, key), nil, func(exist bool, current *entry, _ *entry) *entry {
		if !exist {
			return &entry{data: bytes.Clone(data)}
		}

		current.mu.Lock()
		defer current.mu.Unlock()

		previous = current.data
		current.data = bytes.Clone(data)

		return current
	})

	return previous, nil
}

func (b *Backend) CompareAndSwap(_ context.Context, namespace string, key store.Key, expected, data []byte) error {
	item, ok := b.items.Get(itemKey(namespace, key))
	if !ok {
		return &store.ConcurrentDataModificationError{Namespace: namespace, Key: key}
	}

	item.mu.Lock()
	defer item.mu.Unlock()

	if item.deleted || !bytes.Equal(item.data, expected) {
		return &store.ConcurrentDataModificationError{Namespace: namespace, Key: key}
	}

	item.data = bytes.Clone(data)

	return nil
}

func (b *Backend) Delete(_ context.Context, namespace string, key store.Key) error {
	removed := b.items.RemoveCb(itemKey(namespace, key), func(_ string, item *entry, exists bool) bool {
		if !exists {
			return false
		}

		item.mu.Lock()
		item.deleted = true
		item.mu.Unlock()

		return true
	})
	if !removed {
		return &store.UnknownItemError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) CompareAndDelete(_ context.Context, namespace string, key store.Key, expected []byte) error {
	removed := b.items.RemoveCb(itemKey(namespace, key), func(_ string, item *entry, exists bool) bool {
		if !exists {
			return false
		}

		item.mu.Lock()
		defer item.mu.Unlock()

		if !bytes.Equal(item.data, expected) {
			return false
		}

		item.deleted = true

		return true
	})
	if !removed {
		return &store.ConcurrentDataModificationError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) Scan(_ context.Context, namespace string, after *store.Key, limit int) ([]store.RawItem, error) {
	prefix := namespace + namespaceSeparator

	type candidate struct {
		key   store.Key
		entry *entry
	}

	candidates := make([]candidate, 0)
	for k, item := range b.items.Items() {
		encoded, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}

		key, err := store.DecodeKey(encoded)
		if err != nil {
			return nil, err
		}

		if after != nil && !after.Less(key) {
			continue
		}

		candidates = append(candidates, candidate{key: key, entry: item})
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		return strings.Compare(a.key.Encoded(), b.key.Encoded())
	})

	items := make([]store.RawItem, 0, min(limit, len(candidates)))
	for _, c := range candidates {
		if len(items) == limit {
			break
		}

		data, ok := c.entry.read()
		if !ok {
			continue
		}

		items = append(items, store.RawItem{Key: c.key, Data: data})
	}

	return items, nil
}

func (b *Backend) Close(context.Context) error {
	return nil
}
