package store

import "context"

type RawItem struct {
	Key  Key
	Data []byte
}

// Backend is the raw persistence engine behind a Table. Implementations must
// make Create, Put, CompareAndSwap and Delete atomic per key, and must
// return the typed errors of this package.
type Backend interface {
	Get(ctx context.Context, namespace string, key Key) ([]byte, error)
	// Create fails with ItemAlreadyExistsError when the key is taken.
	Create(ctx context.Context, namespace string, key Key, data []byte) error
	// Put writes unconditionally and returns the previous value, nil if there was none.
	Put(ctx context.Context, namespace string, key Key, data []byte) ([]byte, error)
	// CompareAndSwap writes data only if the stored value equals expected,
	// otherwise it fails with ConcurrentDataModificationError.
	CompareAndSwap(ctx context.Context, namespace string, key Key, expected, data []byte) error
	Delete(ctx context.Context, namespace string, key Key) error
	// CompareAndDelete removes the record only if it still equals expected.
	CompareAndDelete(ctx context.Context, namespace string, key Key, expected []byte) error
	// Scan returns up to limit items ordered by key, strictly after the given key.
	Scan(ctx context.Context, namespace string, after *Key, limit int) ([]RawItem, error)
	Close(ctx context.Context) error
}
