// Package redis stores records as JSON strings with a per-namespace sorted
// set index used for ordered paging.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sandbox-pool/infra/packages/api/internal/store"
)

const keyPrefix = "records"

type Backend struct {
	redisClient redis.UniversalClient
}

var _ store.Backend = (*Backend)(nil)

func NewBackend(redisClient redis.UniversalClient) *Backend {
	return &Backend{redisClient: redisClient}
}

func getRecordKey(namespace string, key store.Key) string {
	return fmt.Sprintf("%s:{%s}:item:%s", keyPrefix, namespace, key.Encoded())
}

func getIndexKey(namespace string) string {
	return fmt.Sprintf("%s:{%s}:index", keyPrefix, namespace)
}

func (b *Backend) Get(ctx context.Context, namespace string, key store.Key) ([]byte, error) {
	data, err := b.redisClient.Get(ctx, getRecordKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &store.UnknownItemError{Namespace: namespace, Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record from redis: %w", err)
	}

	return data, nil
}

func (b *Backend) Create(ctx context.Context, namespace string, key store.Key, data []byte) error {
	created, err := createScript.Run(ctx, b.redisClient,
		[]string{getRecordKey(namespace, key), getIndexKey(namespace)},
		data, key.Encoded(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to create record in redis: %w", err)
	}

	if created == 0 {
		return &store.ItemAlreadyExistsError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) Put(ctx context.Context, namespace string, key store.Key, data []byte) ([]byte, error) {
	previous, err := putScript.Run(ctx, b.redisClient,
		[]string{getRecordKey(namespace, key), getIndexKey(namespace)},
		data, key.Encoded(),
	).Text()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to put record in redis: %w", err)
	}

	return []byte(previous), nil
}

func (b *Backend) CompareAndSwap(ctx context.Context, namespace string, key store.Key, expected, data []byte) error {
	swapped, err := compareAndSwapScript.Run(ctx, b.redisClient,
		[]string{getRecordKey(namespace, key)},
		expected, data,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to update record in redis: %w", err)
	}

	if swapped == 0 {
		return &store.ConcurrentDataModificationError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) Delete(ctx context.Context, namespace string, key store.Key) error {
	removed, err := deleteScript.Run(ctx, b.redisClient,
		[]string{getRecordKey(namespace, key), getIndexKey(namespace)},
		key.Encoded(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to delete record from redis: %w", err)
	}

	if removed == 0 {
		return &store.UnknownItemError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) CompareAndDelete(ctx context.Context, namespace string, key store.Key, expected []byte) error {
	removed, err := compareAndDeleteScript.Run(ctx, b.redisClient,
		[]string{getRecordKey(namespace, key), getIndexKey(namespace)},
		key.Encoded(), expected,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to delete record from redis: %w", err)
	}

	if removed == 0 {
		return &store.ConcurrentDataModificationError{Namespace: namespace, Key: key}
	}

	return nil
}

func (b *Backend) Scan(ctx context.Context, namespace string, after *store.Key, limit int) ([]store.RawItem, error) {
	minMember := "-"
	if after != nil {
		minMember = "(" + after.Encoded()
	}

	items := make([]store.RawItem, 0, limit)
	for len(items) < limit {
		want := limit - len(items)

		members, err := b.redisClient.ZRangeByLex(ctx, getIndexKey(namespace), &redis.ZRangeBy{
			Min:   minMember,
			Max:   "+",
			Count: int64(want),
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan redis index: %w", err)
		}

		if len(members) == 0 {
			break
		}

		loaded, err := b.load(ctx, namespace, members)
		if err != nil {
			return nil, err
		}

		items = append(items, loaded...)
		if len(members) < want {
			break
		}

		minMember = "(" + members[len(members)-1]
	}

	return items, nil
}

func (b *Backend) load(ctx context.Context, namespace string, members []string) ([]store.RawItem, error) {
	keys := make([]store.Key, 0, len(members))
	recordKeys := make([]string, 0, len(members))
	for _, member := range members {
		key, err := store.DecodeKey(member)
		if err != nil {
			return nil, err
		}

		keys = append(keys, key)
		recordKeys = append(recordKeys, getRecordKey(namespace, key))
	}

	values, err := b.redisClient.MGet(ctx, recordKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load scanned records: %w", err)
	}

	items := make([]store.RawItem, 0, len(values))
	for i, value := range values {
		// Deleted between the index read and the load.
		data, ok := value.(string)
		if !ok {
			continue
		}

		items = append(items, store.RawItem{Key: keys[i], Data: []byte(data)})
	}

	return items, nil
}

func (b *Backend) Close(context.Context) error {
	return nil
}
