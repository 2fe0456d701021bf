package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	redis_utils "github.com/sandbox-pool/infra/packages/shared/pkg/redis"
)

// Locker grants a short lived exclusive lease on a key. obtained is false when
// another holder has it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(ctx context.Context) error, obtained bool, err error)
}

type RedisLocker struct {
	client *redislock.Client
}

var _ Locker = (*RedisLocker)(nil)

func NewRedisLocker(redisClient redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(redisClient)}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, bool, error) {
	lock, err := l.client.Obtain(ctx, redis_utils.GetLockKey(key), ttl, &redislock.Options{
		RetryStrategy: redislock.NoRetry(),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	release := func(ctx context.Context) error {
		err := lock.Release(ctx)
		// The lock expired on its own, nothing to release.
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}

		return err
	}

	return release, true, nil
}
