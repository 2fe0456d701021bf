package redis_utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

var ErrRedisNotConfigured = errors.New("neither redis url nor redis cluster url is set")

// NewClient builds a client for either a single node or a cluster.
func NewClient(ctx context.Context, redisURL, redisClusterURL string) (redis.UniversalClient, error) {
	var client redis.UniversalClient

	switch {
	case redisClusterURL != "":
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        strings.Split(redisClusterURL, ","),
			MinIdleConns: 1,
		})
	case redisURL != "":
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}

		client = redis.NewClient(opts)
	default:
		return nil, ErrRedisNotConfigured
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := redisotel.InstrumentMetrics(client); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to instrument redis metrics: %w", err)
	}

	return client, nil
}

func GetLockKey(key string) string {
	return "lock:" + key
}
