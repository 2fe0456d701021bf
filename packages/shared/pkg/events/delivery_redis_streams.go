package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	streamKeyField     = "key"
	streamPayloadField = "payload"

	// streamMaxLen caps the stream; consumers are expected to keep up well within it.
	streamMaxLen = 100_000
)

type RedisStreamsDelivery[Payload any] struct {
	redisClient  redis.UniversalClient
	streamName   string
	groupName    string
	consumerName string
}

func NewRedisStreamsDelivery[Payload any](redisClient redis.UniversalClient, streamName, groupName, consumerName string) *RedisStreamsDelivery[Payload] {
	return &RedisStreamsDelivery[Payload]{
		redisClient:  redisClient,
		streamName:   streamName,
		groupName:    groupName,
		consumerName: consumerName,
	}
}

func (r *RedisStreamsDelivery[Payload]) Publish(ctx context.Context, deliveryKey string, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	// Use XADD to add entry to stream with auto-generated ID
	_, err = r.redisClient.
		XAdd(ctx, &redis.XAddArgs{
			Stream: r.streamName,
			MaxLen: streamMaxLen,
			Approx: true,
			ID:     "*",
			Values: map[string]any{
				streamKeyField:     deliveryKey,
				streamPayloadField: string(data),
			},
		}).
		Result()
	if err != nil {
		return fmt.Errorf("failed to add to stream %s: %w", r.streamName, err)
	}

	return nil
}

// Message is a raw stream entry. Payload is left undecoded so consumers can validate it.
type Message struct {
	ID      string
	Key     string
	Payload []byte
}

// EnsureGroup creates the consumer group if it does not exist yet.
func (r *RedisStreamsDelivery[Payload]) EnsureGroup(ctx context.Context) error {
	err := r.redisClient.XGroupCreateMkStream(ctx, r.streamName, r.groupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	return nil
}

// Read blocks up to block for at most count messages never delivered to the group.
func (r *RedisStreamsDelivery[Payload]) Read(ctx context.Context, count int64, block time.Duration) ([]Message, error) {
	return r.readGroup(ctx, ">", count, block)
}

// ReadPending returns messages delivered to this consumer but not acknowledged yet.
func (r *RedisStreamsDelivery[Payload]) ReadPending(ctx context.Context, count int64) ([]Message, error) {
	return r.readGroup(ctx, "0", count, -1)
}

func (r *RedisStreamsDelivery[Payload]) readGroup(ctx context.Context, from string, count int64, block time.Duration) ([]Message, error) {
	streams, err := r.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.groupName,
		Consumer: r.consumerName,
		Streams:  []string{r.streamName, from},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	messages := make([]Message, 0)
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			key, _ := entry.Values[streamKeyField].(string)
			payload, _ := entry.Values[streamPayloadField].(string)

			messages = append(messages, Message{ID: entry.ID, Key: key, Payload: []byte(payload)})
		}
	}

	return messages, nil
}

func (r *RedisStreamsDelivery[Payload]) Ack(ctx context.Context, ids ...string) error {
	return r.redisClient.XAck(ctx, r.streamName, r.groupName, ids...).Err()
}

func (r *RedisStreamsDelivery[Payload]) Close(context.Context) error {
	return nil
}
