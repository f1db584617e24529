package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hemlist/engine/internal/list"
)

// RedisStore persists a queue as one JSON blob per owner key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL, owner string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, owner), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client, owner string) *RedisStore {
	return &RedisStore{client: client, key: "outbox:" + owner}
}

func (s *RedisStore) Load(ctx context.Context) ([]list.Event, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load outbox: %w", err)
	}
	events, err := list.UnmarshalEvents(data)
	if err != nil {
		return nil, fmt.Errorf("decode outbox: %w", err)
	}
	return events, nil
}

func (s *RedisStore) Save(ctx context.Context, events []list.Event) error {
	if len(events) == 0 {
		if err := s.client.Del(ctx, s.key).Err(); err != nil {
			return fmt.Errorf("clear outbox: %w", err)
		}
		return nil
	}
	data, err := list.MarshalEvents(events)
	if err != nil {
		return fmt.Errorf("encode outbox: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save outbox: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
