package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/customer-analytics-api/analytics"
	"github.com/redis/go-redis/v9"
)

// RedisModelStore keeps each tenant's model JSON under its model key
type RedisModelStore struct {
	client *redis.Client
	prefix string
}

// NewRedisModelStore wraps client. prefix is prepended to every key.
func NewRedisModelStore(client *redis.Client, prefix string) *RedisModelStore {
	return &RedisModelStore{client: client, prefix: prefix}
}

// NewRedisModelStoreFromURL connects using a redis:// URL
func NewRedisModelStoreFromURL(redisURL string) (*RedisModelStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return NewRedisModelStore(redis.NewClient(opts), "analytics:"), nil
}

func (s *RedisModelStore) Name() string { return "redis" }

func (s *RedisModelStore) key(tenantID uint) string {
	return s.prefix + ModelKey(tenantID)
}

func (s *RedisModelStore) Save(ctx context.Context, tenantID uint, model *analytics.Model) error {
	data, err := encodeModel(model)
	if err != nil {
		return countSave(s.Name(), err)
	}
	if err := s.client.Set(ctx, s.key(tenantID), data, 0).Err(); err != nil {
		return countSave(s.Name(), fmt.Errorf("redis set model: %w", err))
	}
	return countSave(s.Name(), nil)
}

func (s *RedisModelStore) Load(ctx context.Context, tenantID uint) (*analytics.Model, error) {
	data, err := s.client.Get(ctx, s.key(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get model: %w", err)
	}
	return decodeModel(data)
}

// Ping checks the connection
func (s *RedisModelStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
