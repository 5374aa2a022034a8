package repository

import (
	"context"
	"errors"
	"fmt"

	"docbuilder/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements domain.KeyValueStore on plain Redis strings.
type RedisStore struct {
	client *redis.Client
	logger domain.Logger
}

var _ domain.KeyValueStore = (*RedisStore)(nil)

// NewRedisStore creates a store from connection options
func NewRedisStore(opts *redis.Options, logger domain.Logger) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(opts),
		logger: logger,
	}
}

// Ping checks the connection; used once at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	s.logger.Info("Redis store connected", "addr", s.client.Options().Addr)
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
