package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shopmirror/internal/config"
)

// RedisStore shares marked keys across replicas; redis handles expiry.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	return &RedisStore{Client: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (s *RedisStore) Mark(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrNoExpiry
	}
	if err := s.Client.Set(ctx, key, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis mark %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Marked(ctx context.Context, key string) (bool, error) {
	n, err := s.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}

// New picks redis when an address is configured, memory otherwise.
func New(cfg config.RedisConfig) Store {
	if cfg.Addr == "" {
		return NewMemoryStore()
	}
	return NewRedisStore(cfg)
}
