package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crosspost/backend/internal/domain/classification"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisPreviewCache shares classification results across instances through Redis
type RedisPreviewCache struct {
	client *redis.Client
}

func NewRedisPreviewCache(cfg RedisConfig) (*RedisPreviewCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisPreviewCache{client: client}, nil
}

// NewRedisPreviewCacheWithClient wraps an existing client, for sharing one
// connection pool across components
func NewRedisPreviewCacheWithClient(client *redis.Client) *RedisPreviewCache {
	return &RedisPreviewCache{client: client}
}

func (c *RedisPreviewCache) Get(ctx context.Context, key string) (*classification.Result, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached preview: %w", err)
	}
	var result classification.Result
	if err := json.Unmarshal(data, &result); err != nil {
		// Stale encoding from an older build, treat as a miss
		return nil, false, nil
	}
	return &result, true, nil
}

func (c *RedisPreviewCache) Set(ctx context.Context, key string, result *classification.Result, ttl time.Duration) error {
	if result == nil || ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache preview: %w", err)
	}
	return nil
}

func (c *RedisPreviewCache) Close() error {
	return c.client.Close()
}

var _ PreviewCache = (*RedisPreviewCache)(nil)
