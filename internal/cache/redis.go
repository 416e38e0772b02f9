package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/duochat/internal/config"
	"github.com/weiawesome/duochat/internal/domain"
)

type RedisGroupCache struct {
	client *redis.Client
	prefix string
}

func NewRedisGroupCache(cfg config.RedisConfig) (*RedisGroupCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisGroupCacheWithClient(client, cfg.Prefix), nil
}

// NewRedisGroupCacheWithClient wraps an existing client.
func NewRedisGroupCacheWithClient(client *redis.Client, prefix string) *RedisGroupCache {
	return &RedisGroupCache{client: client, prefix: prefix}
}

func (c *RedisGroupCache) key(groupID string) string {
	return fmt.Sprintf("%s:group:%s", c.prefix, groupID)
}

func (c *RedisGroupCache) Get(ctx context.Context, groupID string) (*domain.Group, error) {
	data, err := c.client.Get(ctx, c.key(groupID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var group domain.Group
	if err := json.Unmarshal(data, &group); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return &group, nil
}

func (c *RedisGroupCache) Set(ctx context.Context, group *domain.Group, ttl time.Duration) error {
	data, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, c.key(group.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisGroupCache) Delete(ctx context.Context, groupIDs ...string) error {
	if len(groupIDs) == 0 {
		return nil
	}

	keys := make([]string, len(groupIDs))
	for i, id := range groupIDs {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

func (c *RedisGroupCache) Close() error {
	return c.client.Close()
}
