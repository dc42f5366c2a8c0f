package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func statusKey(campaignID int) string {
	return fmt.Sprintf("campaign:%d:status", campaignID)
}

func (c *RedisCache) StoreStatus(ctx context.Context, campaignID int, payload []byte) error {
	return c.rdb.Set(ctx, statusKey(campaignID), payload, c.ttl).Err()
}

func (c *RedisCache) GetStatus(ctx context.Context, campaignID int) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, statusKey(campaignID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Invalidate(ctx context.Context, campaignID int) error {
	return c.rdb.Del(ctx, statusKey(campaignID)).Err()
}

var _ StatusCache = (*RedisCache)(nil)
