package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "livenews:quote:"

// Cache 用 Redis 缓存报价，必须设置 TTL。每次读取都反序列化出新结构体，调用方拿到的是副本。
// Redis 不可用时直接回源，不影响请求。
type Cache struct {
	next   Provider
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCache(next Provider, rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) (*Cache, error) {
	if next == nil || rdb == nil {
		return nil, errors.New("quote cache: provider and redis client are required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("quote cache: ttl must be positive, got %s", ttl)
	}
	return &Cache{next: next, rdb: rdb, ttl: ttl, logger: logger}, nil
}

func cacheKey(asset string) string {
	return cacheKeyPrefix + asset
}

func (c *Cache) GetQuote(ctx context.Context, asset string) (PriceQuote, error) {
	bs, err := c.rdb.Get(ctx, cacheKey(asset)).Bytes()
	if err == nil {
		var q PriceQuote
		if err := json.Unmarshal(bs, &q); err == nil && q.Valid() {
			return q, nil
		}
		c.logger.Warn().Str("asset", asset).Msg("quote cache: drop malformed entry")
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Debug().Err(err).Str("asset", asset).Msg("quote cache: redis get failed")
	}

	return c.load(ctx, asset)
}

// Refresh 跳过缓存读取，直接回源并写入缓存，供定时预热使用
func (c *Cache) Refresh(ctx context.Context, asset string) error {
	_, err := c.load(ctx, asset)
	return err
}

func (c *Cache) load(ctx context.Context, asset string) (PriceQuote, error) {
	q, err := c.next.GetQuote(ctx, asset)
	if err != nil {
		return PriceQuote{}, err
	}
	bs, err := json.Marshal(q)
	if err == nil {
		if err := c.rdb.Set(ctx, cacheKey(asset), bs, c.ttl).Err(); err != nil {
			c.logger.Debug().Err(err).Str("asset", asset).Msg("quote cache: redis set failed")
		}
	}
	return q, nil
}
