package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const cacheKeyFormat = "candles:%s:%s:%s:%d"

// kv: подмножество redis.Cmdable, нужное кэшу.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cache: read-through кэш свечей поверх Provider.
// Ошибки Redis не ломают получение: идём напрямую в провайдер.
type Cache struct {
	next Provider
	rdb  kv
	ttl  time.Duration

	hits, misses atomic.Int64
}

func NewCache(next Provider, rdb kv, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{next: next, rdb: rdb, ttl: ttl}
}

func (c *Cache) Name() string { return c.next.Name() }

func cacheKey(provider, symbol, interval string, limit int) string {
	return fmt.Sprintf(cacheKeyFormat, provider, symbol, interval, limit)
}

// ttlFor: не дольше одной свечи таймфрейма, иначе отдадим устаревшую серию.
func (c *Cache) ttlFor(interval string) time.Duration {
	if d := timeframeToDuration(interval); d > 0 && d < c.ttl {
		return d
	}
	return c.ttl
}

func (c *Cache) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	key := cacheKey(c.next.Name(), symbol, interval, limit)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cs []models.Candle
		if err := sonic.Unmarshal(raw, &cs); err == nil {
			c.hits.Add(1)
			return cs, nil
		}
		logger.Warn("[CACHE] corrupt entry %s", key)
	case err != redis.Nil:
		logger.Warn("[CACHE] get %s: %v", key, err)
	}
	c.misses.Add(1)

	cs, err := c.next.GetCandles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}

	if b, err := sonic.Marshal(cs); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttlFor(interval)).Err(); err != nil {
			logger.Warn("[CACHE] set %s: %v", key, err)
		}
	}
	return cs, nil
}

// Stats: попадания и промахи с момента старта.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
