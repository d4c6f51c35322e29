package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/banking/risk-engine/internal/config"
	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/pkg/logger"
)

// StatsKey caches the stats endpoint payload
const StatsKey = "risk:stats:v1"

// Client wraps Redis for response caching. Every failure degrades to a
// cache miss, and a nil *Client disables caching entirely, so callers
// never branch on cache availability.
type Client struct {
	rdb *redis.Client
	log *logger.Logger
}

// NewClient connects to Redis and verifies it with a ping
func NewClient(cfg config.RedisConfig, log *logger.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{
		rdb: rdb,
		log: log.Named("cache"),
	}, nil
}

// Get returns the cached payload and whether it was present
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug("cache get failed", logger.StringField("key", key), logger.ErrorField(err))
		}
		return nil, false
	}
	c.log.CacheHit(key)
	return data, true
}

// Set stores the payload with a TTL; errors are logged, not returned
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Debug("cache set failed", logger.StringField("key", key), logger.ErrorField(err))
	}
}

// Close releases the Redis connection pool
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// AnalysisKey builds the cache key for a normalized analysis request.
// Identical criteria share one entry.
func AnalysisKey(req domain.AnalysisRequest) string {
	return fmt.Sprintf("risk:analysis:%s:%d:%d:%s:%d:%d",
		req.TimeRange, req.MinMetricA, req.MinMetricB, req.MaxMetricC.String(), req.Limit, req.Offset)
}
