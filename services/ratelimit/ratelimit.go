// Package ratelimit provides echo rate limiter stores.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// RedisStore is a fixed-window counter shared by every API instance.
// Each identifier may make `limit` requests per `window`.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	limit   int64
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
}

var _ middleware.RateLimiterStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string, limit int, window time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		limit:   int64(limit),
		window:  window,
		timeout: time.Second,
		now:     time.Now,
	}
}

// key buckets identifier into the current window.
func (s *RedisStore) key(identifier string) string {
	bucket := s.now().UnixNano() / int64(s.window)
	return "ratelimit:" + s.prefix + ":" + identifier + ":" + strconv.FormatInt(bucket, 10)
}

func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	key := s.key(identifier)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		// the request goes through when Redis is unavailable
		return true, errors.Wrap(err, "counting request")
	}
	return incr.Val() <= s.limit, nil
}

// NewMemoryStore returns a per-process token bucket allowing `limit` requests per `window` on average,
// with bursts of up to `limit`.
func NewMemoryStore(limit int, window time.Duration) middleware.RateLimiterStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: window,
	})
}

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}
