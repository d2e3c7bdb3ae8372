package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 20
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		PoolTimeout:  cfg.PoolTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisDeduper remembers keys for a TTL. Catapult retries callbacks it
// considers undelivered, so handlers mark each event before acting on it.
type RedisDeduper struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisDeduper returns a deduper storing keys under prefix.
func NewRedisDeduper(rdb *redis.Client, prefix string, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{rdb: rdb, prefix: prefix, ttl: ttl}
}

// MarkOnce reports true the first time key is seen within the TTL.
func (d *RedisDeduper) MarkOnce(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key is required")
	}
	ok, err := d.rdb.SetNX(ctx, d.prefix+key, time.Now().UTC().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Forget removes key so a later delivery is processed again.
func (d *RedisDeduper) Forget(ctx context.Context, key string) error {
	return d.rdb.Del(ctx, d.prefix+key).Err()
}

var concurrencyAcquireScript = redis.NewScript(`
-- KEYS[1] = counter key, ARGV[1] = limit, ARGV[2] = ttl_ms
local current = redis.call('INCR', KEYS[1])
if current == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return 0
end
return 1
`)

var concurrencyReleaseScript = redis.NewScript(`
local current = redis.call('DECR', KEYS[1])
if current <= 0 then
  redis.call('DEL', KEYS[1])
end
return 1
`)

// RedisLimiter caps concurrent work per key (for example, live outbound
// calls per workspace). Slots expire after ttl so a crashed process cannot
// hold them forever.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	ttl    time.Duration
}

// NewRedisLimiter returns a limiter allowing limit slots per key.
func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, ttl time.Duration) (*RedisLimiter, error) {
	if rdb == nil {
		return nil, errors.New("redis client is nil")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be > 0")
	}
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, ttl: ttl}, nil
}

// Acquire takes a slot for key. It returns false when the cap is reached.
func (l *RedisLimiter) Acquire(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key is required")
	}
	res, err := concurrencyAcquireScript.Run(ctx, l.rdb, []string{l.prefix + key}, l.limit, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Release returns a slot taken by Acquire.
func (l *RedisLimiter) Release(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("key is required")
	}
	return concurrencyReleaseScript.Run(ctx, l.rdb, []string{l.prefix + key}).Err()
}
