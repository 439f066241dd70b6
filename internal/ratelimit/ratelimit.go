// Package ratelimit throttles webhook and ingest traffic with a
// redis-backed token bucket, shared across replicas.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/samlahq/samla/internal/config"
)

// tokenBucket refills rate tokens per second up to burst. Bucket state
// lives in redis so every replica draws from the same allowance.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local bucket = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(bucket[1])
local ts = tonumber(bucket[2])
if tokens == nil then
  tokens = burst
  ts = now
end

tokens = math.min(burst, tokens + (now - ts) * rate)
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'ts', now)
redis.call('EXPIRE', key, math.ceil(burst / rate) + 60)
return allowed
`)

// Limiter enforces per-key token buckets.
type Limiter struct {
	rdb     *redis.Client
	log     *zap.Logger
	enabled bool
}

func NewLimiter(cfg config.Config, log *zap.Logger) *Limiter {
	l := &Limiter{
		log:     log.Named("ratelimit"),
		enabled: cfg.RateLimit.Enabled,
	}
	if cfg.RateLimit.Enabled {
		l.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
	}
	return l
}

// Allow consumes one token for key. Redis outages fail open.
func (l *Limiter) Allow(ctx context.Context, key string, rate float64, burst int) bool {
	if !l.enabled || l.rdb == nil {
		return true
	}

	now := float64(time.Now().UnixMicro()) / 1e6
	res, err := tokenBucket.Run(ctx, l.rdb, []string{"ratelimit:" + key},
		strconv.FormatFloat(rate, 'f', -1, 64),
		strconv.Itoa(burst),
		strconv.FormatFloat(now, 'f', 6, 64),
	).Int()
	if err != nil {
		l.log.Warn("limiter unavailable", zap.Error(err))
		return true
	}
	return res == 1
}

// Close releases the redis connection.
func (l *Limiter) Close() error {
	if l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}

var Module = fx.Module("ratelimit",
	fx.Provide(NewLimiter),
)
