package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

const redisTimeout = 2 * time.Second

// RedisLimiter は複数インスタンスで共有される固定窓リミッターです。
// Redis に到達できない場合はプロセス内リミッターで判定します。
type RedisLimiter struct {
	client   redis.Scripter
	window   time.Duration
	prefix   string
	fallback *InMemoryLimiter
	logger   *slog.Logger
}

// NewRedis は RedisLimiter を生成します。client が nil なら常にフォールバックを使います。
func NewRedis(client redis.Scripter, d time.Duration, logger *slog.Logger) *RedisLimiter {
	if d <= 0 {
		d = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client:   client,
		window:   d,
		prefix:   "personnel:rl:",
		fallback: NewInMemory(d),
		logger:   logger,
	}
}

// Allow は Redis 上のカウンタを進めて判定します。
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	if l.client == nil {
		return l.fallback.Allow(ctx, key, limit)
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) < 2 {
		l.logger.WarnContext(ctx, "rate limiter falling back to memory", slog.Any("error", err))
		return l.fallback.Allow(ctx, key, limit)
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}
	return decide(int(res[0]), limit, time.Now().UTC().Add(ttl))
}
