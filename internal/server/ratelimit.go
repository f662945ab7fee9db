package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/alfredjeanlab/ballot/internal/model"
)

// Limiter decides whether a caller may perform another mutation.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// maxLocalBuckets caps how many callers a LocalLimiter tracks at once.
const maxLocalBuckets = 10000

// LocalLimiter keeps one token bucket per caller in process memory. Buckets
// that have refilled completely are dropped, since a fresh bucket behaves
// the same.
type LocalLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	buckets   map[string]*rate.Limiter
	now       func() time.Time
	lastSweep time.Time
}

// NewLocalLimiter allows perMinute mutations per caller with a burst of the
// same size.
func NewLocalLimiter(perMinute int) *LocalLimiter {
	return &LocalLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   max(perMinute, 1),
		buckets: make(map[string]*rate.Limiter),
		now:     time.Now,
	}
}

// Allow implements Limiter.
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= time.Minute {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxLocalBuckets {
			l.sweep(now)
		}
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b.AllowN(now, 1), nil
}

// sweep drops full buckets. If every bucket is still in use and the cap is
// reached, arbitrary buckets go until there is room for one more.
func (l *LocalLimiter) sweep(now time.Time) {
	l.lastSweep = now
	for key, b := range l.buckets {
		if b.TokensAt(now) >= float64(l.burst) {
			delete(l.buckets, key)
		}
	}
	for key := range l.buckets {
		if len(l.buckets) < maxLocalBuckets {
			break
		}
		delete(l.buckets, key)
	}
}

// tracked reports how many buckets are held.
func (l *LocalLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// redisTokenBucket refills and consumes a token bucket atomically.
// KEYS[1] = bucket key
// ARGV[1] = refill rate (tokens per second)
// ARGV[2] = capacity
// ARGV[3] = now (seconds, fractional)
var redisTokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    last_refill = now
end

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, math.ceil(capacity / rate) + 1)
return allowed
`)

// RedisLimiter shares token buckets between server replicas through Redis.
type RedisLimiter struct {
	client    redis.Scripter
	perMinute int
	now       func() time.Time
}

// NewRedisLimiter allows perMinute mutations per caller across all servers
// using client.
func NewRedisLimiter(client redis.Scripter, perMinute int) *RedisLimiter {
	return &RedisLimiter{client: client, perMinute: max(perMinute, 1), now: time.Now}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	perSecond := float64(l.perMinute) / 60
	now := float64(l.now().UnixMicro()) / 1e6
	n, err := redisTokenBucket.Run(ctx, l.client, []string{"ballot:ratelimit:" + key}, perSecond, l.perMinute, now).Int64()
	if err != nil {
		return false, fmt.Errorf("redis limiter: %w", err)
	}
	return n == 1, nil
}

func logLimiterError(who model.Identity, err error) {
	slog.Warn("rate limiter unavailable; allowing request", "caller", who, "error", err)
}
