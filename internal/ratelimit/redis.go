package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and consumes a bucket atomically.
// KEYS[1] = bucket key
// ARGV[1] = refill rate (tokens per second)
// ARGV[2] = capacity
// ARGV[3] = cost
// ARGV[4] = now (unix seconds, microsecond precision)
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

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
if tokens >= cost then
    tokens = tokens - cost
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, 180)

return allowed
`)

// Redis shares buckets between server replicas.
type Redis struct {
	client *redis.Client
	rps    float64
	burst  int
	prefix string
}

// NewRedis connects to addr. The connection is lazy; Ping reports reachability.
func NewRedis(addr string, rps float64, burst int) *Redis {
	return NewRedisWithClient(redis.NewClient(&redis.Options{Addr: addr}), rps, burst)
}

func NewRedisWithClient(client *redis.Client, rps float64, burst int) *Redis {
	if rps <= 0 {
		rps = 1
	}
	return &Redis{client: client, rps: rps, burst: burst, prefix: "musui:ratelimit:"}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(time.Now().UnixMicro()) / 1e6
	res, err := tokenBucketScript.Run(ctx, r.client, []string{r.prefix + key}, r.rps, r.burst, 1, now).Int64()
	if err != nil {
		return false, fmt.Errorf("redis limiter: %w", err)
	}
	return res == 1, nil
}

func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// HealthPing lets the health checker probe the backend.
func (r *Redis) HealthPing(ctx context.Context) error { return r.Ping(ctx) }

func (r *Redis) Close() error { return r.client.Close() }
