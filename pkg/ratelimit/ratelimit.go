package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow counts requests in a rolling window using a sorted set
// per client key. Old entries are pruned, the remainder counted, and
// the request admitted only under the limit, all in one script.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, now .. '-' .. math.random())
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1}
end
return {0, 0}
`)

// Limiter enforces per-key request limits backed by Redis. A nil
// client disables limiting entirely.
type Limiter struct {
	client *redis.Client
}

func New(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow reports whether the request fits in the window and how many
// requests remain. Redis being down fails open: availability over
// throttling accuracy.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	if l.client == nil {
		return true, limit, nil
	}

	now := time.Now().UnixMilli()
	result, err := slidingWindow.Run(ctx, l.client,
		[]string{fmt.Sprintf("ratelimit:%s", key)},
		now, window.Milliseconds(), limit).Result()
	if err != nil {
		return true, 0, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return true, 0, fmt.Errorf("unexpected rate limit script result: %v", result)
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	return allowed == 1, int(remaining), nil
}
