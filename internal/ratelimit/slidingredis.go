package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingScript trims expired members, then records the event only when the
// window still has room. Rejected calls are not counted against the caller.
// Scores are unix milliseconds.
var slidingScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
local allowed = 0
if count < limit then
  redis.call('ZADD', KEYS[1], now, ARGV[4])
  redis.call('PEXPIRE', KEYS[1], window)
  count = count + 1
  allowed = 1
end
local oldest = now
local first = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if first[2] then
  oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

// SlidingWindow is a Redis sorted-set limiter shared by every API replica.
type SlidingWindow struct {
	Client redis.Scripter
	Prefix string
	Now    func() time.Time
}

// Allow records an event for key when fewer than max events happened during
// the trailing window. reset is when the oldest counted event leaves it.
func (l SlidingWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, now.Add(window), nil
	}

	nowMs := now.UnixMilli()
	res, err := slidingScript.Run(ctx, l.Client, []string{l.Prefix + key},
		nowMs, window.Milliseconds(), max, uuid.NewString()).Int64Slice()
	if err != nil {
		return false, 0, now.Add(window), fmt.Errorf("sliding window: %w", err)
	}
	if len(res) != 3 {
		return false, 0, now.Add(window), fmt.Errorf("sliding window: unexpected reply %v", res)
	}

	remaining := max - int(res[1])
	if remaining < 0 {
		remaining = 0
	}
	reset := time.UnixMilli(res[2]).Add(window)
	return res[0] == 1, remaining, reset, nil
}
