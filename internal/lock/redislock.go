// Package lock serialises work across worker processes with Redis keys.
package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotConfigured is returned when a Locker has no Redis client.
var ErrNotConfigured = errors.New("lock: redis client not configured")

// Client is the part of go-redis the locker needs.
type Client interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// releaseScript deletes the key only while it still holds our token, so a
// holder whose TTL lapsed cannot drop a lock someone else has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out per-key mutual exclusion. The notification worker holds
// one per PSP reference while it processes a webhook item.
type Locker struct {
	R            Client
	Prefix       string
	RetryBackoff time.Duration
}

// Key joins parts under the locker prefix ("lock:" by default).
func (l Locker) Key(parts ...string) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = "lock:"
	}
	return prefix + strings.Join(parts, ":")
}

// WithLock polls until key is free, runs fn, then releases the key whatever
// fn returned. It gives up with ctx.Err() when ctx ends first.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return ErrNotConfigured
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token, err := l.acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.R, []string{key}, token).Err()
	}()
	return fn(ctx)
}

func (l Locker) acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	wait := l.RetryBackoff
	if wait <= 0 {
		wait = 50 * time.Millisecond
	}
	ticker := time.NewTicker(wait)
	defer ticker.Stop()
	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
