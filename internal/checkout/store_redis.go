package checkout

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisCmd is the subset of the Redis client used by RedisStore.
type RedisCmd interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore shares correlation entries between API replicas. Entries expire
// after TTL so abandoned redirects do not accumulate.
type RedisStore struct {
	R      RedisCmd
	TTL    time.Duration
	Prefix string
}

func (s RedisStore) key(orderRef string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "paydata:"
	}
	return prefix + orderRef
}

func (s RedisStore) Put(ctx context.Context, orderRef, token string) error {
	if s.R == nil {
		return errors.New("checkout: redis store not configured")
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return s.R.Set(ctx, s.key(orderRef), token, ttl).Err()
}

func (s RedisStore) Take(ctx context.Context, orderRef string) (string, bool, error) {
	if s.R == nil {
		return "", false, errors.New("checkout: redis store not configured")
	}
	token, err := s.R.GetDel(ctx, s.key(orderRef)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}
