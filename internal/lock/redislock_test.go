package lock_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/online-payments/internal/lock"
)

func newLocker(t *testing.T) (lock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}, mr
}

func TestWithLockExcludesConcurrentHolders(t *testing.T) {
	locker, _ := newLocker(t)
	key := locker.Key("notification", "8535")

	var inside, overlaps atomic.Int32
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			errs <- locker.WithLock(context.Background(), key, time.Second, func(context.Context) error {
				if inside.Add(1) > 1 {
					overlaps.Add(1)
				}
				time.Sleep(10 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-errs)
	}
	require.Zero(t, overlaps.Load())
}

func TestWithLockReleasesAfterError(t *testing.T) {
	locker, mr := newLocker(t)
	locker.Prefix = "test-lock:"
	key := locker.Key("notification", "8535")
	require.Equal(t, "test-lock:notification:8535", key)

	err := locker.WithLock(context.Background(), key, time.Second, func(context.Context) error {
		require.True(t, mr.Exists(key))
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.False(t, mr.Exists(key))
}

func TestWithLockKeepsForeignLock(t *testing.T) {
	locker, mr := newLocker(t)
	key := locker.Key("notification", "expired")

	err := locker.WithLock(context.Background(), key, time.Second, func(context.Context) error {
		// Our TTL lapsed and another worker took over.
		require.NoError(t, mr.Set(key, "other-worker"))
		return nil
	})
	require.NoError(t, err)
	got, err := mr.Get(key)
	require.NoError(t, err)
	require.Equal(t, "other-worker", got)
}

func TestWithLockRespectsContext(t *testing.T) {
	locker, mr := newLocker(t)
	key := locker.Key("notification", "busy")
	require.NoError(t, mr.Set(key, "someone-else"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := locker.WithLock(ctx, key, time.Second, func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithLockWithoutClient(t *testing.T) {
	err := lock.Locker{}.WithLock(context.Background(), "k", time.Second, func(context.Context) error { return nil })
	require.ErrorIs(t, err, lock.ErrNotConfigured)
}
