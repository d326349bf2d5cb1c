package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newSliding(t *testing.T) (SlidingWindow, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.UnixMilli(1_700_000_000_000)
	return SlidingWindow{
		Client: client,
		Prefix: "test:",
		Now:    func() time.Time { return now },
	}, &now
}

func TestSlidingWindowLimitsWithinWindow(t *testing.T) {
	lim, _ := newSliding(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, remaining, _, err := lim.Allow(ctx, "key", 2*time.Second, 2)
		require.NoError(t, err)
		require.True(t, allowed, "request %d", i)
		require.Equal(t, 1-i, remaining)
	}

	allowed, remaining, _, err := lim.Allow(ctx, "key", 2*time.Second, 2)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	allowed, _, _, err = lim.Allow(ctx, "other", 2*time.Second, 2)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestSlidingWindowSlides(t *testing.T) {
	lim, now := newSliding(t)
	ctx := context.Background()
	start := *now

	_, _, _, err := lim.Allow(ctx, "key", time.Second, 2)
	require.NoError(t, err)
	*now = start.Add(600 * time.Millisecond)
	_, _, _, err = lim.Allow(ctx, "key", time.Second, 2)
	require.NoError(t, err)

	allowed, _, reset, err := lim.Allow(ctx, "key", time.Second, 2)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, start.Add(time.Second), reset)

	// The first event has left the window; the second one still counts.
	*now = start.Add(1100 * time.Millisecond)
	allowed, remaining, _, err := lim.Allow(ctx, "key", time.Second, 2)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, remaining)
}

func TestSlidingWindowRejectionsAreNotCounted(t *testing.T) {
	lim, now := newSliding(t)
	ctx := context.Background()
	start := *now

	allowed, _, _, err := lim.Allow(ctx, "key", time.Second, 1)
	require.NoError(t, err)
	require.True(t, allowed)
	for i := 0; i < 5; i++ {
		allowed, _, _, err = lim.Allow(ctx, "key", time.Second, 1)
		require.NoError(t, err)
		require.False(t, allowed)
	}

	*now = start.Add(time.Second + time.Millisecond)
	allowed, _, _, err = lim.Allow(ctx, "key", time.Second, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestSlidingWindowDisabled(t *testing.T) {
	allowed, remaining, _, err := SlidingWindow{}.Allow(context.Background(), "key", time.Second, 3)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 3, remaining)
}
