package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadThroughCache_MissCallsFetch(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	rtc := NewReadThroughCache(cache, func(ctx context.Context, input string) (string, error) {
		calls++
		return "value-" + input, nil
	}, false)

	got, err := rtc.Get(ctx, "k", "in", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "value-in", got)
	require.Equal(t, 1, calls)

	// Second call is served from cache
	got, err = rtc.Get(ctx, "k", "in", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "value-in", got)
	require.Equal(t, 1, calls, "fetch should not run on cache hit")
}

func TestReadThroughCache_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	rtc := NewReadThroughCache(cache, func(ctx context.Context, input string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("boom")
		}
		return "ok", nil
	}, false)

	_, err := rtc.Get(ctx, "k", "in", time.Minute)
	require.Error(t, err)

	got, err := rtc.Get(ctx, "k", "in", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 2, calls)
}

func TestReadThroughCache_SkipCache(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	rtc := NewReadThroughCache(cache, func(ctx context.Context, input string) (string, error) {
		calls++
		return "v", nil
	}, true)

	for range 3 {
		_, err := rtc.Get(ctx, "k", "in", time.Minute)
		require.NoError(t, err)
	}
	require.Equal(t, 3, calls, "skip-cache mode should always fetch")
}
