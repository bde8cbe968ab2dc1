package cachemanager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newCountingLoader(value string, err error) (func(context.Context, string) (string, error), *int) {
	calls := 0
	return func(_ context.Context, _ string) (string, error) {
		calls++
		return value, err
	}, &calls
}

func TestReadThroughCache_LoadsOnceThenHits(t *testing.T) {
	ctx := context.Background()
	fn, calls := newCountingLoader("template body", nil)
	rt := NewReadThroughCache[string, string](NewInMemoryCacheManager[string]("t", DefaultExpiration, DefaultCleanupInterval), fn, DefaultExpiration)

	for i := 0; i < 3; i++ {
		got, err := rt.Get(ctx, "index.html", "/p/webpage/index.html")
		require.NoError(t, err)
		require.Equal(t, "template body", got)
	}

	require.Equal(t, 1, *calls)
	require.Equal(t, Stats{Hits: 2, Misses: 1}, rt.Stats())
}

func TestReadThroughCache_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	loadErr := errors.New("no such file")
	fn, calls := newCountingLoader("", loadErr)
	rt := NewReadThroughCache[string, string](NewInMemoryCacheManager[string]("t", DefaultExpiration, DefaultCleanupInterval), fn, DefaultExpiration)

	_, err := rt.Get(ctx, "k", "in")
	require.ErrorIs(t, err, loadErr)
	_, err = rt.Get(ctx, "k", "in")
	require.ErrorIs(t, err, loadErr)

	require.Equal(t, 2, *calls)
}

func TestReadThroughCache_InvalidateReloads(t *testing.T) {
	ctx := context.Background()
	fn, calls := newCountingLoader("v", nil)
	rt := NewReadThroughCache[string, string](NewInMemoryCacheManager[string]("t", DefaultExpiration, DefaultCleanupInterval), fn, DefaultExpiration)

	_, err := rt.Get(ctx, "k", "in")
	require.NoError(t, err)
	rt.Invalidate(ctx)
	_, err = rt.Get(ctx, "k", "in")
	require.NoError(t, err)

	require.Equal(t, 2, *calls)
}
