//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	redisstore "github.com/windwardlabs/regatta-forecast/internal/adapter/redis"
	"github.com/windwardlabs/regatta-forecast/internal/domain"
	"github.com/windwardlabs/regatta-forecast/internal/forecast"
	"github.com/windwardlabs/regatta-forecast/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startRedis starts a disposable Redis container and returns its host:port.
func startRedis(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err, "redis endpoint")
	return endpoint
}

// TestRedisStore_RoundTrip verifies the Store contract against real Redis:
// set, get, absent keys as ErrNotFound, overwrite.
func TestRedisStore_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	store, err := redisstore.NewStore(startRedis(ctx, t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Get(ctx, "bundle:alpha")
	assert.ErrorIs(t, err, forecast.ErrNotFound)

	require.NoError(t, store.Set(ctx, "bundle:alpha", []byte(`{"v":1}`)))
	got, err := store.Get(ctx, "bundle:alpha")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), got)

	require.NoError(t, store.Set(ctx, "bundle:alpha", []byte(`{"v":2}`)))
	got, err = store.Get(ctx, "bundle:alpha")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), got)
}

// TestRedisStore_KeysAndDeleteByPrefix verifies prefix listing and deletion
// leave foreign keys untouched.
func TestRedisStore_KeysAndDeleteByPrefix(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	store, err := redisstore.NewStore(startRedis(ctx, t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Set(ctx, "bundle:alpha", []byte("a")))
	require.NoError(t, store.Set(ctx, "bundle:bravo", []byte("b")))
	require.NoError(t, store.Set(ctx, "station:SCHEVNGN", []byte("s")))

	keys, err := store.Keys(ctx, "bundle:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bundle:alpha", "bundle:bravo"}, keys)

	n, err := store.DeleteByPrefix(ctx, "bundle:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err = store.Keys(ctx, "bundle:")
	require.NoError(t, err)
	assert.Empty(t, keys)

	got, err := store.Get(ctx, "station:SCHEVNGN")
	require.NoError(t, err)
	assert.Equal(t, []byte("s"), got)
}

// countingBuilder is a minimal BundleBuilder for exercising the cache
// against a real store.
type countingBuilder struct {
	calls atomic.Int64
}

func (b *countingBuilder) Build(_ context.Context, area domain.RaceArea) (domain.AreaBundle, error) {
	n := b.calls.Add(1)
	return domain.AreaBundle{
		AreaKey:     area.Key,
		AreaName:    area.Name,
		BuildID:     fmt.Sprintf("build-%d", n),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// TestBundleCacheOverRedis wires the bundle cache onto real Redis and
// verifies persistence across cache instances, TTL-driven rebuilds, and
// cache clearing.
func TestBundleCacheOverRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	store, err := redisstore.NewStore(startRedis(ctx, t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	area := domain.RaceArea{Key: "alpha", Name: "Race Area Alpha", Lat: 52.1258, Lon: 4.2239}
	builder := &countingBuilder{}
	fake := clockwork.NewFakeClockAt(time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC))
	metrics := observability.NewMetricsForTesting()

	cache := forecast.NewCache(store, builder, nil, fake, 10*time.Minute, metrics, discardLogger())

	first, err := cache.Get(ctx, area)
	require.NoError(t, err)
	assert.Equal(t, "build-1", first.BuildID)

	// A second cache instance over the same Redis sees the persisted entry.
	other := forecast.NewCache(store, builder, nil, fake, 10*time.Minute, metrics, discardLogger())
	second, err := other.Get(ctx, area)
	require.NoError(t, err)
	assert.Equal(t, "build-1", second.BuildID)
	assert.Equal(t, int64(1), builder.calls.Load(), "persisted entry served without a rebuild")

	// Past the TTL the entry stays readable but triggers a rebuild.
	fake.Advance(11 * time.Minute)
	third, err := cache.Get(ctx, area)
	require.NoError(t, err)
	assert.Equal(t, "build-2", third.BuildID)

	entries, err := cache.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bundle:alpha", entries[0].Key)
	assert.Equal(t, "build-2", entries[0].BuildID)

	n, err := cache.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err = cache.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
