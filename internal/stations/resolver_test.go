package stations

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolverStaticMapping(t *testing.T) {
	c := openTestCatalog(t)
	r := NewResolver(c, true, 150, discardLogger())

	area := domain.RaceArea{Key: "alpha", Lat: 52.1258, Lon: 4.2239, TideStationCode: "SCHEVNGN"}

	ref, err := r.Resolve(context.Background(), area)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "SCHEVNGN", ref.Code)
	assert.Nil(t, ref.DistanceKm, "static mapping carries no computed distance")
}

func TestResolverNearestFallback(t *testing.T) {
	c := openTestCatalog(t)
	r := NewResolver(c, true, 150, discardLogger())

	area := domain.RaceArea{Key: "delta", Lat: 52.09, Lon: 4.15}

	ref, err := r.Resolve(context.Background(), area)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "SCHEVNGN", ref.Code)
	require.NotNil(t, ref.DistanceKm)
	assert.Less(t, *ref.DistanceKm, 150.0)
}

func TestResolverFallbackDisabled(t *testing.T) {
	c := openTestCatalog(t)
	r := NewResolver(c, false, 150, discardLogger())

	area := domain.RaceArea{Key: "delta", Lat: 52.09, Lon: 4.15}

	ref, err := r.Resolve(context.Background(), area)
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestResolverStaleStaticCodeFallsThrough(t *testing.T) {
	c := openTestCatalog(t)

	area := domain.RaceArea{Key: "alpha", Lat: 52.1258, Lon: 4.2239, TideStationCode: "RETIRED"}

	t.Run("fallback enabled finds nearest", func(t *testing.T) {
		r := NewResolver(c, true, 150, discardLogger())
		ref, err := r.Resolve(context.Background(), area)
		require.NoError(t, err)
		require.NotNil(t, ref)
		assert.Equal(t, "SCHEVNGN", ref.Code)
	})

	t.Run("fallback disabled resolves to nothing", func(t *testing.T) {
		r := NewResolver(c, false, 150, discardLogger())
		ref, err := r.Resolve(context.Background(), area)
		require.NoError(t, err)
		assert.Nil(t, ref)
	})
}

func TestResolverNothingInRange(t *testing.T) {
	c := openTestCatalog(t)
	r := NewResolver(c, true, 150, discardLogger())

	area := domain.RaceArea{Key: "remote", Lat: 45.0, Lon: -30.0}

	ref, err := r.Resolve(context.Background(), area)
	require.NoError(t, err)
	assert.Nil(t, ref)
}
