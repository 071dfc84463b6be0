package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// Scheveningen harbor and Hoek van Holland, roughly 17 km apart.
	const (
		schevLat = 52.0983
		schevLon = 4.2731
		hoekLat  = 51.9775
		hoekLon  = 4.1200
	)

	t.Run("known coastal distance", func(t *testing.T) {
		d := HaversineKm(schevLat, schevLon, hoekLat, hoekLon)
		assert.InDelta(t, 17.0, d, 0.5)
	})

	t.Run("longer distance", func(t *testing.T) {
		// Amsterdam to London.
		d := HaversineKm(52.3676, 4.9041, 51.5072, -0.1276)
		assert.InDelta(t, 358, d, 4)
	})

	t.Run("zero distance", func(t *testing.T) {
		assert.Equal(t, 0.0, HaversineKm(schevLat, schevLon, schevLat, schevLon))
	})

	t.Run("symmetric", func(t *testing.T) {
		ab := HaversineKm(schevLat, schevLon, hoekLat, hoekLon)
		ba := HaversineKm(hoekLat, hoekLon, schevLat, schevLon)
		assert.InDelta(t, ab, ba, 1e-9)
	})
}
