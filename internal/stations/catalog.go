// Package stations maintains the tide-station catalog and resolves race
// areas to the station that serves them.
package stations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
)

// ErrStationNotFound marks a lookup that matched no catalog row. Callers
// distinguish it from transport/storage failures with errors.Is.
var ErrStationNotFound = errors.New("tide station not found")

// Catalog is the sqlite-backed tide-station directory. The database is
// provisioned idempotently on open from the embedded seed, so a fresh
// deployment needs no manual setup.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating and seeding if necessary) the catalog at dbPath.
// ":memory:" is accepted for tests.
func Open(dbPath string) (*Catalog, error) {
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open station catalog: %w", err)
	}

	// The catalog is tiny and read-mostly; a single connection keeps
	// ":memory:" databases coherent across the pool.
	db.SetMaxOpenConns(1)
	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	_, _ = db.Exec("PRAGMA synchronous=NORMAL")

	if err := provision(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("provision station catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// ByCode returns the station registered under code, or ErrStationNotFound.
func (c *Catalog) ByCode(ctx context.Context, code string) (*domain.StationRef, error) {
	var ref domain.StationRef
	err := c.db.QueryRowContext(ctx,
		"SELECT code, name, latitude, longitude FROM tide_stations WHERE code = ?",
		code,
	).Scan(&ref.Code, &ref.Name, &ref.Lat, &ref.Lon)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("station %s: %w", code, ErrStationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query station by code: %w", err)
	}
	return &ref, nil
}

// Nearest returns the station closest to (lat, lon) within maxKm, with
// DistanceKm populated, or ErrStationNotFound when none is in range. A
// bounding-box prefilter keeps the scan small before exact great-circle
// distances are computed.
func (c *Catalog) Nearest(ctx context.Context, lat, lon, maxKm float64) (*domain.StationRef, error) {
	// 1 degree of latitude is roughly 111 km; the 1.5 margin keeps stations
	// near the box edge from being cut off before the exact distance check.
	latDelta := (maxKm / 111.0) * 1.5
	lonDelta := (maxKm / (111.0 * math.Cos(lat*math.Pi/180))) * 1.5

	rows, err := c.db.QueryContext(ctx, `
		SELECT code, name, latitude, longitude
		FROM tide_stations
		WHERE latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?
	`,
		lat-latDelta, lat+latDelta,
		lon-lonDelta, lon+lonDelta)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var candidates []domain.StationRef
	for rows.Next() {
		var ref domain.StationRef
		if err := rows.Scan(&ref.Code, &ref.Name, &ref.Lat, &ref.Lon); err != nil {
			continue
		}

		distance := domain.HaversineKm(lat, lon, ref.Lat, ref.Lon)
		if distance <= maxKm {
			ref.DistanceKm = &distance
			candidates = append(candidates, ref)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan stations: %w", err)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no station within %.0f km of %.4f, %.4f: %w",
			maxKm, lat, lon, ErrStationNotFound)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return *candidates[i].DistanceKm < *candidates[j].DistanceKm
	})
	return &candidates[0], nil
}

// All returns every catalog row, ordered by code. Used by the tidecurve
// tool to list selectable stations.
func (c *Catalog) All(ctx context.Context) ([]domain.StationRef, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT code, name, latitude, longitude FROM tide_stations ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var out []domain.StationRef
	for rows.Next() {
		var ref domain.StationRef
		if err := rows.Scan(&ref.Code, &ref.Name, &ref.Lat, &ref.Lon); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan stations: %w", err)
	}
	return out, nil
}
