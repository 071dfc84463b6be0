package stations

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed stations.json
var embeddedSeed []byte

// seedStation mirrors one row of the embedded seed file.
type seedStation struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// provision creates the schema and loads the embedded seed. Both steps are
// idempotent: reopening an already-provisioned catalog changes nothing.
func provision(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tide_stations (
			code      TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			country   TEXT,
			latitude  REAL NOT NULL,
			longitude REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tide_stations_coords ON tide_stations(latitude, longitude);
	`)
	if err != nil {
		return fmt.Errorf("create tide_stations table: %w", err)
	}

	var seed []seedStation
	if err := json.Unmarshal(embeddedSeed, &seed); err != nil {
		return fmt.Errorf("parse embedded station seed: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT OR IGNORE INTO tide_stations (code, name, country, latitude, longitude) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range seed {
		if _, err := stmt.Exec(s.Code, s.Name, s.Country, s.Lat, s.Lon); err != nil {
			return fmt.Errorf("insert station %s: %w", s.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit station seed: %w", err)
	}
	return nil
}
