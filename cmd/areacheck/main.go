// Command areacheck validates a race-area registry file against the tide
// station catalog before rollout: registry syntax, static station mappings,
// and nearest-station coverage for unmapped areas.
//
// Usage:
//
//	go run ./cmd/areacheck -areas new-areas.json -db data/stations.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/windwardlabs/regatta-forecast/internal/areas"
	"github.com/windwardlabs/regatta-forecast/internal/stations"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	areasFile := flag.String("areas", "", "race areas JSON file (default: embedded registry)")
	dbPath := flag.String("db", "data/stations.db", "tide station catalog path")
	maxKm := flag.Float64("max-distance-km", 150, "nearest-station cutoff")
	flag.Parse()

	registry, err := areas.Load(*areasFile)
	if err != nil {
		return err
	}

	catalog, err := stations.Open(*dbPath)
	if err != nil {
		return err
	}
	defer catalog.Close()

	ctx := context.Background()
	failed := 0
	for _, area := range registry.All() {
		if area.TideStationCode != "" {
			if _, err := catalog.ByCode(ctx, area.TideStationCode); err != nil {
				fmt.Printf("FAIL  %-10s static station %q: %v\n", area.Key, area.TideStationCode, err)
				failed++
				continue
			}
			fmt.Printf("ok    %-10s static station %s\n", area.Key, area.TideStationCode)
			continue
		}

		ref, err := catalog.Nearest(ctx, area.Lat, area.Lon, *maxKm)
		if err != nil {
			// Not fatal: the builder degrades to the synthetic model,
			// but an operator should know before race week.
			fmt.Printf("WARN  %-10s no station within %.0f km, tide will be synthetic\n", area.Key, *maxKm)
			continue
		}
		fmt.Printf("ok    %-10s nearest station %s (%.1f km)\n", area.Key, ref.Code, *ref.DistanceKm)
	}

	fmt.Printf("\n%d areas checked\n", registry.Len())
	if failed > 0 {
		return fmt.Errorf("%d area(s) failed validation", failed)
	}
	return nil
}
