// Command tidecurve prints the synthetic tide model's hourly curve for a
// station, for eyeballing amplitude and phase against published tide tables.
//
// Usage:
//
//	go run ./cmd/tidecurve -station SCHEVNGN -hours 24
//	go run ./cmd/tidecurve -list
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/windwardlabs/regatta-forecast/internal/domain"
	"github.com/windwardlabs/regatta-forecast/internal/stations"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	station := flag.String("station", domain.FallbackStationCode, "tide station code")
	hours := flag.Int("hours", 24, "hours to print")
	start := flag.String("start", "", "start time, RFC3339 (default: current hour)")
	dbPath := flag.String("db", "data/stations.db", "tide station catalog path")
	list := flag.Bool("list", false, "list catalog stations and exit")
	flag.Parse()

	if *list {
		return listStations(*dbPath)
	}

	t0 := time.Now().UTC().Truncate(time.Hour)
	if *start != "" {
		parsed, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			return fmt.Errorf("parse -start: %w", err)
		}
		t0 = parsed.UTC().Truncate(time.Hour)
	}

	fmt.Printf("synthetic tide curve for %s from %s\n\n", *station, t0.Format(time.RFC3339))
	for i := 0; i < *hours; i++ {
		ts := t0.Add(time.Duration(i) * time.Hour)
		h := domain.TideHeight(*station, ts)
		fmt.Printf("%s  %5.2fm  %s\n", ts.Format("Jan 02 15:04"), h, strings.Repeat("#", int(h*20)))
	}
	return nil
}

func listStations(dbPath string) error {
	catalog, err := stations.Open(dbPath)
	if err != nil {
		return err
	}
	defer catalog.Close()

	refs, err := catalog.All(context.Background())
	if err != nil {
		return err
	}
	for _, ref := range refs {
		fmt.Printf("%-10s  %-28s  %8.4f  %8.4f\n", ref.Code, ref.Name, ref.Lat, ref.Lon)
	}
	return nil
}
