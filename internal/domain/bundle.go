package domain

import "time"

// RaceArea identifies one offshore race area. Areas are loaded once at
// startup from the registry and never mutated.
type RaceArea struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`

	// TideStationCode is the statically mapped tide station for this area,
	// empty when the area relies on nearest-station resolution.
	TideStationCode string `json:"tide_station_code,omitempty"`
}

// StationRef identifies the tide station serving an area. It is an
// identity/label for attribution; DistanceKm is set only when the station
// was found by nearest-distance search rather than the static mapping.
type StationRef struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Lat        float64  `json:"lat,omitempty"`
	Lon        float64  `json:"lon,omitempty"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// FallbackStation is the synthetic default identity used when no tide
// station resolves. The name is deliberately distinguishable so
// presentation layers can disclose reduced confidence.
func FallbackStation() StationRef {
	return StationRef{Code: FallbackStationCode, Name: "Fallback Model"}
}

// FallbackStationCode keys the synthetic model's default constants.
const FallbackStationCode = "FALLBACK"

// SourceAttribution records which upstream served each section of a bundle.
// Wave is empty when the wave provider was down and the wave columns are
// null-filled.
type SourceAttribution struct {
	Wind        string     `json:"wind"`
	Wave        string     `json:"wave,omitempty"`
	Tide        string     `json:"tide"`
	TideStation StationRef `json:"tide_station"`
}

// AreaBundle is the aggregate root: the complete current + hourly forecast
// package for one race area. Bundles are immutable once returned; a rebuild
// supersedes the previous bundle, it never mutates it.
type AreaBundle struct {
	AreaKey     string            `json:"area_key"`
	AreaName    string            `json:"area_name"`
	BuildID     string            `json:"build_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Sources     SourceAttribution `json:"sources"`

	Wind        WindReading    `json:"wind"`
	Wave        WaveReading    `json:"wave"`
	Tide        CurrentReading `json:"tide"`
	Temperature CurrentReading `json:"temperature"`
	CloudCover  CurrentReading `json:"cloud_cover"`

	Hourly HourlySeries `json:"hourly"`
}
