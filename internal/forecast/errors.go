package forecast

import "errors"

// ErrWeatherUnavailable is returned when every wind source failed and no
// cached bundle, however stale, exists to serve instead. Callers must show
// an explicit unavailable state rather than fabricated numbers.
var ErrWeatherUnavailable = errors.New("weather data unavailable")

// ErrNotFound is returned by Store implementations for absent keys.
var ErrNotFound = errors.New("key not found")
