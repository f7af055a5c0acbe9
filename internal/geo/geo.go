package geo

import (
	"fmt"
	"math"
)

const (
	// PlacePrecision is the rounding used for place-name cache keys.
	PlacePrecision = 4
	// ForecastPrecision is the coarser rounding used for weather-response
	// cache keys; nearby lookups collapse onto the same entry.
	ForecastPrecision = 2
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the coordinate lies within valid WGS84 bounds.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Longitude)
	}
	return nil
}

// Round returns the coordinate rounded to the given number of decimal
// places. Rounding is idempotent: Round(Round(c)) == Round(c).
func (c Coordinate) Round(places int) Coordinate {
	p := math.Pow10(places)
	return Coordinate{
		Latitude:  math.Round(c.Latitude*p) / p,
		Longitude: math.Round(c.Longitude*p) / p,
	}
}

// PlaceKey returns the cache key used for place names (4 decimal places).
func (c Coordinate) PlaceKey() string {
	r := c.Round(PlacePrecision)
	return fmt.Sprintf("%.4f,%.4f", r.Latitude, r.Longitude)
}

// ForecastKey returns the cache key used for weather responses
// (2 decimal places plus a discriminator for the requested parameter set).
func (c Coordinate) ForecastKey(params string) string {
	r := c.Round(ForecastPrecision)
	return fmt.Sprintf("%.2f,%.2f|%s", r.Latitude, r.Longitude, params)
}

// ResolvedLocation is an authoritative location choice. It is immutable
// once produced; re-resolution yields a new value rather than mutating the
// old one.
type ResolvedLocation struct {
	Coordinate        Coordinate `json:"coordinate"`
	DisplayName       string     `json:"displayName"`
	IsCurrentLocation bool       `json:"isCurrentLocation"`
}
