package weather

import (
	"context"
	"errors"
	"fmt"

	"github.com/FaizGusion00/weather-web/internal/cache"
	"github.com/FaizGusion00/weather-web/internal/geo"
)

// ErrFetchFailed is surfaced once per exhausted fetch, wrapping the last
// upstream error.
var ErrFetchFailed = errors.New("weather fetch failed")

// ForecastClient fetches and normalizes a forecast.
type ForecastClient interface {
	Fetch(ctx context.Context, coord geo.Coordinate, units Units, days int) (Snapshot, error)
}

// AirQualityClient fetches and normalizes air-quality data.
type AirQualityClient interface {
	Fetch(ctx context.Context, coord geo.Coordinate) (AirQuality, error)
}

// PlaceSearcher performs forward geocoding on free text.
type PlaceSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]geo.ResolvedLocation, error)
}

// Service orchestrates weather data acquisition. Responses are cached by
// rounded coordinate so multiple UI surfaces asking for the same place
// within the TTL share one upstream call.
type Service struct {
	forecast ForecastClient
	air      AirQualityClient
	places   PlaceSearcher

	forecastCache *cache.Cache[Snapshot]
	airCache      *cache.Cache[AirQuality]

	days int
}

// NewService creates a Service. The caches are injected so their lifetime
// is owned by the caller.
func NewService(
	forecast ForecastClient,
	air AirQualityClient,
	places PlaceSearcher,
	forecastCache *cache.Cache[Snapshot],
	airCache *cache.Cache[AirQuality],
	days int,
) *Service {
	if days <= 0 {
		days = 7
	}
	return &Service{
		forecast:      forecast,
		air:           air,
		places:        places,
		forecastCache: forecastCache,
		airCache:      airCache,
		days:          days,
	}
}

// GetForecast returns the forecast for the coordinate, served from cache
// when a fresh entry exists. Failures are never cached.
func (s *Service) GetForecast(ctx context.Context, coord geo.Coordinate, units Units) (Snapshot, error) {
	key := s.forecastKey(coord, units)
	if snap, ok := s.forecastCache.Get(key); ok {
		return snap, nil
	}
	return s.fetchForecast(ctx, key, coord, units)
}

// RefreshForecast bypasses the cache read and repopulates it on success.
// The scheduler uses this to keep the active location's entry warm.
func (s *Service) RefreshForecast(ctx context.Context, coord geo.Coordinate, units Units) (Snapshot, error) {
	return s.fetchForecast(ctx, s.forecastKey(coord, units), coord, units)
}

func (s *Service) fetchForecast(ctx context.Context, key string, coord geo.Coordinate, units Units) (Snapshot, error) {
	snap, err := s.forecast.Fetch(ctx, coord, units, s.days)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	s.forecastCache.Set(key, snap)
	return snap, nil
}

// GetAirQuality returns air-quality data for the coordinate, cached the
// same way as forecasts.
func (s *Service) GetAirQuality(ctx context.Context, coord geo.Coordinate) (AirQuality, error) {
	key := coord.ForecastKey("air")
	if aq, ok := s.airCache.Get(key); ok {
		return aq, nil
	}

	aq, err := s.air.Fetch(ctx, coord)
	if err != nil {
		return AirQuality{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	s.airCache.Set(key, aq)
	return aq, nil
}

// SearchPlaces performs forward geocoding. Short queries return an empty
// slice without touching the network (enforced by the client).
func (s *Service) SearchPlaces(ctx context.Context, query string) ([]geo.ResolvedLocation, error) {
	return s.places.Search(ctx, query, 0)
}

func (s *Service) forecastKey(coord geo.Coordinate, units Units) string {
	return coord.ForecastKey(fmt.Sprintf("forecast|%s|%d", units, s.days))
}
