package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/FaizGusion00/weather-web/internal/geo"
	"github.com/FaizGusion00/weather-web/internal/weather"
)

type AppConfig struct {
	Port string

	// Outbound HTTP client timeout for provider calls.
	HTTPTimeout time.Duration

	ForecastBaseURL   string
	AirQualityBaseURL string
	GeocodingBaseURL  string
	IPLocateURL       string

	// WeatherCacheTTL bounds how long forecast/air-quality responses are
	// served from cache.
	WeatherCacheTTL time.Duration

	// Geolocation request options.
	GeoTimeout      time.Duration
	GeoBuffer       time.Duration
	GeoHighAccuracy bool
	GeoMaxAge       time.Duration

	// RefreshInterval controls the background forecast refresh job.
	RefreshInterval time.Duration

	// PrefsDir is the preference store directory ("" = ~/.weather-web).
	PrefsDir string

	DefaultUnits    weather.Units
	DefaultLocation geo.ResolvedLocation
	ForecastDays    int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msgf("no .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.ForecastBaseURL = getenvDefault("FORECAST_BASE_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.AirQualityBaseURL = getenvDefault("AIR_QUALITY_BASE_URL", "https://air-quality-api.open-meteo.com/v1/air-quality")
	cfg.GeocodingBaseURL = getenvDefault("GEOCODING_BASE_URL", "https://geocoding-api.open-meteo.com/v1/search")
	cfg.IPLocateURL = getenvDefault("IP_LOCATE_URL", "http://ip-api.com/json/?fields=status,message,lat,lon")

	if cfg.WeatherCacheTTL, err = getenvDuration("WEATHER_CACHE_TTL", "20m"); err != nil {
		return nil, err
	}
	if cfg.GeoTimeout, err = getenvDuration("GEO_TIMEOUT", "8s"); err != nil {
		return nil, err
	}
	if cfg.GeoBuffer, err = getenvDuration("GEO_BUFFER", "2s"); err != nil {
		return nil, err
	}
	if cfg.GeoMaxAge, err = getenvDuration("GEO_MAX_AGE", "1m"); err != nil {
		return nil, err
	}
	cfg.GeoHighAccuracy = getenvBool("GEO_HIGH_ACCURACY", false)

	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.PrefsDir = os.Getenv("PREFS_DIR")
	cfg.ForecastDays = getenvInt("FORECAST_DAYS", 7)

	units, err := weather.ParseUnits(os.Getenv("DEFAULT_UNITS"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_UNITS: %w", err)
	}
	cfg.DefaultUnits = units

	loc, err := loadDefaultLocation()
	if err != nil {
		return nil, err
	}
	cfg.DefaultLocation = loc

	return cfg, nil
}

// loadDefaultLocation reads the fallback location used when neither a
// saved preference nor the current location is available.
func loadDefaultLocation() (geo.ResolvedLocation, error) {
	loc := geo.ResolvedLocation{
		Coordinate:  geo.Coordinate{Latitude: 3.1390, Longitude: 101.6869},
		DisplayName: "Kuala Lumpur",
	}

	if v := os.Getenv("DEFAULT_LOCATION_LAT"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return geo.ResolvedLocation{}, fmt.Errorf("invalid DEFAULT_LOCATION_LAT: %w", err)
		}
		loc.Coordinate.Latitude = lat
	}
	if v := os.Getenv("DEFAULT_LOCATION_LON"); v != "" {
		lon, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return geo.ResolvedLocation{}, fmt.Errorf("invalid DEFAULT_LOCATION_LON: %w", err)
		}
		loc.Coordinate.Longitude = lon
	}
	if v := os.Getenv("DEFAULT_LOCATION_NAME"); v != "" {
		loc.DisplayName = v
	}

	if err := loc.Coordinate.Validate(); err != nil {
		return geo.ResolvedLocation{}, fmt.Errorf("invalid default location: %w", err)
	}
	return loc, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
