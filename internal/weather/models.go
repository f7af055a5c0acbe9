package weather

import (
	"fmt"
	"time"

	"github.com/FaizGusion00/weather-web/internal/geo"
)

// Units selects the measurement system requested from the forecast
// provider. Conversion happens server-side via query parameters, so the
// normalized snapshot already carries values in the requested units.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// ParseUnits validates a units string, defaulting empty input to metric.
func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case "":
		return UnitsMetric, nil
	case UnitsMetric, UnitsImperial:
		return Units(s), nil
	default:
		return "", fmt.Errorf("unknown units %q", s)
	}
}

// TemperatureParam returns the provider's temperature_unit value.
func (u Units) TemperatureParam() string {
	if u == UnitsImperial {
		return "fahrenheit"
	}
	return "celsius"
}

// WindSpeedParam returns the provider's wind_speed_unit value.
func (u Units) WindSpeedParam() string {
	if u == UnitsImperial {
		return "mph"
	}
	return "kmh"
}

// Snapshot is the normalized forecast view. Its field names are stable and
// decoupled from any one provider's vocabulary, so swapping providers only
// touches the normalization step in the client.
type Snapshot struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Timezone   string         `json:"timezone"`
	Units      Units          `json:"units"`
	FetchedAt  time.Time      `json:"fetchedAt"`

	Current Current `json:"current"`
	Hourly  []Hour  `json:"hourly"`
	Daily   []Day   `json:"daily"`
}

// Current holds present-moment conditions.
type Current struct {
	Time                time.Time `json:"time"`
	Temperature         float64   `json:"temperature"`
	ApparentTemperature float64   `json:"apparentTemperature"`
	Humidity            float64   `json:"humidityPercent"`
	Precipitation       float64   `json:"precipitationMm"`
	WindSpeed           float64   `json:"windSpeed"`
	WindDirection       int       `json:"windDirectionDeg"`
	Pressure            float64   `json:"pressureHpa"`
	UVIndex             float64   `json:"uvIndex"`
	WeatherCode         int       `json:"weatherCode"`
	IsDay               bool      `json:"isDay"`
}

// Hour is one hourly forecast entry.
type Hour struct {
	Time                     time.Time `json:"time"`
	Temperature              float64   `json:"temperature"`
	PrecipitationProbability float64   `json:"precipitationProbability"`
	Precipitation            float64   `json:"precipitationMm"`
	WindSpeed                float64   `json:"windSpeed"`
	Humidity                 float64   `json:"humidityPercent"`
	WeatherCode              int       `json:"weatherCode"`
}

// Day is one daily forecast entry.
type Day struct {
	Date                        time.Time `json:"date"`
	TemperatureMax              float64   `json:"temperatureMax"`
	TemperatureMin              float64   `json:"temperatureMin"`
	PrecipitationProbabilityMax float64   `json:"precipitationProbabilityMax"`
	PrecipitationSum            float64   `json:"precipitationSumMm"`
	WindSpeedMax                float64   `json:"windSpeedMax"`
	UVIndexMax                  float64   `json:"uvIndexMax"`
	Sunrise                     time.Time `json:"sunrise"`
	Sunset                      time.Time `json:"sunset"`
	WeatherCode                 int       `json:"weatherCode"`
}

// AirQuality holds pollutant concentrations and AQI indices.
type AirQuality struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	FetchedAt  time.Time      `json:"fetchedAt"`

	Time            time.Time `json:"time"`
	EuropeanAQI     float64   `json:"europeanAqi"`
	USAQI           float64   `json:"usAqi"`
	PM10            float64   `json:"pm10"`
	PM25            float64   `json:"pm2_5"`
	CarbonMonoxide  float64   `json:"carbonMonoxide"`
	NitrogenDioxide float64   `json:"nitrogenDioxide"`
	SulphurDioxide  float64   `json:"sulphurDioxide"`
	Ozone           float64   `json:"ozone"`

	Hourly []AirQualityHour `json:"hourly"`
}

// AirQualityHour is one hourly air-quality entry.
type AirQualityHour struct {
	Time        time.Time `json:"time"`
	EuropeanAQI float64   `json:"europeanAqi"`
	PM10        float64   `json:"pm10"`
	PM25        float64   `json:"pm2_5"`
}
