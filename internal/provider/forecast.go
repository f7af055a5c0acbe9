package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/FaizGusion00/weather-web/internal/geo"
	"github.com/FaizGusion00/weather-web/internal/weather"
)

const (
	currentParams = "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,weather_code,surface_pressure,wind_speed_10m,wind_direction_10m,uv_index,is_day"
	hourlyParams  = "temperature_2m,precipitation_probability,precipitation,weather_code,wind_speed_10m,relative_humidity_2m"
	dailyParams   = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max,precipitation_sum,wind_speed_10m_max,uv_index_max,sunrise,sunset"

	forecastTimeLayout = "2006-01-02T15:04"
	forecastDateLayout = "2006-01-02"
)

// ForecastClient fetches current/hourly/daily forecasts and normalizes
// them into the stable weather.Snapshot schema.
type ForecastClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewForecastClient creates a forecast client against the given base URL
// (e.g. https://api.open-meteo.com/v1/forecast).
func NewForecastClient(client *http.Client, baseURL string) *ForecastClient {
	return &ForecastClient{
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Retry:  DefaultRetryPolicy(),
		},
		circuit: newCircuitBreaker("forecast"),
	}
}

type forecastResponse struct {
	Timezone string `json:"timezone"`
	Current  struct {
		Time                string  `json:"time"`
		Temperature         float64 `json:"temperature_2m"`
		Humidity            float64 `json:"relative_humidity_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		Precipitation       float64 `json:"precipitation"`
		WeatherCode         int     `json:"weather_code"`
		SurfacePressure     float64 `json:"surface_pressure"`
		WindSpeed           float64 `json:"wind_speed_10m"`
		WindDirection       int     `json:"wind_direction_10m"`
		UVIndex             float64 `json:"uv_index"`
		IsDay               int     `json:"is_day"`
	} `json:"current"`
	Hourly struct {
		Time                     []string  `json:"time"`
		Temperature              []float64 `json:"temperature_2m"`
		PrecipitationProbability []float64 `json:"precipitation_probability"`
		Precipitation            []float64 `json:"precipitation"`
		WeatherCode              []int     `json:"weather_code"`
		WindSpeed                []float64 `json:"wind_speed_10m"`
		Humidity                 []float64 `json:"relative_humidity_2m"`
	} `json:"hourly"`
	Daily struct {
		Time                        []string  `json:"time"`
		WeatherCode                 []int     `json:"weather_code"`
		TemperatureMax              []float64 `json:"temperature_2m_max"`
		TemperatureMin              []float64 `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
		PrecipitationSum            []float64 `json:"precipitation_sum"`
		WindSpeedMax                []float64 `json:"wind_speed_10m_max"`
		UVIndexMax                  []float64 `json:"uv_index_max"`
		Sunrise                     []string  `json:"sunrise"`
		Sunset                      []string  `json:"sunset"`
	} `json:"daily"`
}

// Fetch requests the current/hourly/daily parameter sets for the
// coordinate, unit-converted server-side, and maps the provider's field
// names into the Snapshot schema. Absent optional fields decode to zero.
func (c *ForecastClient) Fetch(ctx context.Context, coord geo.Coordinate, units weather.Units, days int) (weather.Snapshot, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
		values.Set("current", currentParams)
		values.Set("hourly", hourlyParams)
		values.Set("daily", dailyParams)
		values.Set("temperature_unit", units.TemperatureParam())
		values.Set("wind_speed_unit", units.WindSpeedParam())
		values.Set("timezone", "auto")
		values.Set("forecast_days", strconv.Itoa(days))

		return http.NewRequest(http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return weather.Snapshot{}, err
	}
	defer resp.Body.Close()

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: decode forecast payload: %v", ErrProvider, err)
	}

	return normalizeForecast(coord, units, payload), nil
}

func normalizeForecast(coord geo.Coordinate, units weather.Units, payload forecastResponse) weather.Snapshot {
	loc, err := time.LoadLocation(payload.Timezone)
	if err != nil {
		log.Warn().Str("timezone", payload.Timezone).Err(err).Msg("unknown forecast timezone, using UTC")
		loc = time.UTC
	}

	snap := weather.Snapshot{
		Coordinate: coord,
		Timezone:   payload.Timezone,
		Units:      units,
		FetchedAt:  time.Now().UTC(),
	}

	snap.Current = weather.Current{
		Time:                parseLocalTime(payload.Current.Time, loc),
		Temperature:         payload.Current.Temperature,
		ApparentTemperature: payload.Current.ApparentTemperature,
		Humidity:            payload.Current.Humidity,
		Precipitation:       payload.Current.Precipitation,
		WindSpeed:           payload.Current.WindSpeed,
		WindDirection:       payload.Current.WindDirection,
		Pressure:            payload.Current.SurfacePressure,
		UVIndex:             payload.Current.UVIndex,
		WeatherCode:         payload.Current.WeatherCode,
		IsDay:               payload.Current.IsDay == 1,
	}

	snap.Hourly = make([]weather.Hour, 0, len(payload.Hourly.Time))
	for i, ts := range payload.Hourly.Time {
		h := weather.Hour{Time: parseLocalTime(ts, loc)}
		h.Temperature = floatAt(payload.Hourly.Temperature, i)
		h.PrecipitationProbability = floatAt(payload.Hourly.PrecipitationProbability, i)
		h.Precipitation = floatAt(payload.Hourly.Precipitation, i)
		h.WindSpeed = floatAt(payload.Hourly.WindSpeed, i)
		h.Humidity = floatAt(payload.Hourly.Humidity, i)
		h.WeatherCode = intAt(payload.Hourly.WeatherCode, i)
		snap.Hourly = append(snap.Hourly, h)
	}

	snap.Daily = make([]weather.Day, 0, len(payload.Daily.Time))
	for i, ds := range payload.Daily.Time {
		d := weather.Day{}
		if t, err := time.ParseInLocation(forecastDateLayout, ds, loc); err == nil {
			d.Date = t
		}
		d.TemperatureMax = floatAt(payload.Daily.TemperatureMax, i)
		d.TemperatureMin = floatAt(payload.Daily.TemperatureMin, i)
		d.PrecipitationProbabilityMax = floatAt(payload.Daily.PrecipitationProbabilityMax, i)
		d.PrecipitationSum = floatAt(payload.Daily.PrecipitationSum, i)
		d.WindSpeedMax = floatAt(payload.Daily.WindSpeedMax, i)
		d.UVIndexMax = floatAt(payload.Daily.UVIndexMax, i)
		d.WeatherCode = intAt(payload.Daily.WeatherCode, i)
		if i < len(payload.Daily.Sunrise) {
			d.Sunrise = parseLocalTime(payload.Daily.Sunrise[i], loc)
		}
		if i < len(payload.Daily.Sunset) {
			d.Sunset = parseLocalTime(payload.Daily.Sunset[i], loc)
		}
		snap.Daily = append(snap.Daily, d)
	}

	return snap
}

func parseLocalTime(s string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation(forecastTimeLayout, s, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func floatAt(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}

func intAt(values []int, i int) int {
	if i < len(values) {
		return values[i]
	}
	return 0
}
