package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FaizGusion00/weather-web/internal/geo"
	"github.com/FaizGusion00/weather-web/internal/weather"
)

const forecastPayload = `{
	"timezone": "UTC",
	"current": {
		"time": "2026-08-23T08:00",
		"temperature_2m": 31.4,
		"relative_humidity_2m": 70,
		"apparent_temperature": 36.2,
		"precipitation": 0.2,
		"weather_code": 3,
		"surface_pressure": 1009.5,
		"wind_speed_10m": 7.6,
		"wind_direction_10m": 220,
		"uv_index": 6.5,
		"is_day": 1
	},
	"hourly": {
		"time": ["2026-08-23T08:00", "2026-08-23T09:00"],
		"temperature_2m": [31.4, 32.0],
		"precipitation": [0.2, 0.0],
		"weather_code": [3, 1],
		"wind_speed_10m": [7.6, 8.1],
		"relative_humidity_2m": [70, 68]
	},
	"daily": {
		"time": ["2026-08-23"],
		"weather_code": [80],
		"temperature_2m_max": [33.1],
		"temperature_2m_min": [24.9],
		"precipitation_sum": [4.7],
		"wind_speed_10m_max": [14.2],
		"uv_index_max": [8.1],
		"sunrise": ["2026-08-23T07:07"],
		"sunset": ["2026-08-23T19:16"]
	}
}`

func TestFetchNormalizesForecast(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		io.WriteString(w, forecastPayload)
	}))
	defer srv.Close()

	client := NewForecastClient(srv.Client(), srv.URL)
	coord := geo.Coordinate{Latitude: 3.1390, Longitude: 101.6869}

	snap, err := client.Fetch(context.Background(), coord, weather.UnitsMetric, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for param, want := range map[string]string{
		"temperature_unit": "celsius",
		"wind_speed_unit":  "kmh",
		"timezone":         "auto",
		"forecast_days":    "7",
		"latitude":         "3.139",
		"longitude":        "101.6869",
	} {
		if got := gotQuery[param]; len(got) != 1 || got[0] != want {
			t.Fatalf("query param %s: got %v, want %q", param, got, want)
		}
	}

	if snap.Current.Temperature != 31.4 {
		t.Fatalf("current temperature: got %v", snap.Current.Temperature)
	}
	if snap.Current.WeatherCode != 3 {
		t.Fatalf("current weather code: got %d", snap.Current.WeatherCode)
	}
	if !snap.Current.IsDay {
		t.Fatal("expected is_day to normalize to true")
	}
	if snap.Current.Pressure != 1009.5 {
		t.Fatalf("pressure: got %v", snap.Current.Pressure)
	}

	if len(snap.Hourly) != 2 {
		t.Fatalf("expected 2 hourly entries, got %d", len(snap.Hourly))
	}
	// precipitation_probability is absent from the payload and must
	// default to zero rather than failing.
	if snap.Hourly[0].PrecipitationProbability != 0 {
		t.Fatalf("expected absent precipitation probability to default to 0, got %v",
			snap.Hourly[0].PrecipitationProbability)
	}
	if snap.Hourly[1].Temperature != 32.0 {
		t.Fatalf("hourly temperature: got %v", snap.Hourly[1].Temperature)
	}

	if len(snap.Daily) != 1 {
		t.Fatalf("expected 1 daily entry, got %d", len(snap.Daily))
	}
	day := snap.Daily[0]
	if day.TemperatureMax != 33.1 || day.TemperatureMin != 24.9 {
		t.Fatalf("daily temperatures: got %v / %v", day.TemperatureMax, day.TemperatureMin)
	}
	if day.Sunrise.IsZero() || day.Sunset.IsZero() {
		t.Fatal("expected sunrise/sunset to be parsed")
	}
	if day.Sunset.Hour() != 19 || day.Sunset.Minute() != 16 {
		t.Fatalf("sunset: got %v", day.Sunset)
	}

	if snap.Timezone != "UTC" {
		t.Fatalf("timezone: got %q", snap.Timezone)
	}
	if snap.Units != weather.UnitsMetric {
		t.Fatalf("units: got %q", snap.Units)
	}
}

func TestFetchImperialUnitsParams(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		io.WriteString(w, `{"timezone":"UTC"}`)
	}))
	defer srv.Close()

	client := NewForecastClient(srv.Client(), srv.URL)
	_, err := client.Fetch(context.Background(), geo.Coordinate{Latitude: 40.71, Longitude: -74.01}, weather.UnitsImperial, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gotQuery["temperature_unit"]; len(got) != 1 || got[0] != "fahrenheit" {
		t.Fatalf("temperature_unit: got %v", got)
	}
	if got := gotQuery["wind_speed_unit"]; len(got) != 1 || got[0] != "mph" {
		t.Fatalf("wind_speed_unit: got %v", got)
	}
}

func TestFetchMalformedPayloadIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"timezone": `)
	}))
	defer srv.Close()

	client := NewForecastClient(srv.Client(), srv.URL)
	_, err := client.Fetch(context.Background(), geo.Coordinate{}, weather.UnitsMetric, 7)
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
