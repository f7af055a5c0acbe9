package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/FaizGusion00/weather-web/internal/geo"
	"github.com/FaizGusion00/weather-web/internal/weather"
)

const (
	airCurrentParams = "european_aqi,us_aqi,pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,sulphur_dioxide,ozone"
	airHourlyParams  = "european_aqi,pm10,pm2_5"
)

// AirQualityClient fetches pollutant concentrations and AQI indices.
type AirQualityClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewAirQualityClient creates an air-quality client against the given base
// URL (e.g. https://air-quality-api.open-meteo.com/v1/air-quality).
func NewAirQualityClient(client *http.Client, baseURL string) *AirQualityClient {
	return &AirQualityClient{
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Retry:  DefaultRetryPolicy(),
		},
		circuit: newCircuitBreaker("air-quality"),
	}
}

type airQualityResponse struct {
	Timezone string `json:"timezone"`
	Current  struct {
		Time            string  `json:"time"`
		EuropeanAQI     float64 `json:"european_aqi"`
		USAQI           float64 `json:"us_aqi"`
		PM10            float64 `json:"pm10"`
		PM25            float64 `json:"pm2_5"`
		CarbonMonoxide  float64 `json:"carbon_monoxide"`
		NitrogenDioxide float64 `json:"nitrogen_dioxide"`
		SulphurDioxide  float64 `json:"sulphur_dioxide"`
		Ozone           float64 `json:"ozone"`
	} `json:"current"`
	Hourly struct {
		Time        []string  `json:"time"`
		EuropeanAQI []float64 `json:"european_aqi"`
		PM10        []float64 `json:"pm10"`
		PM25        []float64 `json:"pm2_5"`
	} `json:"hourly"`
}

// Fetch requests current and hourly air-quality data for the coordinate.
func (c *AirQualityClient) Fetch(ctx context.Context, coord geo.Coordinate) (weather.AirQuality, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
		values.Set("current", airCurrentParams)
		values.Set("hourly", airHourlyParams)
		values.Set("timezone", "auto")

		return http.NewRequest(http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return weather.AirQuality{}, err
	}
	defer resp.Body.Close()

	var payload airQualityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.AirQuality{}, fmt.Errorf("%w: decode air-quality payload: %v", ErrProvider, err)
	}

	loc, err := time.LoadLocation(payload.Timezone)
	if err != nil {
		loc = time.UTC
	}

	aq := weather.AirQuality{
		Coordinate:      coord,
		FetchedAt:       time.Now().UTC(),
		Time:            parseLocalTime(payload.Current.Time, loc),
		EuropeanAQI:     payload.Current.EuropeanAQI,
		USAQI:           payload.Current.USAQI,
		PM10:            payload.Current.PM10,
		PM25:            payload.Current.PM25,
		CarbonMonoxide:  payload.Current.CarbonMonoxide,
		NitrogenDioxide: payload.Current.NitrogenDioxide,
		SulphurDioxide:  payload.Current.SulphurDioxide,
		Ozone:           payload.Current.Ozone,
	}

	aq.Hourly = make([]weather.AirQualityHour, 0, len(payload.Hourly.Time))
	for i, ts := range payload.Hourly.Time {
		aq.Hourly = append(aq.Hourly, weather.AirQualityHour{
			Time:        parseLocalTime(ts, loc),
			EuropeanAQI: floatAt(payload.Hourly.EuropeanAQI, i),
			PM10:        floatAt(payload.Hourly.PM10, i),
			PM25:        floatAt(payload.Hourly.PM25, i),
		})
	}

	return aq, nil
}
