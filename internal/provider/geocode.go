package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/FaizGusion00/weather-web/internal/cache"
	"github.com/FaizGusion00/weather-web/internal/geo"
)

const (
	// minQueryLength is the shortest free-text query worth sending
	// upstream; anything shorter short-circuits to an empty result.
	minQueryLength = 2

	defaultSearchLimit = 10
)

// GeocodeClient performs forward and reverse geocoding. Resolved place
// names are cached by rounded coordinate for the lifetime of the process.
type GeocodeClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	names   *cache.Cache[string]
}

// NewGeocodeClient creates a geocoding client against the given base URL
// (e.g. https://geocoding-api.open-meteo.com/v1/search). The names cache
// is injected so its lifetime is owned by the caller.
func NewGeocodeClient(client *http.Client, baseURL string, names *cache.Cache[string]) *GeocodeClient {
	return &GeocodeClient{
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Retry:  DefaultRetryPolicy(),
		},
		circuit: newCircuitBreaker("geocoding"),
		names:   names,
	}
}

type geocodeResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Country   string  `json:"country"`
	Admin1    string  `json:"admin1"`
	Admin2    string  `json:"admin2"`
	Admin3    string  `json:"admin3"`
}

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
}

// Search performs forward geocoding on free text. Empty, whitespace-only,
// or sub-2-character queries return an empty slice without a network call.
func (c *GeocodeClient) Search(ctx context.Context, query string, limit int) ([]geo.ResolvedLocation, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLength {
		return []geo.ResolvedLocation{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	payload, err := c.lookup(ctx, func(values url.Values) {
		values.Set("name", query)
		values.Set("count", strconv.Itoa(limit))
	})
	if err != nil {
		return nil, err
	}

	locations := make([]geo.ResolvedLocation, 0, len(payload.Results))
	for _, r := range payload.Results {
		locations = append(locations, geo.ResolvedLocation{
			Coordinate:  geo.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude},
			DisplayName: composeName(r),
		})
	}
	return locations, nil
}

// DisplayName reverse-geocodes the literal (unrounded) coordinate into a
// human-readable name. It never fails: when the provider returns nothing
// or errors, a formatted "Location (lat, lon)" fallback is used instead.
// Both real and fallback names are cached by 4-decimal rounded coordinate.
func (c *GeocodeClient) DisplayName(ctx context.Context, coord geo.Coordinate) string {
	key := coord.PlaceKey()
	if name, ok := c.names.Get(key); ok {
		return name
	}

	name := c.resolveName(ctx, coord)
	c.names.Set(key, name)
	return name
}

func (c *GeocodeClient) resolveName(ctx context.Context, coord geo.Coordinate) string {
	payload, err := c.lookup(ctx, func(values url.Values) {
		values.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
		values.Set("count", "1")
	})
	if err != nil {
		log.Warn().Err(err).
			Float64("lat", coord.Latitude).
			Float64("lon", coord.Longitude).
			Msg("reverse geocoding failed, using coordinate fallback")
		return fallbackName(coord)
	}
	if len(payload.Results) == 0 {
		return fallbackName(coord)
	}
	return composeName(payload.Results[0])
}

func (c *GeocodeClient) lookup(ctx context.Context, setParams func(url.Values)) (geocodeResponse, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("language", "en")
		values.Set("format", "json")
		setParams(values)
		return http.NewRequest(http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return geocodeResponse{}, err
	}
	defer resp.Body.Close()

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geocodeResponse{}, fmt.Errorf("%w: decode geocoding payload: %v", ErrProvider, err)
	}
	return payload, nil
}

// composeName appends the most specific administrative subdivision present,
// checking third-level down to country and stopping at the first match.
func composeName(r geocodeResult) string {
	for _, admin := range []string{r.Admin3, r.Admin2, r.Admin1, r.Country} {
		if admin != "" {
			return r.Name + ", " + admin
		}
	}
	return r.Name
}

func fallbackName(coord geo.Coordinate) string {
	r := coord.Round(geo.PlacePrecision)
	return fmt.Sprintf("Location (%.4f, %.4f)", r.Latitude, r.Longitude)
}
