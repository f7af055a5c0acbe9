package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/FaizGusion00/weather-web/internal/geo"
	"github.com/FaizGusion00/weather-web/internal/location"
)

// IPLocator is a position source backed by an IP-geolocation endpoint.
// It performs a single GET per call: the resolver owns timeout racing and
// the request must not be retried behind its back.
type IPLocator struct {
	endpoint   string
	httpClient *http.Client
}

// NewIPLocator creates a locator against the given endpoint
// (e.g. http://ip-api.com/json/?fields=status,message,lat,lon).
func NewIPLocator(client *http.Client, endpoint string) *IPLocator {
	return &IPLocator{endpoint: endpoint, httpClient: client}
}

type ipLocateResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Position implements location.PositionSource.
func (l *IPLocator) Position(ctx context.Context, opts location.PositionOptions) (geo.Coordinate, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("build position request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return geo.Coordinate{}, ctx.Err()
		}
		return geo.Coordinate{}, fmt.Errorf("%w: %v", location.ErrPositionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return geo.Coordinate{}, location.ErrPermissionDenied
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return geo.Coordinate{}, fmt.Errorf("%w: status %d", location.ErrPositionUnavailable, resp.StatusCode)
	}

	var payload ipLocateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: decode position payload: %v", location.ErrPositionUnavailable, err)
	}
	if payload.Status != "success" {
		return geo.Coordinate{}, fmt.Errorf("%w: %s", location.ErrPositionUnavailable, payload.Message)
	}

	return geo.Coordinate{Latitude: payload.Lat, Longitude: payload.Lon}, nil
}
