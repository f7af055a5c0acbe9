package httpapi

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/FaizGusion00/weather-web/internal/geo"
	"github.com/FaizGusion00/weather-web/internal/location"
	"github.com/FaizGusion00/weather-web/internal/prefs"
	"github.com/FaizGusion00/weather-web/internal/weather"
)

var validate = validator.New()

// WeatherService is the weather API surface consumed by the handlers.
type WeatherService interface {
	GetForecast(ctx context.Context, coord geo.Coordinate, units weather.Units) (weather.Snapshot, error)
	GetAirQuality(ctx context.Context, coord geo.Coordinate) (weather.AirQuality, error)
	SearchPlaces(ctx context.Context, query string) ([]geo.ResolvedLocation, error)
}

// LocationManager is the location API surface consumed by the handlers.
type LocationManager interface {
	Active() geo.ResolvedLocation
	SetLocation(loc geo.ResolvedLocation) error
	RefreshCurrent(ctx context.Context) (geo.ResolvedLocation, error)
	Remember() bool
	SetRemember(enabled bool) error
}

// UnitsStore persists the unit-system preference.
type UnitsStore interface {
	SaveUnits(units string) error
	LoadUnits() (string, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc WeatherService, mgr LocationManager, units UnitsStore) {
	v1 := app.Group("/api/v1")

	v1.Get("/location", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"location": mgr.Active(),
			"remember": mgr.Remember(),
		})
	})

	v1.Post("/location", func(c *fiber.Ctx) error {
		var body locationBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := geo.ResolvedLocation{
			Coordinate:  geo.Coordinate{Latitude: body.Latitude, Longitude: body.Longitude},
			DisplayName: body.DisplayName,
		}
		if err := mgr.SetLocation(loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(loc)
	})

	v1.Post("/location/refresh", func(c *fiber.Ctx) error {
		loc, err := mgr.RefreshCurrent(c.Context())
		if err != nil {
			return mapError(err)
		}
		return c.JSON(loc)
	})

	v1.Put("/location/remember", func(c *fiber.Ctx) error {
		var body rememberBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := mgr.SetRemember(*body.Enabled); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update preference")
		}
		return c.JSON(fiber.Map{"remember": *body.Enabled})
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		coord, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		units, err := weather.ParseUnits(c.Query("units"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap, err := svc.GetForecast(c.Context(), coord, units)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(snap)
	})

	v1.Get("/weather/air-quality", func(c *fiber.Ctx) error {
		coord, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		aq, err := svc.GetAirQuality(c.Context(), coord)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(aq)
	})

	v1.Get("/places/search", func(c *fiber.Ctx) error {
		results, err := svc.SearchPlaces(c.Context(), c.Query("q"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{"results": results})
	})

	v1.Get("/preferences/units", func(c *fiber.Ctx) error {
		stored, err := units.LoadUnits()
		if err != nil {
			if errors.Is(err, prefs.ErrNotFound) {
				return c.JSON(fiber.Map{"system": string(weather.UnitsMetric)})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load preference")
		}
		return c.JSON(fiber.Map{"system": stored})
	})

	v1.Put("/preferences/units", func(c *fiber.Ctx) error {
		var body unitsBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := units.SaveUnits(body.System); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save preference")
		}
		return c.JSON(fiber.Map{"system": body.System})
	})
}

// locationBody is the payload for manually selecting a location.
type locationBody struct {
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	DisplayName string  `json:"displayName" validate:"required"`
}

type rememberBody struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type unitsBody struct {
	System string `json:"system" validate:"required,oneof=metric imperial"`
}

// coordQuery holds the lat/lon query parameters.
type coordQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

func parseCoordQuery(c *fiber.Ctx) (geo.Coordinate, error) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return geo.Coordinate{}, errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Coordinate{}, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return geo.Coordinate{}, errors.New("invalid lon")
	}

	q := coordQuery{Lat: lat, Lon: lon}
	if err := validate.Struct(q); err != nil {
		return geo.Coordinate{}, err
	}
	return geo.Coordinate{Latitude: lat, Longitude: lon}, nil
}

// mapError converts typed domain failures into HTTP error values so the
// UI can render them declaratively.
func mapError(err error) *fiber.Error {
	switch {
	case errors.Is(err, location.ErrPermissionDenied):
		return fiber.NewError(fiber.StatusForbidden, "location permission denied")
	case errors.Is(err, location.ErrTimeout):
		return fiber.NewError(fiber.StatusGatewayTimeout, "current location request timed out")
	case errors.Is(err, location.ErrUnsupported), errors.Is(err, location.ErrPositionUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "current location is unavailable")
	case errors.Is(err, weather.ErrFetchFailed):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusBadGateway, "upstream request failed")
	}
}
