package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	httpapi "github.com/FaizGusion00/weather-web/internal/api/http"
	"github.com/FaizGusion00/weather-web/internal/cache"
	"github.com/FaizGusion00/weather-web/internal/config"
	"github.com/FaizGusion00/weather-web/internal/location"
	"github.com/FaizGusion00/weather-web/internal/prefs"
	"github.com/FaizGusion00/weather-web/internal/provider"
	"github.com/FaizGusion00/weather-web/internal/scheduler"
	"github.com/FaizGusion00/weather-web/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Caches are constructed here and injected; a zero TTL means the
	// entry lives for the whole session (place names).
	forecastCache := cache.New[weather.Snapshot](cfg.WeatherCacheTTL)
	airCache := cache.New[weather.AirQuality](cfg.WeatherCacheTTL)
	nameCache := cache.New[string](0)

	forecastClient := provider.NewForecastClient(httpClient, cfg.ForecastBaseURL)
	airClient := provider.NewAirQualityClient(httpClient, cfg.AirQualityBaseURL)
	geocoder := provider.NewGeocodeClient(httpClient, cfg.GeocodingBaseURL, nameCache)

	store, err := prefs.NewStore(cfg.PrefsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open preference store")
	}

	resolver := location.NewResolver(provider.NewIPLocator(httpClient, cfg.IPLocateURL), cfg.GeoBuffer)
	manager := location.NewManager(resolver, geocoder, store, location.PositionOptions{
		HighAccuracy: cfg.GeoHighAccuracy,
		Timeout:      cfg.GeoTimeout,
		MaximumAge:   cfg.GeoMaxAge,
	}, cfg.DefaultLocation)

	service := weather.NewService(forecastClient, airClient, geocoder, forecastCache, airCache, cfg.ForecastDays)

	// Initial location: the fast path returns immediately; a background
	// refresh may supersede it later.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), cfg.GeoTimeout+cfg.GeoBuffer+5*time.Second)
	active, updates, err := manager.ResolveAtStartup(startupCtx)
	cancelStartup()
	if err != nil {
		log.Warn().Err(err).Str("location", active.DisplayName).Msg("startup location resolution failed, using fallback")
	} else {
		log.Info().Str("location", active.DisplayName).Bool("current", active.IsCurrentLocation).Msg("startup location resolved")
	}
	if updates != nil {
		go func() {
			for loc := range updates {
				log.Info().Str("location", loc.DisplayName).Msg("background refresh superseded startup location")
			}
		}()
	}

	sched := scheduler.New(manager, service, cfg.DefaultUnits, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-web",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Errors cross this boundary as explicit values, not panics.
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-web",
		})
	})

	httpapi.RegisterRoutes(app, service, manager, store)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
