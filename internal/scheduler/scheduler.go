package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/FaizGusion00/weather-web/internal/geo"
	"github.com/FaizGusion00/weather-web/internal/weather"
)

// ActiveSource yields the currently authoritative location.
type ActiveSource interface {
	Active() geo.ResolvedLocation
}

// Refresher force-refetches a forecast, repopulating the response cache.
type Refresher interface {
	RefreshForecast(ctx context.Context, coord geo.Coordinate, units weather.Units) (weather.Snapshot, error)
}

// Scheduler periodically refreshes the forecast for the active location so
// interactive reads stay cache hits.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	source    ActiveSource
	units     weather.Units
	interval  time.Duration
}

// New creates a new Scheduler.
func New(source ActiveSource, refresher Refresher, units weather.Units, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		source:    source,
		units:     units,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		loc := s.source.Active()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.refresher.RefreshForecast(ctx, loc.Coordinate, s.units); err != nil {
			log.Warn().Err(err).Str("location", loc.DisplayName).Msg("scheduled forecast refresh failed")
			return
		}
		log.Debug().Str("location", loc.DisplayName).Msg("forecast cache refreshed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
