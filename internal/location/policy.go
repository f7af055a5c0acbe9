package location

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/FaizGusion00/weather-web/internal/geo"
	"github.com/FaizGusion00/weather-web/internal/prefs"
)

// Namer resolves a coordinate into a display name. Implementations never
// fail; they fall back to a formatted coordinate string.
type Namer interface {
	DisplayName(ctx context.Context, coord geo.Coordinate) string
}

// PreferenceStore is the slice of the preference adapter the policy needs.
type PreferenceStore interface {
	LoadLocation() (prefs.LocationPreference, error)
	SaveLocation(prefs.LocationPreference) error
	ClearLocation() error
}

// Manager decides which location is authoritative. It holds the active
// location; writers race under last-write-wins semantics: a manual
// selection and a still-pending background refresh are intentionally
// unordered, and whichever completes later is what the caller sees.
type Manager struct {
	resolver *Resolver
	namer    Namer
	store    PreferenceStore
	opts     PositionOptions

	defaultLocation geo.ResolvedLocation

	mu       sync.RWMutex
	active   geo.ResolvedLocation
	remember bool
}

// NewManager creates a Manager. defaultLocation is the hardcoded fallback
// used when no preference exists and the current location cannot be
// resolved.
func NewManager(resolver *Resolver, namer Namer, store PreferenceStore, opts PositionOptions, defaultLocation geo.ResolvedLocation) *Manager {
	return &Manager{
		resolver:        resolver,
		namer:           namer,
		store:           store,
		opts:            opts,
		defaultLocation: defaultLocation,
		active:          defaultLocation,
	}
}

// ResolveAtStartup determines the initial location. The first return value
// is available immediately. When a saved non-current location is restored,
// a background current-location refresh runs and, if it succeeds, its
// result is delivered on the returned channel (then the channel closes);
// the channel is nil when no background refresh was started. When neither
// a preference nor the current location is available, the default location
// is returned together with the resolution error.
func (m *Manager) ResolveAtStartup(ctx context.Context) (geo.ResolvedLocation, <-chan geo.ResolvedLocation, error) {
	pref, err := m.store.LoadLocation()
	if err != nil {
		if !errors.Is(err, prefs.ErrCorrupt) {
			return m.defaultLocation, nil, err
		}
		// Corrupt preference: discard it and resolve from scratch.
		log.Warn().Err(err).Msg("discarding corrupt location preference")
		pref = prefs.LocationPreference{}
	}

	m.mu.Lock()
	m.remember = pref.RememberLocation
	m.mu.Unlock()

	if pref.RememberLocation && pref.LastCoordinate != nil && pref.LastDisplayName != "" {
		restored := geo.ResolvedLocation{
			Coordinate:        *pref.LastCoordinate,
			DisplayName:       pref.LastDisplayName,
			IsCurrentLocation: pref.WasCurrentLocation,
		}
		m.setActive(restored)

		if pref.WasCurrentLocation {
			return restored, nil, nil
		}

		// The saved location was a manual pick; opportunistically refresh
		// the real current location without blocking the restored result.
		updates := make(chan geo.ResolvedLocation, 1)
		go func() {
			defer close(updates)
			refreshed, err := m.RefreshCurrent(context.Background())
			if err != nil {
				log.Warn().Err(err).Msg("background location refresh failed")
				return
			}
			updates <- refreshed
		}()
		return restored, updates, nil
	}

	current, err := m.RefreshCurrent(ctx)
	if err != nil {
		m.setActive(m.defaultLocation)
		return m.defaultLocation, nil, err
	}
	return current, nil, nil
}

// RefreshCurrent resolves the device's current position, names it, makes
// it active, and persists it when remembering is enabled. On failure the
// previously active location is left untouched and the error propagates.
func (m *Manager) RefreshCurrent(ctx context.Context) (geo.ResolvedLocation, error) {
	coord, err := m.resolver.Resolve(ctx, m.opts)
	if err != nil {
		return geo.ResolvedLocation{}, err
	}

	loc := geo.ResolvedLocation{
		Coordinate:        coord,
		DisplayName:       m.namer.DisplayName(ctx, coord),
		IsCurrentLocation: true,
	}
	m.setActive(loc)
	m.persist(loc)
	return loc, nil
}

// SetLocation makes a manually chosen location active.
func (m *Manager) SetLocation(loc geo.ResolvedLocation) error {
	if err := loc.Coordinate.Validate(); err != nil {
		return err
	}
	m.setActive(loc)
	m.persist(loc)
	return nil
}

// Active returns the currently authoritative location.
func (m *Manager) Active() geo.ResolvedLocation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Remember reports whether location persistence is enabled.
func (m *Manager) Remember() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.remember
}

// SetRemember toggles location persistence. Disabling it clears every
// persisted location key; enabling it persists the active location.
func (m *Manager) SetRemember(enabled bool) error {
	m.mu.Lock()
	m.remember = enabled
	active := m.active
	m.mu.Unlock()

	if !enabled {
		return m.store.ClearLocation()
	}
	return m.store.SaveLocation(prefs.LocationPreference{
		RememberLocation:   true,
		LastCoordinate:     &active.Coordinate,
		LastDisplayName:    active.DisplayName,
		WasCurrentLocation: active.IsCurrentLocation,
	})
}

func (m *Manager) setActive(loc geo.ResolvedLocation) {
	m.mu.Lock()
	m.active = loc
	m.mu.Unlock()
}

func (m *Manager) persist(loc geo.ResolvedLocation) {
	m.mu.RLock()
	remember := m.remember
	m.mu.RUnlock()
	if !remember {
		return
	}

	coord := loc.Coordinate
	err := m.store.SaveLocation(prefs.LocationPreference{
		RememberLocation:   true,
		LastCoordinate:     &coord,
		LastDisplayName:    loc.DisplayName,
		WasCurrentLocation: loc.IsCurrentLocation,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to persist location preference")
	}
}
