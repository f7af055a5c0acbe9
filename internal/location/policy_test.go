package location

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FaizGusion00/weather-web/internal/geo"
	"github.com/FaizGusion00/weather-web/internal/prefs"
)

type fakeNamer struct{}

func (fakeNamer) DisplayName(_ context.Context, coord geo.Coordinate) string {
	return "Somewhere, Testland"
}

type fakeStore struct {
	mu      sync.Mutex
	pref    prefs.LocationPreference
	loadErr error
	saveErr error

	saves  int
	clears int
}

func (s *fakeStore) LoadLocation() (prefs.LocationPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pref, s.loadErr
}

func (s *fakeStore) SaveLocation(pref prefs.LocationPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.pref = pref
	s.saves++
	return nil
}

func (s *fakeStore) ClearLocation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pref = prefs.LocationPreference{}
	s.clears++
	return nil
}

func (s *fakeStore) saved() prefs.LocationPreference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pref
}

var defaultKL = geo.ResolvedLocation{
	Coordinate:  geo.Coordinate{Latitude: 3.1390, Longitude: 101.6869},
	DisplayName: "Kuala Lumpur, Malaysia",
}

func newTestManager(src PositionSource, store *fakeStore) *Manager {
	resolver := NewResolver(src, 100*time.Millisecond)
	opts := PositionOptions{Timeout: 100 * time.Millisecond}
	return NewManager(resolver, fakeNamer{}, store, opts, defaultKL)
}

func TestStartupRestoresSavedManualPickAndRefreshesInBackground(t *testing.T) {
	gate := make(chan struct{})
	src := sourceFunc(func(_ context.Context, _ PositionOptions) (geo.Coordinate, error) {
		<-gate
		return geo.Coordinate{Latitude: 1.3521, Longitude: 103.8198}, nil
	})

	saved := geo.Coordinate{Latitude: 35.6762, Longitude: 139.6503}
	store := &fakeStore{pref: prefs.LocationPreference{
		RememberLocation:   true,
		LastCoordinate:     &saved,
		LastDisplayName:    "Tokyo, Japan",
		WasCurrentLocation: false,
	}}

	m := newTestManager(src, store)

	loc, updates, err := m.ResolveAtStartup(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Fast path: the saved pick is returned before the source answers.
	if loc.DisplayName != "Tokyo, Japan" {
		t.Fatalf("restored location: got %q", loc.DisplayName)
	}
	if loc.IsCurrentLocation {
		t.Fatal("manual pick must not claim to be the current location")
	}
	if updates == nil {
		t.Fatal("expected a background refresh channel for a manual pick")
	}

	close(gate)

	select {
	case refreshed, ok := <-updates:
		if !ok {
			t.Fatal("expected a refreshed location before the channel closed")
		}
		if !refreshed.IsCurrentLocation {
			t.Fatal("refreshed location must be the current location")
		}
		if refreshed.Coordinate.Latitude != 1.3521 {
			t.Fatalf("refreshed latitude: got %v", refreshed.Coordinate.Latitude)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for background refresh")
	}

	if _, ok := <-updates; ok {
		t.Fatal("expected updates channel to close after one delivery")
	}

	// The refresh supersedes the restored pick and is persisted.
	if got := m.Active().Coordinate.Latitude; got != 1.3521 {
		t.Fatalf("active latitude after refresh: got %v", got)
	}
	if !store.saved().WasCurrentLocation {
		t.Fatal("expected refreshed current location to be persisted")
	}
}

func TestStartupSavedCurrentLocationSkipsRefresh(t *testing.T) {
	src := sourceFunc(func(_ context.Context, _ PositionOptions) (geo.Coordinate, error) {
		t.Error("source must not be consulted when a saved current location exists")
		return geo.Coordinate{}, nil
	})

	saved := geo.Coordinate{Latitude: 3.1390, Longitude: 101.6869}
	store := &fakeStore{pref: prefs.LocationPreference{
		RememberLocation:   true,
		LastCoordinate:     &saved,
		LastDisplayName:    "Kuala Lumpur, Kuala Lumpur",
		WasCurrentLocation: true,
	}}

	m := newTestManager(src, store)

	loc, updates, err := m.ResolveAtStartup(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updates != nil {
		t.Fatal("expected no background refresh for a saved current location")
	}
	if !loc.IsCurrentLocation {
		t.Fatal("restored location should keep its current-location flag")
	}
}

func TestStartupNoPreferenceResolvesForeground(t *testing.T) {
	src := sourceFunc(func(_ context.Context, _ PositionOptions) (geo.Coordinate, error) {
		return geo.Coordinate{Latitude: 51.5074, Longitude: -0.1278}, nil
	})
	store := &fakeStore{}

	m := newTestManager(src, store)

	loc, updates, err := m.ResolveAtStartup(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updates != nil {
		t.Fatal("foreground resolution needs no updates channel")
	}
	if !loc.IsCurrentLocation {
		t.Fatal("expected a freshly resolved current location")
	}
	if store.saved().LastCoordinate != nil {
		t.Fatal("must not persist while remembering is disabled")
	}
}

func TestStartupFallsBackToDefaultOnFailure(t *testing.T) {
	src := sourceFunc(func(_ context.Context, _ PositionOptions) (geo.Coordinate, error) {
		return geo.Coordinate{}, ErrPermissionDenied
	})

	m := newTestManager(src, &fakeStore{})

	loc, _, err := m.ResolveAtStartup(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected the resolution error to surface, got %v", err)
	}
	if loc.DisplayName != defaultKL.DisplayName {
		t.Fatalf("expected default fallback, got %q", loc.DisplayName)
	}
	if m.Active().DisplayName != defaultKL.DisplayName {
		t.Fatalf("active should be the default, got %q", m.Active().DisplayName)
	}
}

func TestStartupDiscardsCorruptPreference(t *testing.T) {
	src := sourceFunc(func(_ context.Context, _ PositionOptions) (geo.Coordinate, error) {
		return geo.Coordinate{Latitude: 48.8566, Longitude: 2.3522}, nil
	})
	store := &fakeStore{loadErr: prefs.ErrCorrupt}

	m := newTestManager(src, store)

	loc, _, err := m.ResolveAtStartup(context.Background())
	if err != nil {
		t.Fatalf("corrupt preference must not abort startup: %v", err)
	}
	if !loc.IsCurrentLocation {
		t.Fatal("expected a fresh resolution after discarding the corrupt preference")
	}
}

func TestRefreshFailureLeavesActiveUntouched(t *testing.T) {
	src := sourceFunc(func(_ context.Context, _ PositionOptions) (geo.Coordinate, error) {
		return geo.Coordinate{}, ErrPositionUnavailable
	})

	m := newTestManager(src, &fakeStore{})
	manual := geo.ResolvedLocation{
		Coordinate:  geo.Coordinate{Latitude: 1.3521, Longitude: 103.8198},
		DisplayName: "Singapore, Singapore",
	}
	if err := m.SetLocation(manual); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := m.RefreshCurrent(context.Background()); !errors.Is(err, ErrPositionUnavailable) {
		t.Fatalf("expected ErrPositionUnavailable, got %v", err)
	}
	if m.Active().DisplayName != "Singapore, Singapore" {
		t.Fatalf("active changed after failed refresh: %q", m.Active().DisplayName)
	}
}

func TestSetLocationRejectsInvalidCoordinate(t *testing.T) {
	m := newTestManager(nil, &fakeStore{})

	err := m.SetLocation(geo.ResolvedLocation{
		Coordinate:  geo.Coordinate{Latitude: -95, Longitude: 10},
		DisplayName: "Nowhere",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSetRememberPersistsAndClears(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(nil, store)

	manual := geo.ResolvedLocation{
		Coordinate:  geo.Coordinate{Latitude: 35.6762, Longitude: 139.6503},
		DisplayName: "Tokyo, Japan",
	}
	if err := m.SetLocation(manual); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.saves != 0 {
		t.Fatal("must not persist before remembering is enabled")
	}

	if err := m.SetRemember(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved := store.saved()
	if saved.LastDisplayName != "Tokyo, Japan" || !saved.RememberLocation {
		t.Fatalf("expected active location persisted, got %+v", saved)
	}

	if err := m.SetRemember(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.clears != 1 {
		t.Fatalf("expected one clear, got %d", store.clears)
	}
	if m.Remember() {
		t.Fatal("remember flag should be off")
	}
}

func TestSetLocationPersistsWhenRemembering(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(nil, store)

	if err := m.SetRemember(true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	manual := geo.ResolvedLocation{
		Coordinate:  geo.Coordinate{Latitude: 40.7128, Longitude: -74.0060},
		DisplayName: "New York, New York",
	}
	if err := m.SetLocation(manual); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved := store.saved()
	if saved.LastCoordinate == nil || saved.LastCoordinate.Latitude != 40.7128 {
		t.Fatalf("expected manual pick persisted, got %+v", saved)
	}
	if saved.WasCurrentLocation {
		t.Fatal("manual pick must persist as non-current")
	}
}
