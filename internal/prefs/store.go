package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/FaizGusion00/weather-web/internal/geo"
)

// Storage keys. Each field is its own key, so a crash between two writes
// can leave the preference partially updated; LoadLocation tolerates that.
const (
	keyRemember   = "location.remember"
	keyCoordinate = "location.coordinate"
	keyName       = "location.name"
	keyWasCurrent = "location.was_current"

	keyUnits = "units.system"
)

var (
	// ErrNotFound is returned when a preference key has never been written.
	ErrNotFound = errors.New("preference not found")
	// ErrCorrupt is returned when a stored value cannot be parsed. Callers
	// discard the preference and fall back to defaults.
	ErrCorrupt = errors.New("preference data is corrupt")
)

// LocationPreference is the persisted location choice.
type LocationPreference struct {
	RememberLocation   bool
	LastCoordinate     *geo.Coordinate
	LastDisplayName    string
	WasCurrentLocation bool
}

// Store persists preferences as one file per key under a directory.
// Reads and writes are direct and synchronous; there is no batching.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".weather-web")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preference directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory backing this store.
func (s *Store) Dir() string {
	return s.dir
}

// LoadLocation reads the persisted location preference. Missing keys load
// as zero values; a malformed coordinate or flag yields ErrCorrupt.
func (s *Store) LoadLocation() (LocationPreference, error) {
	var p LocationPreference

	if raw, err := s.get(keyRemember); err == nil {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return LocationPreference{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, keyRemember, err)
		}
		p.RememberLocation = v
	} else if !errors.Is(err, ErrNotFound) {
		return LocationPreference{}, err
	}

	if raw, err := s.get(keyCoordinate); err == nil {
		var coord geo.Coordinate
		if err := json.Unmarshal([]byte(raw), &coord); err != nil {
			return LocationPreference{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, keyCoordinate, err)
		}
		p.LastCoordinate = &coord
	} else if !errors.Is(err, ErrNotFound) {
		return LocationPreference{}, err
	}

	if raw, err := s.get(keyName); err == nil {
		p.LastDisplayName = raw
	} else if !errors.Is(err, ErrNotFound) {
		return LocationPreference{}, err
	}

	if raw, err := s.get(keyWasCurrent); err == nil {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return LocationPreference{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, keyWasCurrent, err)
		}
		p.WasCurrentLocation = v
	} else if !errors.Is(err, ErrNotFound) {
		return LocationPreference{}, err
	}

	return p, nil
}

// SaveLocation writes the preference, one key per field.
func (s *Store) SaveLocation(p LocationPreference) error {
	if err := s.set(keyRemember, strconv.FormatBool(p.RememberLocation)); err != nil {
		return err
	}
	if p.LastCoordinate != nil {
		payload, err := json.Marshal(p.LastCoordinate)
		if err != nil {
			return fmt.Errorf("marshal coordinate: %w", err)
		}
		if err := s.set(keyCoordinate, string(payload)); err != nil {
			return err
		}
	}
	if err := s.set(keyName, p.LastDisplayName); err != nil {
		return err
	}
	return s.set(keyWasCurrent, strconv.FormatBool(p.WasCurrentLocation))
}

// ClearLocation removes every location key. Keys owned by unrelated
// preferences (units and anything else) are left untouched.
func (s *Store) ClearLocation() error {
	for _, key := range []string{keyRemember, keyCoordinate, keyName, keyWasCurrent} {
		if err := s.delete(key); err != nil {
			return err
		}
	}
	return nil
}

// SaveUnits persists the unit-system preference.
func (s *Store) SaveUnits(units string) error {
	return s.set(keyUnits, units)
}

// LoadUnits reads the unit-system preference.
func (s *Store) LoadUnits() (string, error) {
	return s.get(keyUnits)
}

func (s *Store) get(key string) (string, error) {
	payload, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read preference %s: %w", key, err)
	}
	return string(payload), nil
}

func (s *Store) set(key, value string) error {
	if err := os.WriteFile(filepath.Join(s.dir, key), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write preference %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove preference %s: %w", key, err)
	}
	return nil
}
