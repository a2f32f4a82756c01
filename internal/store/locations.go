package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lox/weatherdash/internal/models"
)

// SavedLocationsKey is the settings key holding the JSON location list.
const SavedLocationsKey = "savedLocations"

// CurrentPlaceholderID is the id of the built-in "My Location" entry.
const CurrentPlaceholderID = "current"

// DefaultLocations returns the list used before anything has been saved.
func DefaultLocations() []models.Location {
	return []models.Location{
		{ID: CurrentPlaceholderID, Name: "My Location", Country: "Current", Lat: 0, Lon: 0, IsCurrent: true},
		{ID: "london", Name: "London", Country: "UK", Lat: 51.5074, Lon: -0.1278},
		{ID: "newyork", Name: "New York", Country: "USA", Lat: 40.7128, Lon: -74.0060},
		{ID: "tokyo", Name: "Tokyo", Country: "Japan", Lat: 35.6762, Lon: 139.6503},
		{ID: "sydney", Name: "Sydney", Country: "Australia", Lat: -33.8688, Lon: 151.2093},
	}
}

// LoadLocations returns the saved list, or the defaults if nothing has been
// saved yet.
func (s *Store) LoadLocations() ([]models.Location, error) {
	return loadLocations(s.db)
}

func loadLocations(q queryer) ([]models.Location, error) {
	raw, ok, err := getSetting(q, SavedLocationsKey)
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	if !ok {
		return DefaultLocations(), nil
	}

	var locs []models.Location
	if err := json.Unmarshal([]byte(raw), &locs); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}
	return locs, nil
}

// SaveLocations replaces the whole saved list.
func (s *Store) SaveLocations(locs []models.Location) error {
	if err := s.validateAll(locs); err != nil {
		return err
	}
	return saveLocations(s.db, locs)
}

func saveLocations(q queryer, locs []models.Location) error {
	if locs == nil {
		locs = []models.Location{}
	}
	data, err := json.Marshal(locs)
	if err != nil {
		return fmt.Errorf("encode locations: %w", err)
	}
	if err := putSetting(q, SavedLocationsKey, string(data)); err != nil {
		return fmt.Errorf("save locations: %w", err)
	}
	return nil
}

// UpsertCurrentLocation drops every current-location entry and appends loc
// as the new one.
func (s *Store) UpsertCurrentLocation(loc models.Location) ([]models.Location, error) {
	loc.IsCurrent = true
	return s.update(func(locs []models.Location) []models.Location {
		next := make([]models.Location, 0, len(locs)+1)
		for _, l := range locs {
			if !l.IsCurrent {
				next = append(next, l)
			}
		}
		return append(next, loc)
	}, loc)
}

// AddLocation appends loc, or replaces the entry with the same ID.
func (s *Store) AddLocation(loc models.Location) ([]models.Location, error) {
	if loc.IsCurrent {
		return nil, fmt.Errorf("add location %q: current locations must use UpsertCurrentLocation", loc.ID)
	}
	return s.update(func(locs []models.Location) []models.Location {
		next := make([]models.Location, 0, len(locs)+1)
		replaced := false
		for _, l := range locs {
			if l.ID == loc.ID {
				next = append(next, loc)
				replaced = true
				continue
			}
			next = append(next, l)
		}
		if !replaced {
			next = append(next, loc)
		}
		return next
	}, loc)
}

// RemoveLocation deletes the entry with the given ID. The bool reports
// whether anything was removed.
func (s *Store) RemoveLocation(id string) ([]models.Location, bool, error) {
	removed := false
	locs, err := s.update(func(locs []models.Location) []models.Location {
		next := make([]models.Location, 0, len(locs))
		for _, l := range locs {
			if l.ID == id {
				removed = true
				continue
			}
			next = append(next, l)
		}
		return next
	})
	if err != nil {
		return nil, false, err
	}
	return locs, removed, nil
}

// ResetLocations forgets the saved list so the defaults come back.
func (s *Store) ResetLocations() error {
	if err := deleteSetting(s.db, SavedLocationsKey); err != nil {
		return fmt.Errorf("reset locations: %w", err)
	}
	return nil
}

// update runs a read-modify-write of the list inside one transaction.
func (s *Store) update(fn func([]models.Location) []models.Location, check ...models.Location) ([]models.Location, error) {
	if err := s.validateAll(check); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	locs, err := loadLocations(tx)
	if err != nil {
		return nil, err
	}
	next := fn(locs)
	if err := saveLocations(tx, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit locations: %w", err)
	}
	return next, nil
}

// ValidateLocation checks the fields a saved location must have.
func (s *Store) ValidateLocation(loc models.Location) error {
	if err := s.validate.Struct(loc); err != nil {
		return fmt.Errorf("invalid location %q: %w", loc.ID, err)
	}
	return nil
}

func (s *Store) validateAll(locs []models.Location) error {
	for _, l := range locs {
		if err := s.ValidateLocation(l); err != nil {
			return err
		}
	}
	return nil
}

// FilterLocations keeps the entries whose name or country contains q,
// ignoring case. An empty q keeps everything.
func FilterLocations(locs []models.Location, q string) []models.Location {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return locs
	}
	var out []models.Location
	for _, l := range locs {
		if strings.Contains(strings.ToLower(l.Name), q) || strings.Contains(strings.ToLower(l.Country), q) {
			out = append(out, l)
		}
	}
	return out
}
