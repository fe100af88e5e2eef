// Package prefs persists user-facing viewer preferences. Not part of the
// graph core: load failures fall back to defaults and save failures are
// logged, never fatal.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Preferences are the viewer's UI toggles
type Preferences struct {
	ShowDetailsPanel  bool `json:"showDetailsPanel"`
	ShowTimelinePanel bool `json:"showTimelinePanel"`
	ShowLegend        bool `json:"showLegend"`
	ShowLinkLabels    bool `json:"showLinkLabels"`
	DarkMode          bool `json:"darkMode"`

	Features map[string]bool `json:"features,omitempty"` // Experimental toggles
}

// Defaults returns the out-of-the-box preferences
func Defaults() Preferences {
	return Preferences{
		ShowDetailsPanel: true,
		ShowLegend:       true,
		DarkMode:         true,
	}
}

// Store reads and writes preferences at a fixed path
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store under the user config dir
func NewStore() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("no user config dir: %w", err)
	}
	return NewStoreAt(filepath.Join(dir, "graphview", "prefs.json")), nil
}

// NewStoreAt creates a store at an explicit path
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Load returns the saved preferences, or defaults when the file is
// missing or unreadable
func (s *Store) Load() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Defaults()
	}
	p := Defaults()
	if err := json.Unmarshal(data, &p); err != nil {
		return Defaults()
	}
	return p
}

// Save persists the preferences
func (s *Store) Save(p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode prefs: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	return nil
}
