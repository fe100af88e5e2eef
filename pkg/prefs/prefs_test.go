package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func assertDefaults(t *testing.T, got Preferences) {
	t.Helper()
	want := Defaults()
	if got.ShowDetailsPanel != want.ShowDetailsPanel ||
		got.ShowTimelinePanel != want.ShowTimelinePanel ||
		got.ShowLegend != want.ShowLegend ||
		got.ShowLinkLabels != want.ShowLinkLabels ||
		got.DarkMode != want.DarkMode {
		t.Errorf("Expected defaults, got %+v", got)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s := NewStoreAt(filepath.Join(t.TempDir(), "prefs.json"))
	assertDefaults(t, s.Load())
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := NewStoreAt(filepath.Join(t.TempDir(), "nested", "prefs.json"))

	p := Defaults()
	p.DarkMode = false
	p.ShowTimelinePanel = true
	p.Features = map[string]bool{"timeline_v2": true}

	if err := s.Save(p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got := s.Load()
	if got.DarkMode || !got.ShowTimelinePanel {
		t.Errorf("Unexpected prefs after reload: %+v", got)
	}
	if !got.Features["timeline_v2"] {
		t.Error("Expected feature toggle to persist")
	}
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	os.WriteFile(path, []byte("{broken"), 0o644)

	assertDefaults(t, NewStoreAt(path).Load())
}

func TestLoadBadFieldTypeReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	os.WriteFile(path, []byte(`{"darkMode": "not-a-bool"}`), 0o644)

	got := NewStoreAt(path).Load()
	if !got.DarkMode {
		t.Error("Expected default dark mode after parse failure")
	}
}
