package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // no graphview.toml in reach

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.QuietMs != 50 || cfg.MaxWaitMs != 500 {
		t.Errorf("Unexpected coalescing defaults: quiet=%d max=%d", cfg.QuietMs, cfg.MaxWaitMs)
	}
	if cfg.ColorBy != "type" || cfg.SizeBy != "degree" {
		t.Errorf("Unexpected render defaults: %s/%s", cfg.ColorBy, cfg.SizeBy)
	}
	if !cfg.OpenBrowser {
		t.Error("Expected open to default to true")
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GRAPHVIEW_PORT", "9191")
	t.Setenv("GRAPHVIEW_QUIET_MS", "25")
	t.Setenv("GRAPHVIEW_BACKEND", "http://backend:9000")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 9191 {
		t.Errorf("Expected env port 9191, got %d", cfg.Port)
	}
	if cfg.QuietMs != 25 {
		t.Errorf("Expected env quiet_ms 25, got %d", cfg.QuietMs)
	}
	if cfg.BackendURL != "http://backend:9000" {
		t.Errorf("Expected env backend, got %q", cfg.BackendURL)
	}
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	content := "port = 7070\ncolor_by = \"cluster\"\n"
	if err := os.WriteFile("graphview.toml", []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 7070 {
		t.Errorf("Expected file port 7070, got %d", cfg.Port)
	}
	if cfg.ColorBy != "cluster" {
		t.Errorf("Expected file color_by cluster, got %q", cfg.ColorBy)
	}
}

func TestFlagsOverrideEverything(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GRAPHVIEW_PORT", "9191")

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Int("port", 8080, "")
	if err := f.Parse([]string{"--port", "6060"}); err != nil {
		t.Fatalf("Flag parse failed: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 6060 {
		t.Errorf("Expected flag port 6060 to win, got %d", cfg.Port)
	}
}
