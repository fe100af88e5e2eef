package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the viewer service
type Config struct {
	Port        int    `koanf:"port"`
	Serve       bool   `koanf:"serve"`
	BackendURL  string `koanf:"backend"`  // Query API base URL ("" = no backend)
	FeedURL     string `koanf:"feed"`     // Streamed delta feed URL ("" = no feed)
	Snapshot    string `koanf:"snapshot"` // Local graph snapshot file
	Watch       bool   `koanf:"watch"`    // Reload snapshot on change
	OpenBrowser bool   `koanf:"open"`

	// Delta coalescing window
	QuietMs   int `koanf:"quiet_ms"`
	MaxWaitMs int `koanf:"max_wait_ms"`

	// Render adapter defaults
	ColorBy string `koanf:"color_by"` // "type" or "cluster"
	SizeBy  string `koanf:"size_by"`  // metric driving point size

	Verbosity string `koanf:"verbosity"`
	JSONLogs  bool   `koanf:"json_logs"`
}

// Load loads configuration from defaults, config file, environment
// variables, and flags. Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"port":        8080,
		"serve":       false,
		"backend":     "",
		"feed":        "",
		"snapshot":    "",
		"watch":       false,
		"open":        true,
		"quiet_ms":    50,
		"max_wait_ms": 500,
		"color_by":    "type",
		"size_by":     "degree",
		"verbosity":   "",
		"json_logs":   false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Config file is optional
	_ = k.Load(file.Provider("graphview.toml"), toml.Parser())

	// Environment variables, e.g. GRAPHVIEW_PORT=9090. Keys are flat, so
	// underscores stay as-is (GRAPHVIEW_QUIET_MS -> quiet_ms).
	if err := k.Load(env.Provider("GRAPHVIEW_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "GRAPHVIEW_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
