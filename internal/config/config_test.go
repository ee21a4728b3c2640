package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/idilsaglam/waterfall/internal/errors"
)

// isolate points config discovery at an empty directory.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("WATERFALL_CONFIG", "")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Grid.BatchSize != 20 || c.Grid.Cap != 50 || c.Grid.Threshold != 10 {
		t.Errorf("grid = %+v, want 20/50/10", c.Grid)
	}
	if c.Source.Kind != SourceRandom || c.Source.Delay != time.Second {
		t.Errorf("source = %+v", c.Source)
	}
	if c.UI.Theme != "classic" {
		t.Errorf("theme = %q, want classic", c.UI.Theme)
	}
	s := c.Grid.Settings()
	if s.BatchSize != 20 || s.Breakpoints.Narrow != 768 {
		t.Errorf("Settings() = %+v", s)
	}
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "waterfall.toml")
	doc := `
[grid]
batch_size = 5
cap = 12

[source]
kind = "catalog"
path = "tiles.toml"
delay = "250ms"

[ui]
theme = "neon"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Grid.BatchSize != 5 || c.Grid.Cap != 12 || c.Grid.Threshold != 10 {
		t.Errorf("grid = %+v", c.Grid)
	}
	if c.Source.Kind != SourceCatalog || c.Source.Path != "tiles.toml" || c.Source.Delay != 250*time.Millisecond {
		t.Errorf("source = %+v", c.Source)
	}
	if c.UI.Theme != "neon" {
		t.Errorf("theme = %q", c.UI.Theme)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("WATERFALL_GRID_CAP", "80")
	t.Setenv("WATERFALL_SOURCE_KIND", "http")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Grid.Cap != 80 || c.Source.Kind != SourceHTTP {
		t.Errorf("cap=%d kind=%q, want 80 http", c.Grid.Cap, c.Source.Kind)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("Load() error = %v, want INVALID_CONFIG", err)
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	base, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero batch", func(c *Config) { c.Grid.BatchSize = 0 }},
		{"zero cap", func(c *Config) { c.Grid.Cap = 0 }},
		{"negative threshold", func(c *Config) { c.Grid.Threshold = -1 }},
		{"zero cell", func(c *Config) { c.Grid.CellHeight = 0 }},
		{"unknown source", func(c *Config) { c.Source.Kind = "ftp" }},
		{"empty height range", func(c *Config) { c.Source.MaxHeight = c.Source.MinHeight }},
		{"catalog without path", func(c *Config) { c.Source.Kind = SourceCatalog; c.Source.Path = "" }},
		{"http without url", func(c *Config) { c.Source.Kind = SourceHTTP; c.Source.URL = "" }},
		{"redis without addr", func(c *Config) { c.Source.Kind = SourceRedis; c.Redis.Addr = "" }},
		{"unknown theme", func(c *Config) { c.UI.Theme = "pastel" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
	if err := base.Validate(); err != nil {
		t.Errorf("defaults: Validate() error = %v", err)
	}
}
