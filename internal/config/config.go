// Package config loads settings from a TOML file through viper, with
// WATERFALL_-prefixed environment variables overriding file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/grid"
	"github.com/idilsaglam/waterfall/internal/layout"
)

// Source kinds.
const (
	SourceRandom  = "random"
	SourceCatalog = "catalog"
	SourceHTTP    = "http"
	SourceRedis   = "redis"
)

// Config holds application configuration.
type Config struct {
	Grid   GridConfig   `mapstructure:"grid"`
	Source SourceConfig `mapstructure:"source"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Server ServerConfig `mapstructure:"server"`
	UI     UIConfig     `mapstructure:"ui"`
}

// GridConfig holds the load policy and the terminal-to-pixel mapping.
type GridConfig struct {
	BatchSize  int `mapstructure:"batch_size"`
	Cap        int `mapstructure:"cap"`
	Threshold  int `mapstructure:"threshold"`
	CellWidth  int `mapstructure:"cell_width"`  // pixels per terminal column
	CellHeight int `mapstructure:"cell_height"` // pixels per terminal row
}

// SourceConfig selects and tunes the item source.
type SourceConfig struct {
	Kind      string        `mapstructure:"kind"`
	Delay     time.Duration `mapstructure:"delay"`
	Seed      uint64        `mapstructure:"seed"`
	MinHeight int           `mapstructure:"min_height"`
	MaxHeight int           `mapstructure:"max_height"`
	Path      string        `mapstructure:"path"`
	URL       string        `mapstructure:"url"`
	Token     string        `mapstructure:"token"`
	Retries   int           `mapstructure:"retries"`
}

// RedisConfig locates the item list.
type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	DB   int    `mapstructure:"db"`
	Key  string `mapstructure:"key"`
}

// ServerConfig configures `waterfall serve`.
type ServerConfig struct {
	Addr  string `mapstructure:"addr"`
	Token string `mapstructure:"token"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// Settings converts the grid section for the state machine.
func (g GridConfig) Settings() grid.Settings {
	return grid.Settings{
		BatchSize:   g.BatchSize,
		Cap:         g.Cap,
		Threshold:   g.Threshold,
		Breakpoints: layout.DefaultBreakpoints,
	}
}

// Load reads configuration from file and env. Env var overrides use prefix
// WATERFALL_. An explicit path wins over WATERFALL_CONFIG, which wins over
// the user config directory.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if path == "" {
		path = os.Getenv("WATERFALL_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "waterfall"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("WATERFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); explicit || !notFound {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("grid.batch_size", grid.DefaultSettings.BatchSize)
	v.SetDefault("grid.cap", grid.DefaultSettings.Cap)
	v.SetDefault("grid.threshold", grid.DefaultSettings.Threshold)
	v.SetDefault("grid.cell_width", 8)
	v.SetDefault("grid.cell_height", 20)
	v.SetDefault("source.kind", SourceRandom)
	v.SetDefault("source.delay", time.Second)
	v.SetDefault("source.seed", 0)
	v.SetDefault("source.min_height", 100)
	v.SetDefault("source.max_height", 400)
	v.SetDefault("source.path", "items.json")
	v.SetDefault("source.url", "http://localhost:8080")
	v.SetDefault("source.token", "")
	v.SetDefault("source.retries", 3)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "waterfall:items")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.token", "")
	v.SetDefault("ui.theme", "classic")
}

// Validate reports the first setting the grid cannot run with.
func (c Config) Validate() error {
	g := c.Grid
	switch {
	case g.BatchSize < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "grid.batch_size %d: must be >= 1", g.BatchSize)
	case g.Cap < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "grid.cap %d: must be >= 1", g.Cap)
	case g.Threshold < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "grid.threshold %d: must be >= 0", g.Threshold)
	case g.CellWidth < 1 || g.CellHeight < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "grid cell size %dx%d: must be positive", g.CellWidth, g.CellHeight)
	}

	s := c.Source
	switch s.Kind {
	case SourceRandom:
		if s.MinHeight < 1 || s.MaxHeight <= s.MinHeight {
			return errors.New(errors.ErrCodeInvalidConfig, "source height range [%d,%d) is empty", s.MinHeight, s.MaxHeight)
		}
	case SourceCatalog:
		if s.Path == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "source.path is required for the catalog source")
		}
	case SourceHTTP:
		if s.URL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "source.url is required for the http source")
		}
	case SourceRedis:
		if c.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "redis.addr is required for the redis source")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "source.kind %q: want %s, %s, %s or %s",
			s.Kind, SourceRandom, SourceCatalog, SourceHTTP, SourceRedis)
	}

	switch strings.ToLower(c.UI.Theme) {
	case "classic", "neon", "mono":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "ui.theme %q: want classic, neon or mono", c.UI.Theme)
	}
	return nil
}

// String is a one-line summary for debug logs. Tokens are never printed.
func (c Config) String() string {
	return fmt.Sprintf("source=%s batch=%d cap=%d threshold=%d cell=%dx%d theme=%s",
		c.Source.Kind, c.Grid.BatchSize, c.Grid.Cap, c.Grid.Threshold,
		c.Grid.CellWidth, c.Grid.CellHeight, c.UI.Theme)
}
