// Package cli implements the waterfall command-line interface.
//
// The CLI is built with cobra and logs through charmbracelet/log. Every
// command reads the same viper configuration (see internal/config) and
// builds its item source from it.
//
// # Commands
//
//   - run: the interactive grid (default)
//   - layout: load batches and print the column partition
//   - simulate: drive a headless grid with scripted resize and scroll events
//   - serve: expose the configured source as the paged items API
//   - seed: write generated items to a catalogue file or a Redis list
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/waterfall/internal/config"
	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/source"
	"github.com/idilsaglam/waterfall/internal/source/catalog"
	"github.com/idilsaglam/waterfall/internal/source/httpsource"
	"github.com/idilsaglam/waterfall/internal/source/random"
	"github.com/idilsaglam/waterfall/internal/source/redisstore"
	"github.com/idilsaglam/waterfall/internal/ui"
)

// appName is used for the root command and in help output.
const appName = "waterfall"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// version is injected at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Running the root command without a subcommand starts the grid.
func (c *CLI) RootCommand() *cobra.Command {
	run := c.runCommand()
	root := &cobra.Command{
		Use:           appName,
		Short:         "Waterfall is a masonry image grid with infinite scroll",
		Long:          `Waterfall lays variable-height tiles out in balanced columns and loads more as you scroll, in your terminal.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run.RunE,
	}
	root.Flags().AddFlagSet(run.Flags())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/waterfall/config.toml)")

	root.AddCommand(run)
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.seedCommand())
	return root
}

// loadConfig reads configuration and applies the theme.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	ui.SetTheme(cfg.UI.Theme)
	c.Logger.Debug("config", "summary", cfg.String())
	return cfg, nil
}

// openSource builds the configured item source. The returned close function
// is never nil.
func openSource(ctx context.Context, cfg config.Config) (source.Source, func() error, error) {
	noop := func() error { return nil }
	s := cfg.Source

	switch s.Kind {
	case config.SourceRandom:
		delay := s.Delay
		if delay == 0 {
			delay = -1
		}
		return random.New(random.Options{
			Delay:     delay,
			Seed:      s.Seed,
			MinHeight: s.MinHeight,
			MaxHeight: s.MaxHeight,
		}), noop, nil

	case config.SourceCatalog:
		cat, err := catalog.Open(s.Path)
		if err != nil {
			return nil, noop, err
		}
		return cat, noop, nil

	case config.SourceHTTP:
		cl, err := httpsource.New(s.URL, httpsource.Options{Token: s.Token, Retries: s.Retries})
		if err != nil {
			return nil, noop, err
		}
		return cl, noop, nil

	case config.SourceRedis:
		st, err := redisstore.Dial(ctx, cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Key)
		if err != nil {
			return nil, noop, err
		}
		return st, st.Close, nil
	}
	return nil, noop, errors.New(errors.ErrCodeInvalidConfig, "unknown source kind %q", s.Kind)
}
