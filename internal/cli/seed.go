package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/source/catalog"
	"github.com/idilsaglam/waterfall/internal/source/random"
	"github.com/idilsaglam/waterfall/internal/source/redisstore"
	"github.com/idilsaglam/waterfall/internal/ui"
)

func (c *CLI) seedCommand() *cobra.Command {
	var (
		count   int
		file    string
		toRedis bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate items into a catalogue file or Redis",
		Long: `Generate random items with the configured height range and seed, and write
them to a catalogue file (.json or .toml) or to the configured Redis list.`,
		Example: `  waterfall seed --count 50 --file items.toml
  waterfall seed --count 50 --redis`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if count < 1 {
				return errors.New(errors.ErrCodeInvalidInput, "count %d: must be >= 1", count)
			}
			if (file == "") == !toRedis {
				return errors.New(errors.ErrCodeInvalidInput, "exactly one of --file or --redis is required")
			}

			gen := random.New(random.Options{
				Delay:     -1,
				Seed:      cfg.Source.Seed,
				MinHeight: cfg.Source.MinHeight,
				MaxHeight: cfg.Source.MaxHeight,
			})
			items := gen.Generate(count, 1)

			prog := newProgress(c.Logger)
			dest := file
			if toRedis {
				st, err := redisstore.Dial(cmd.Context(), cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Key)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.Seed(cmd.Context(), items); err != nil {
					return err
				}
				dest = fmt.Sprintf("redis %s/%s", cfg.Redis.Addr, cfg.Redis.Key)
			} else if err := catalog.Save(file, items); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Seeded %d items", count))

			ui.FOK(cmd.OutOrStdout(), fmt.Sprintf("wrote %d items to %s", count, dest))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 50, "number of items to generate")
	cmd.Flags().StringVar(&file, "file", "", "catalogue file to write")
	cmd.Flags().BoolVar(&toRedis, "redis", false, "write to the configured Redis list")
	return cmd
}
