package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/waterfall/internal/tui"
)

func (c *CLI) runCommand() *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Browse the grid interactively",
		Long: `Open the grid in the terminal. Scroll with the arrow keys, page keys or the
mouse wheel; more items load as you approach the bottom. Press r to load the
first batch or to retry after a failure, q to quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			// The alternate screen owns the terminal, so logs go to a file or nowhere.
			logger := log.New(io.Discard)
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				logger = newLogger(f, c.Logger.GetLevel())
			}

			src, closeSrc, err := openSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSrc()

			logger.Info("starting grid", "config", cfg.String())
			return tui.Run(cmd.Context(), tui.Options{
				Source:     src,
				Settings:   cfg.Grid.Settings(),
				CellWidth:  cfg.Grid.CellWidth,
				CellHeight: cfg.Grid.CellHeight,
				Logger:     logger,
			})
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file while the grid is open")
	return cmd
}
