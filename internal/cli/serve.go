package cli

import (
	"github.com/spf13/cobra"

	"github.com/idilsaglam/waterfall/internal/config"
	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		maxCount int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured source over HTTP",
		Long: `Expose the configured item source as GET /items?start=N&count=M so another
waterfall can use it with source.kind = "http". Set server.token to require a
bearer token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Source.Kind == config.SourceHTTP {
				return errors.New(errors.ErrCodeInvalidConfig, "serve cannot proxy an http source")
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			src, closeSrc, err := openSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSrc()

			h := server.New(src, server.Options{
				Token:    cfg.Server.Token,
				MaxCount: maxCount,
				Logger:   c.Logger,
			})
			return server.Serve(cmd.Context(), addr, h, c.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().IntVar(&maxCount, "max-count", server.DefaultMaxCount, "largest page a client may request")
	return cmd
}
