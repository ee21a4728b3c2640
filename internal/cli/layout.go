package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/grid"
	"github.com/idilsaglam/waterfall/internal/layout"
	"github.com/idilsaglam/waterfall/internal/source"
	"github.com/idilsaglam/waterfall/internal/ui"
)

type layoutOptions struct {
	width   int
	batches int
	render  bool
	cols    int
}

func (c *CLI) layoutCommand() *cobra.Command {
	opts := layoutOptions{}

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Load batches and print the column partition",
		Long: `Load one or more batches from the configured source, distribute them across
the column count for --width, and print each column's items and height.`,
		Example: `  waterfall layout --width 800 --batches 3
  waterfall layout --width 1200 --render --cols 120`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			// Nothing is waiting on screen, so simulated latency is pointless here.
			cfg.Source.Delay = 0

			src, closeSrc, err := openSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSrc()

			prog := newProgress(c.Logger)
			s, err := loadBatches(cmd.Context(), src, grid.NewState(cfg.Grid.Settings()), opts)
			if err != nil {
				ui.FFail(cmd.ErrOrStderr(), errors.UserMessage(err))
				return err
			}
			prog.done(fmt.Sprintf("Loaded %d items", len(s.Items)))

			cols, err := s.Columns()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Panel(layoutLines(s, cols)))
			if opts.render {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Columns(cols, ui.Geometry{
					Width:      opts.cols,
					CellHeight: cfg.Grid.CellHeight,
					Gap:        1,
				}))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.width, "width", 1200, "viewport width in pixels")
	cmd.Flags().IntVar(&opts.batches, "batches", 1, "number of batches to load")
	cmd.Flags().BoolVar(&opts.render, "render", false, "also draw the tiles")
	cmd.Flags().IntVar(&opts.cols, "cols", 100, "terminal columns available to --render")
	return cmd
}

// loadBatches drives the state machine synchronously: one resize, then one
// load per batch until the cap stops it.
func loadBatches(ctx context.Context, src source.Source, s grid.State, opts layoutOptions) (grid.State, error) {
	if opts.width < 0 || opts.batches < 0 {
		return s, errors.New(errors.ErrCodeInvalidInput, "width and batches must be non-negative")
	}
	s, _ = grid.Step(s, grid.Resized{Width: opts.width})

	for range opts.batches {
		var effects []grid.FetchBatch
		s, effects = grid.Step(s, grid.LoadRequested{})
		if len(effects) == 0 {
			break
		}
		f := effects[0]
		items, err := src.Batch(ctx, f.Count, f.StartID)
		if err != nil {
			s, _ = grid.Step(s, grid.BatchFailed{Seq: f.Seq, Err: err})
			return s, s.Err
		}
		s, _ = grid.Step(s, grid.BatchLoaded{Seq: f.Seq, Items: items})
		if s.Err != nil {
			return s, s.Err
		}
	}
	return s, nil
}

func layoutLines(s grid.State, cols []layout.Column) []string {
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.TitleStyle().Render("Waterfall"),
		t.AccentStyle().Render("columns"), s.ColumnCount,
		t.AccentStyle().Render("items"), len(s.Items),
		t.AccentStyle().Render("spread"), layout.Spread(cols),
	)

	lines := []string{
		header,
		t.MutedStyle().Render(ui.ProgressBar(len(s.Items), s.Cap, 28)),
		"",
	}
	for i, col := range cols {
		ids := make([]string, len(col.Items))
		for j, it := range col.Items {
			ids[j] = fmt.Sprint(it.ID)
		}
		lines = append(lines, fmt.Sprintf("%s %5d  %s",
			t.AccentStyle().Render(fmt.Sprintf("col %d", i+1)),
			col.Height,
			strings.Join(ids, " "),
		))
	}
	if !s.HasMore {
		lines = append(lines, "", t.MutedStyle().Render("No more items."))
	}
	return lines
}
