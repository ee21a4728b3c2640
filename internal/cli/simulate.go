package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/grid"
	"github.com/idilsaglam/waterfall/internal/layout"
	"github.com/idilsaglam/waterfall/internal/ui"
)

type simulateOptions struct {
	widths   []int
	steps    int
	viewport int
	timeout  time.Duration
}

func (c *CLI) simulateCommand() *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a headless grid with scripted resizes and scrolls",
		Long: `Run the grid controller without a terminal UI. The viewport is resized
through --widths in order, then scrolled to the bottom once per step until the
source is exhausted, a load fails, or --steps is reached.`,
		Example: `  waterfall simulate --widths 500,900,1600 --steps 5
  WATERFALL_SOURCE_DELAY=10ms waterfall simulate -v`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			src, closeSrc, err := openSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSrc()

			ctrl := grid.NewController(src, cfg.Grid.Settings(), grid.WithLogger(c.Logger))
			defer ctrl.Close()

			out := cmd.OutOrStdout()
			final, err := simulate(cmd.Context(), ctrl, opts, func(step int, s grid.State) {
				spread := "-"
				if cols, err := s.Columns(); err == nil {
					spread = fmt.Sprint(layout.Spread(cols))
				}
				fmt.Fprintf(out, "step %d  items %d  columns %d  spread %s  phase %s\n",
					step, len(s.Items), s.ColumnCount, spread, s.Phase())
			})
			if err != nil {
				ui.FFail(cmd.ErrOrStderr(), errors.UserMessage(err))
				return err
			}
			ui.FOK(out, fmt.Sprintf("%d items in %d columns, %s", len(final.Items), final.ColumnCount, final.Phase()))
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&opts.widths, "widths", []int{1200}, "viewport widths in pixels, applied in order")
	cmd.Flags().IntVar(&opts.steps, "steps", 10, "maximum number of scroll steps")
	cmd.Flags().IntVar(&opts.viewport, "viewport", 800, "viewport height in pixels")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "maximum wait for a single batch")
	return cmd
}

// simulate resizes ctrl through opts.widths and then scrolls to the bottom
// until loading stops. report is called after every settled step.
func simulate(ctx context.Context, ctrl *grid.Controller, opts simulateOptions, report func(int, grid.State)) (grid.State, error) {
	// Only the latest state matters, so the observer replaces an unread one
	// instead of blocking the controller loop.
	updates := make(chan grid.State, 1)
	release := ctrl.Subscribe(func(s grid.State) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer release()

	for _, w := range opts.widths {
		if err := ctrl.DispatchContext(ctx, grid.Resized{Width: w}); err != nil {
			return grid.State{}, err
		}
	}

	for step := 1; step <= opts.steps; step++ {
		s := ctrl.Snapshot()
		if !s.HasMore {
			return s, nil
		}

		total := tallest(s)
		before := len(s.Items)
		if err := ctrl.DispatchContext(ctx, grid.Scrolled{
			Top:     max(total-opts.viewport, 0),
			Visible: opts.viewport,
			Total:   total,
		}); err != nil {
			return s, err
		}

		s, err := settle(ctx, updates, before, opts.timeout)
		if err != nil {
			return s, err
		}
		report(step, s)
		if s.Err != nil {
			return s, s.Err
		}
	}
	return ctrl.Snapshot(), nil
}

// settle waits for the load started after before items to land or fail.
func settle(ctx context.Context, updates <-chan grid.State, before int, timeout time.Duration) (grid.State, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case s := <-updates:
			if !s.Loading && (len(s.Items) > before || s.Err != nil) {
				return s, nil
			}
		case <-timer.C:
			return grid.State{}, errors.New(errors.ErrCodeSourceUnavailable, "no batch within %s", timeout)
		case <-ctx.Done():
			return grid.State{}, ctx.Err()
		}
	}
}

// tallest is the content height of the laid-out grid in pixels.
func tallest(s grid.State) int {
	cols, err := s.Columns()
	if err != nil {
		return 0
	}
	h := 0
	for _, c := range cols {
		h = max(h, c.Height)
	}
	return h
}
