package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/grid"
	"github.com/idilsaglam/waterfall/internal/model"
	"github.com/idilsaglam/waterfall/internal/source"
)

const randomConfig = `
[source]
kind = "random"
seed = 7
delay = "1ms"

[ui]
theme = "mono"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with --config appended and returns stdout
// and stderr.
func execute(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(append(args, "--config", configPath))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestLayoutCommand(t *testing.T) {
	cfg := writeConfig(t, randomConfig)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "one batch on a tablet",
			args:    []string{"layout", "--width", "800"},
			want:    []string{"col 4", "20/50"},
			notWant: []string{"col 5", "No more items."},
		},
		{
			name: "batches stop at the cap",
			args: []string{"layout", "--width", "1200", "--batches", "5"},
			want: []string{"col 5", "60/50", "No more items."},
		},
		{
			name:    "narrow viewport",
			args:    []string{"layout", "--width", "320", "--batches", "2"},
			want:    []string{"col 2", "40/50"},
			notWant: []string{"col 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, cfg, tt.args...)
			if err != nil {
				t.Fatalf("layout: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output unexpectedly contains %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestSeedThenLayoutFromCatalog(t *testing.T) {
	dir := t.TempDir()
	items := filepath.Join(dir, "items.toml")

	out, _, err := execute(t, writeConfig(t, randomConfig), "seed", "--count", "60", "--file", items)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "wrote 60 items") {
		t.Errorf("seed output = %q", out)
	}

	cfg := writeConfig(t, fmt.Sprintf("[source]\nkind = %q\npath = %q\n", "catalog", items))
	out, _, err = execute(t, cfg, "layout", "--width", "1024", "--batches", "3")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if !strings.Contains(out, "60/50") || !strings.Contains(out, "col 5") {
		t.Errorf("layout output:\n%s", out)
	}
}

func TestLayoutShortCatalogFails(t *testing.T) {
	dir := t.TempDir()
	items := filepath.Join(dir, "items.json")
	if _, _, err := execute(t, writeConfig(t, randomConfig), "seed", "--count", "30", "--file", items); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := writeConfig(t, fmt.Sprintf("[source]\nkind = %q\npath = %q\n", "catalog", items))
	_, errOut, err := execute(t, cfg, "layout", "--batches", "2")
	if !errors.Is(err, errors.ErrCodeSourceUnavailable) {
		t.Fatalf("err = %v, want SOURCE_UNAVAILABLE", err)
	}
	if !strings.Contains(errOut, "catalog has 30 items") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestSeedRequiresOneDestination(t *testing.T) {
	cfg := writeConfig(t, randomConfig)
	tests := [][]string{
		{"seed"},
		{"seed", "--file", filepath.Join(t.TempDir(), "x.json"), "--redis"},
		{"seed", "--count", "0", "--file", filepath.Join(t.TempDir(), "x.json")},
	}
	for _, args := range tests {
		if _, _, err := execute(t, cfg, args...); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("%v: err = %v, want INVALID_INPUT", args, err)
		}
	}
}

func TestSimulateCommand(t *testing.T) {
	cfg := writeConfig(t, randomConfig)
	out, _, err := execute(t, cfg, "simulate", "--widths", "500,1600", "--steps", "10")
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	for _, w := range []string{"step 1  items 20", "step 3  items 60", "60 items in 2 columns, exhausted"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
	if strings.Contains(out, "step 4") {
		t.Errorf("simulation kept scrolling after exhaustion:\n%s", out)
	}
}

func TestSimulateStopsOnFailure(t *testing.T) {
	src := source.Func(func(_ context.Context, count, startID int) ([]model.Item, error) {
		if startID > 1 {
			return nil, errors.New(errors.ErrCodeSourceUnavailable, "offline")
		}
		items := make([]model.Item, count)
		for i := range items {
			items[i] = model.Item{ID: startID + i, Height: 150}
		}
		return items, nil
	})
	ctrl := grid.NewController(src, grid.DefaultSettings)
	defer ctrl.Close()

	var steps []grid.Phase
	final, err := simulate(context.Background(), ctrl, simulateOptions{
		widths:   []int{1200},
		steps:    5,
		viewport: 800,
		timeout:  5 * time.Second,
	}, func(_ int, s grid.State) { steps = append(steps, s.Phase()) })

	if !errors.Is(err, errors.ErrCodeSourceUnavailable) {
		t.Fatalf("err = %v, want SOURCE_UNAVAILABLE", err)
	}
	if final.Phase() != grid.Failed || len(final.Items) != 20 {
		t.Errorf("final phase=%v items=%d", final.Phase(), len(final.Items))
	}
	if len(steps) != 2 || steps[0] != grid.Idle || steps[1] != grid.Failed {
		t.Errorf("steps = %v, want [idle failed]", steps)
	}
}

func TestSimulateManyWidths(t *testing.T) {
	src := source.Func(func(_ context.Context, count, startID int) ([]model.Item, error) {
		items := make([]model.Item, count)
		for i := range items {
			items[i] = model.Item{ID: startID + i, Height: 120}
		}
		return items, nil
	})
	ctrl := grid.NewController(src, grid.DefaultSettings)
	defer ctrl.Close()

	widths := make([]int, 40)
	for i := range widths {
		widths[i] = 300 + 30*i
	}

	type result struct {
		s   grid.State
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := simulate(context.Background(), ctrl, simulateOptions{
			widths:   widths,
			steps:    10,
			viewport: 800,
			timeout:  5 * time.Second,
		}, func(int, grid.State) {})
		done <- result{s, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("simulate: %v", r.err)
		}
		// The last width below 1440 is 1410, which maps to 5 columns.
		if len(r.s.Items) != 60 || r.s.ColumnCount != 5 {
			t.Errorf("items=%d columns=%d, want 60 and 5", len(r.s.Items), r.s.ColumnCount)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("simulate did not finish with 40 widths")
	}
}

func TestSimulateHonoursCancel(t *testing.T) {
	ctrl := grid.NewController(source.Func(func(ctx context.Context, _, _ int) ([]model.Item, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), grid.DefaultSettings)
	defer ctrl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := simulate(ctx, ctrl, simulateOptions{
		widths:   []int{800},
		steps:    3,
		viewport: 800,
		timeout:  5 * time.Second,
	}, func(int, grid.State) {})
	if err != context.DeadlineExceeded {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestLoadBatchesRejectsNegative(t *testing.T) {
	s := grid.NewState(grid.DefaultSettings)
	_, err := loadBatches(context.Background(), nil, s, layoutOptions{width: -1, batches: 1})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestMissingExplicitConfig(t *testing.T) {
	_, _, err := execute(t, filepath.Join(t.TempDir(), "nope.toml"), "layout")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG", err)
	}
}
