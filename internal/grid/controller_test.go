package grid

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/model"
	"github.com/idilsaglam/waterfall/internal/source"
)

// gatedSource blocks every Batch until release is signalled.
type gatedSource struct {
	calls   atomic.Int32
	release chan struct{}
}

func newGatedSource() *gatedSource {
	return &gatedSource{release: make(chan struct{})}
}

func (g *gatedSource) Batch(ctx context.Context, count, startID int) ([]model.Item, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
		return batch(startID, count, 100), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// waitFor polls the controller until cond holds.
func waitFor(t *testing.T, c *Controller, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := c.Snapshot(); cond(s) {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met, state = %+v", c.Snapshot())
	return State{}
}

func TestControllerLoadsUntilExhausted(t *testing.T) {
	src := source.Func(func(_ context.Context, count, startID int) ([]model.Item, error) {
		return batch(startID, count, 100), nil
	})
	c := NewController(src, DefaultSettings)
	defer c.Close()

	for i := 1; i <= 3; i++ {
		if err := c.Dispatch(LoadRequested{}); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		want := 20 * i
		waitFor(t, c, func(s State) bool { return len(s.Items) == want && !s.Loading })
	}
	s := c.Snapshot()
	if s.Phase() != Exhausted || len(s.Items) != 60 {
		t.Fatalf("phase=%v items=%d, want exhausted with 60", s.Phase(), len(s.Items))
	}
}

func TestControllerSingleFlight(t *testing.T) {
	src := newGatedSource()
	c := NewController(src, DefaultSettings)
	defer c.Close()

	_ = c.Dispatch(LoadRequested{})
	for range 5 {
		_ = c.Dispatch(Scrolled{Top: 100, Visible: 100, Total: 100})
	}
	waitFor(t, c, func(s State) bool { return s.Loading })
	time.Sleep(20 * time.Millisecond)
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("source calls = %d, want 1", got)
	}

	close(src.release)
	s := waitFor(t, c, func(s State) bool { return !s.Loading })
	if len(s.Items) != 20 {
		t.Errorf("items = %d, want 20", len(s.Items))
	}
}

func TestControllerFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	src := source.Func(func(_ context.Context, count, startID int) ([]model.Item, error) {
		if fail.Load() {
			return nil, errors.New(errors.ErrCodeSourceUnavailable, "offline")
		}
		return batch(startID, count, 100), nil
	})
	c := NewController(src, DefaultSettings)
	defer c.Close()

	_ = c.Dispatch(LoadRequested{})
	s := waitFor(t, c, func(s State) bool { return s.Phase() == Failed })
	if !s.CanRetry() {
		t.Fatal("failed state should allow retry")
	}

	fail.Store(false)
	_ = c.Dispatch(LoadRequested{})
	waitFor(t, c, func(s State) bool { return s.Phase() == Idle && len(s.Items) == 20 })
}

func TestControllerSubscribe(t *testing.T) {
	c := NewController(newGatedSource(), DefaultSettings)
	defer c.Close()

	got := make(chan State, 8)
	release := c.Subscribe(func(s State) { got <- s })

	_ = c.Dispatch(Resized{Width: 800})
	select {
	case s := <-got:
		if s.ColumnCount != 4 {
			t.Errorf("columns = %d, want 4", s.ColumnCount)
		}
	case <-time.After(time.Second):
		t.Fatal("observer not called")
	}

	release()
	release()
	_ = c.Dispatch(Resized{Width: 500})
	waitFor(t, c, func(s State) bool { return s.ColumnCount == 2 })
	select {
	case s := <-got:
		t.Fatalf("released observer called with %+v", s)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestControllerCloseDropsCompletion(t *testing.T) {
	src := newGatedSource()
	c := NewController(src, DefaultSettings)

	var notified atomic.Int32
	c.Subscribe(func(State) { notified.Add(1) })

	_ = c.Dispatch(LoadRequested{})
	waitFor(t, c, func(s State) bool { return s.Loading })
	before := notified.Load()

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close() did not return; in-flight fetch not cancelled")
	}

	if err := c.Dispatch(LoadRequested{}); !errors.Is(err, errors.ErrCodeClosed) {
		t.Errorf("Dispatch() after Close error = %v, want CLOSED", err)
	}
	if s := c.Snapshot(); len(s.Items) != 0 {
		t.Errorf("items after close = %d, want 0", len(s.Items))
	}
	if notified.Load() != before {
		t.Error("observer called after Close")
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestControllerDispatchContextGivesUp(t *testing.T) {
	c := NewController(newGatedSource(), DefaultSettings)
	defer c.Close()

	hold := make(chan struct{})
	defer close(hold)
	c.Subscribe(func(State) { <-hold })

	var gaveUp bool
	for range 40 {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		err := c.DispatchContext(ctx, Resized{Width: 800})
		cancel()
		if err != nil {
			if err != context.DeadlineExceeded {
				t.Fatalf("DispatchContext() error = %v, want deadline exceeded", err)
			}
			gaveUp = true
			break
		}
	}
	if !gaveUp {
		t.Fatal("DispatchContext() never gave up on a stalled queue")
	}
}
