package grid

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/source"
)

// Controller runs one grid session without a UI.
//
// All events, including fetch completions, go through a single queue and
// are applied one at a time in arrival order. Observers registered with
// Subscribe are called on that loop after every event and must not block;
// calling Dispatch from an observer is fine while the queue has room.
//
// Close detaches every observer, cancels in-flight fetches and stops the
// loop. A fetch that completes after Close is dropped.
type Controller struct {
	src    source.Source
	logger *log.Logger

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	fetch  sync.WaitGroup
	once   sync.Once

	mu        sync.Mutex
	state     State
	observers map[int]func(State)
	nextObs   int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger logs transitions and fetches to l.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController starts the event loop.
func NewController(src source.Source, s Settings, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		src:       src,
		logger:    log.New(io.Discard),
		events:    make(chan Event, 16),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     NewState(s),
		observers: make(map[int]func(State)),
	}
	for _, o := range opts {
		o(c)
	}
	go c.run()
	return c
}

// Dispatch queues ev. It fails with CLOSED once the controller is closed.
func (c *Controller) Dispatch(ev Event) error {
	return c.DispatchContext(context.Background(), ev)
}

// DispatchContext is Dispatch that gives up with ctx's error when ctx is
// done before the queue has room.
func (c *Controller) DispatchContext(ctx context.Context, ev Event) error {
	if c.ctx.Err() != nil {
		return errors.New(errors.ErrCodeClosed, "controller closed")
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.ctx.Done():
		return errors.New(errors.ErrCodeClosed, "controller closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers fn and returns the function that removes it.
// The release function is safe to call more than once.
func (c *Controller) Subscribe(fn func(State)) (release func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close stops the controller and waits for it to wind down. It is
// idempotent.
func (c *Controller) Close() error {
	c.once.Do(func() {
		c.cancel()
		<-c.done
		c.fetch.Wait()

		c.mu.Lock()
		clear(c.observers)
		c.mu.Unlock()
		c.logger.Debug("controller closed")
	})
	return nil
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.events:
			if c.ctx.Err() != nil {
				return
			}
			c.apply(ev)
		}
	}
}

func (c *Controller) apply(ev Event) {
	c.mu.Lock()
	prev := c.state
	next, effects := Step(prev, ev)
	c.state = next
	observers := make([]func(State), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	if prev.Phase() != next.Phase() || prev.ColumnCount != next.ColumnCount {
		c.logger.Debug("transition",
			"from", prev.Phase(), "to", next.Phase(),
			"items", len(next.Items), "columns", next.ColumnCount)
	}
	for _, eff := range effects {
		c.start(eff)
	}
	for _, fn := range observers {
		fn(next)
	}
}

func (c *Controller) start(f FetchBatch) {
	reqID := uuid.NewString()
	c.logger.Debug("fetch", "req", reqID, "seq", f.Seq, "start", f.StartID, "count", f.Count)

	c.fetch.Add(1)
	go func() {
		defer c.fetch.Done()
		began := time.Now()

		items, err := c.src.Batch(c.ctx, f.Count, f.StartID)
		var ev Event = BatchLoaded{Seq: f.Seq, Items: items}
		if err != nil {
			ev = BatchFailed{Seq: f.Seq, Err: err}
			if c.ctx.Err() == nil {
				c.logger.Warn("fetch failed", "req", reqID, "err", err)
			}
		} else {
			c.logger.Debug("fetched", "req", reqID, "items", len(items), "elapsed", time.Since(began).Round(time.Millisecond))
		}

		select {
		case c.events <- ev:
		case <-c.ctx.Done():
		}
	}()
}
