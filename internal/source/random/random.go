// Package random is the synthetic item source: random heights and colours
// delivered after a fixed delay, standing in for a paged fetch.
package random

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/idilsaglam/waterfall/internal/model"
	"github.com/idilsaglam/waterfall/internal/source"
)

// Options tune the generator. Zero values fall back to the defaults.
type Options struct {
	Delay     time.Duration // latency of every batch; negative means none
	Seed      uint64        // 0 seeds from the clock
	MinHeight int           // inclusive
	MaxHeight int           // exclusive
}

const (
	DefaultDelay     = time.Second
	DefaultMinHeight = 100
	DefaultMaxHeight = 400
)

// Source generates items.
type Source struct {
	delay    time.Duration
	min, max int

	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a generator configured by opts.
func New(opts Options) *Source {
	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.MinHeight < 1 {
		opts.MinHeight = DefaultMinHeight
	}
	if opts.MaxHeight <= opts.MinHeight {
		opts.MaxHeight = max(DefaultMaxHeight, opts.MinHeight+1)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Source{
		delay: opts.Delay,
		min:   opts.MinHeight,
		max:   opts.MaxHeight,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Batch waits for the configured delay, then generates count items.
func (s *Source) Batch(ctx context.Context, count, startID int) ([]model.Item, error) {
	if err := source.CheckRequest(count, startID); err != nil {
		return nil, err
	}
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return s.Generate(count, startID), nil
}

// Generate builds count items immediately.
func (s *Source) Generate(count, startID int) []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.Item, count)
	for i := range items {
		items[i] = model.Item{
			ID:     startID + i,
			Height: s.min + s.rng.IntN(s.max-s.min),
			Color:  fmt.Sprintf("#%06X", s.rng.IntN(1<<24)),
		}
	}
	return items
}
