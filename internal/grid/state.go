// Package grid holds the infinite-scroll state machine of the waterfall.
//
// The machine is a pure function, Step, from a State and an Event to the next
// State plus the effects a host must perform. The only effect is FetchBatch.
// Hosts (the terminal UI, the headless Controller) feed observations in as
// events and route effect completions back as BatchLoaded or BatchFailed.
//
//	Idle ──scroll near bottom / load requested──▶ Loading
//	Loading ──batch loaded──▶ Idle | Exhausted
//	Loading ──batch failed──▶ Failed ──retry──▶ Loading
//
// Resized events change the column count and never touch the load phase.
package grid

import (
	"github.com/idilsaglam/waterfall/internal/layout"
	"github.com/idilsaglam/waterfall/internal/model"
)

// Phase is the externally visible load state.
type Phase int

const (
	Idle Phase = iota
	Loading
	Exhausted
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Settings are the fixed knobs of one grid session.
type Settings struct {
	BatchSize   int // items requested per load
	Cap         int // total at which HasMore flips to false
	Threshold   int // near-bottom distance, in scroll units
	Breakpoints layout.Breakpoints
}

// DefaultSettings load 20 items at a time, stop at 50 and trigger 10 units
// from the bottom.
var DefaultSettings = Settings{
	BatchSize:   20,
	Cap:         50,
	Threshold:   10,
	Breakpoints: layout.DefaultBreakpoints,
}

// State is one snapshot of a grid session. Treat it as a value: Step never
// mutates the Items backing array of the state it was given.
type State struct {
	Settings

	Items       []model.Item
	Loading     bool
	HasMore     bool
	ColumnCount int
	Err         error // last load failure, cleared by the next success

	inflight uint64 // seq of the outstanding request, 0 when none
	lastSeq  uint64
}

// NewState returns the initial state: no items, more available, one column.
func NewState(s Settings) State {
	if s.Breakpoints == (layout.Breakpoints{}) {
		s.Breakpoints = layout.DefaultBreakpoints
	}
	return State{
		Settings:    s,
		HasMore:     true,
		ColumnCount: layout.InitialColumns,
	}
}

// Phase derives the load phase from the flags.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return Loading
	case !s.HasMore:
		return Exhausted
	case s.Err != nil:
		return Failed
	}
	return Idle
}

// CanLoad reports whether a load may start now.
func (s State) CanLoad() bool {
	return !s.Loading && s.HasMore
}

// CanRetry reports whether the manual load control is offered: nothing
// loaded yet or the last load failed, and a load may start.
func (s State) CanRetry() bool {
	return s.CanLoad() && (len(s.Items) == 0 || s.Err != nil)
}

// Columns re-derives the column layout from the full item list.
func (s State) Columns() ([]layout.Column, error) {
	return layout.Distribute(s.Items, s.ColumnCount)
}
