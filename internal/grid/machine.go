package grid

import (
	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/model"
)

// Event is an observation fed into Step.
type Event interface{ isEvent() }

// Scrolled reports the scroll position of the grid container.
type Scrolled struct {
	Top     int // offset of the first visible unit
	Visible int // visible height
	Total   int // full scrollable height
}

// LoadRequested is the manual "load more" trigger.
type LoadRequested struct{}

// Resized reports a new viewport width.
type Resized struct {
	Width int
}

// BatchLoaded completes the request identified by Seq.
type BatchLoaded struct {
	Seq   uint64
	Items []model.Item
}

// BatchFailed fails the request identified by Seq.
type BatchFailed struct {
	Seq uint64
	Err error
}

func (Scrolled) isEvent()      {}
func (LoadRequested) isEvent() {}
func (Resized) isEvent()       {}
func (BatchLoaded) isEvent()   {}
func (BatchFailed) isEvent()   {}

// NearBottom reports whether the viewport bottom is within threshold of the
// end of the content.
func (e Scrolled) NearBottom(threshold int) bool {
	return e.Top+e.Visible >= e.Total-threshold
}

// FetchBatch asks the host to request Count items starting at StartID and to
// report back with the same Seq.
type FetchBatch struct {
	Seq     uint64
	Count   int
	StartID int
}

// Step applies ev to s.
func Step(s State, ev Event) (State, []FetchBatch) {
	switch e := ev.(type) {
	case Scrolled:
		if !e.NearBottom(s.Threshold) {
			return s, nil
		}
		return startLoad(s)

	case LoadRequested:
		return startLoad(s)

	case Resized:
		s.ColumnCount = s.Breakpoints.ColumnsForWidth(e.Width, s.ColumnCount)
		return s, nil

	case BatchLoaded:
		if !s.Loading || e.Seq != s.inflight {
			return s, nil
		}
		for _, it := range e.Items {
			if err := it.Validate(); err != nil {
				return failLoad(s, err), nil
			}
		}
		s.Items = append(s.Items[:len(s.Items):len(s.Items)], e.Items...)
		s.Loading = false
		s.inflight = 0
		s.Err = nil
		if len(s.Items) >= s.Cap {
			s.HasMore = false
		}
		return s, nil

	case BatchFailed:
		if !s.Loading || e.Seq != s.inflight {
			return s, nil
		}
		return failLoad(s, e.Err), nil
	}
	return s, nil
}

func startLoad(s State) (State, []FetchBatch) {
	if !s.CanLoad() {
		return s, nil
	}
	s.lastSeq++
	s.inflight = s.lastSeq
	s.Loading = true
	return s, []FetchBatch{{
		Seq:     s.inflight,
		Count:   s.BatchSize,
		StartID: len(s.Items) + 1,
	}}
}

func failLoad(s State, err error) State {
	if !errors.Is(err, errors.ErrCodeSourceUnavailable) {
		err = errors.Wrap(errors.ErrCodeSourceUnavailable, err, "load batch")
	}
	s.Loading = false
	s.inflight = 0
	s.Err = err
	return s
}
