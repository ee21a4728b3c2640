// Package layout places grid items into columns.
//
// Distribute is a greedy shortest-column-first packer: each item goes to the
// column with the smallest accumulated height, ties going to the lowest
// index. It is deterministic, keeps input order within each column, and is
// recomputed from scratch on every call. The scan is O(n·k), which is fine
// for tens of items and single-digit column counts; a heap would be needed
// to scale past that.
package layout

import (
	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/model"
)

// Column is one vertical lane of the grid.
type Column struct {
	Items  []model.Item
	Height int // sum of item heights
}

// Distribute assigns items to columnCount columns.
// A column count below 1 is a caller bug and returns INVALID_COLUMN_COUNT.
func Distribute(items []model.Item, columnCount int) ([]Column, error) {
	if columnCount < 1 {
		return nil, errors.New(errors.ErrCodeInvalidColumnCount, "column count %d: must be >= 1", columnCount)
	}

	columns := make([]Column, columnCount)
	for _, it := range items {
		shortest := 0
		for i := 1; i < columnCount; i++ {
			if columns[i].Height < columns[shortest].Height {
				shortest = i
			}
		}
		columns[shortest].Items = append(columns[shortest].Items, it)
		columns[shortest].Height += it.Height
	}
	return columns, nil
}

// Partition returns only the item sequences, in column order.
func Partition(columns []Column) [][]model.Item {
	out := make([][]model.Item, len(columns))
	for i, c := range columns {
		out[i] = c.Items
	}
	return out
}

// Spread is the difference between the tallest and the shortest column.
func Spread(columns []Column) int {
	if len(columns) == 0 {
		return 0
	}
	lo, hi := columns[0].Height, columns[0].Height
	for _, c := range columns[1:] {
		lo = min(lo, c.Height)
		hi = max(hi, c.Height)
	}
	return hi - lo
}
