// Package source defines where grid items come from.
//
// A Source hands out batches on demand. The synthetic generator in
// source/random is the default; source/catalog, source/httpsource and
// source/redisstore are backed by a file, the paged HTTP API and a Redis
// list respectively.
package source

import (
	"context"

	"github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/model"
)

// Source returns exactly count items with IDs startID..startID+count-1, or
// an error. A batch either fully arrives or fails as a whole.
type Source interface {
	Batch(ctx context.Context, count, startID int) ([]model.Item, error)
}

// Func adapts a plain function to Source.
type Func func(ctx context.Context, count, startID int) ([]model.Item, error)

// Batch calls f.
func (f Func) Batch(ctx context.Context, count, startID int) ([]model.Item, error) {
	return f(ctx, count, startID)
}

// CheckRequest rejects a request no source can satisfy.
func CheckRequest(count, startID int) error {
	if count < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "count %d: must be >= 1", count)
	}
	if startID < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "start id %d: must be >= 1", startID)
	}
	return nil
}

// Validate checks a batch against the Source contract. Remote sources call
// it on everything they receive.
func Validate(items []model.Item, count, startID int) error {
	if len(items) != count {
		return errors.New(errors.ErrCodeSourceUnavailable, "got %d items, want %d", len(items), count)
	}
	for i, it := range items {
		if it.ID != startID+i {
			return errors.New(errors.ErrCodeSourceUnavailable, "item %d has id %d, want %d", i, it.ID, startID+i)
		}
		if err := it.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeSourceUnavailable, err, "item %d", it.ID)
		}
	}
	return nil
}
