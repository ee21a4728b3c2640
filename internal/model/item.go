package model

import "github.com/idilsaglam/waterfall/internal/errors"

// Item is one tile of the grid.
// ID and Height never change once the item is in the grid; Color is only
// used for painting.
type Item struct {
	ID     int    `json:"id" toml:"id"`
	Height int    `json:"height" toml:"height"`
	Color  string `json:"color" toml:"color"`
}

// Validate rejects items the layout cannot place.
func (it Item) Validate() error {
	if it.ID < 1 {
		return errors.New(errors.ErrCodeInvalidItem, "item id %d: must be >= 1", it.ID)
	}
	if it.Height < 1 {
		return errors.New(errors.ErrCodeInvalidItem, "item %d: height %d must be positive", it.ID, it.Height)
	}
	return nil
}
