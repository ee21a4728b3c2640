// Package catalog is a file-backed item source. One file, human-readable: a
// JSON array of items or a TOML document of [[item]] tables. Item ids in the
// file are ignored; position decides the id.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	werrors "github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/model"
	"github.com/idilsaglam/waterfall/internal/source"
)

type tomlFile struct {
	Item []model.Item `toml:"item"`
}

// Catalog serves batches out of a fixed item list.
type Catalog struct {
	items []model.Item
}

// New wraps items, renumbering them from 1.
func New(items []model.Item) *Catalog {
	out := make([]model.Item, len(items))
	for i, it := range items {
		it.ID = i + 1
		out[i] = it
	}
	return &Catalog{items: out}
}

// Open loads a catalogue file. The extension picks the format.
func Open(path string) (*Catalog, error) {
	items, err := Load(path)
	if err != nil {
		return nil, err
	}
	return New(items), nil
}

// Len is the number of items in the catalogue.
func (c *Catalog) Len() int { return len(c.items) }

// Batch returns the items at positions startID..startID+count-1.
func (c *Catalog) Batch(ctx context.Context, count, startID int) ([]model.Item, error) {
	if err := source.CheckRequest(count, startID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lo, hi := startID-1, startID-1+count
	if hi > len(c.items) {
		return nil, werrors.New(werrors.ErrCodeSourceUnavailable,
			"catalog has %d items, asked for %d..%d", len(c.items), startID, hi)
	}
	return append([]model.Item(nil), c.items[lo:hi]...), nil
}

// Load reads items from path. A missing file is an empty catalogue.
func Load(path string) ([]model.Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}

	var items []model.Item
	if isTOML(path) {
		var f tomlFile
		if _, err := toml.Decode(string(b), &f); err != nil {
			return nil, fmt.Errorf("toml decode: %w", err)
		}
		items = f.Item
	} else if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	for i, it := range items {
		if it.Height < 1 {
			return nil, werrors.New(werrors.ErrCodeInvalidItem, "%s: entry %d: height %d must be positive", path, i+1, it.Height)
		}
	}
	return items, nil
}

// Save writes items to path in the format its extension names.
func Save(path string, items []model.Item) error {
	var b []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(tomlFile{Item: items}); err != nil {
			return fmt.Errorf("toml encode: %w", err)
		}
		b = buf.Bytes()
	} else {
		var err error
		b, err = json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
