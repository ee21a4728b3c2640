// Package redisstore keeps grid items in a Redis list, one JSON document per
// element, and serves batches with LRANGE.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	werrors "github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/model"
	"github.com/idilsaglam/waterfall/internal/source"
)

// DefaultKey is the list key used when none is configured.
const DefaultKey = "waterfall:items"

// Store is a Source backed by a Redis list.
type Store struct {
	rdb redis.UniversalClient
	key string
}

// New wraps an existing client.
func New(rdb redis.UniversalClient, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{rdb: rdb, key: key}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr string, db int, key string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, werrors.Wrap(werrors.ErrCodeSourceUnavailable, err, "redis %s", addr)
	}
	return New(rdb, key), nil
}

// Close releases the client.
func (s *Store) Close() error { return s.rdb.Close() }

// Batch reads list positions startID-1..startID+count-2.
func (s *Store) Batch(ctx context.Context, count, startID int) ([]model.Item, error) {
	if err := source.CheckRequest(count, startID); err != nil {
		return nil, err
	}
	lo := int64(startID - 1)
	raw, err := s.rdb.LRange(ctx, s.key, lo, lo+int64(count)-1).Result()
	if err != nil {
		return nil, werrors.Wrap(werrors.ErrCodeSourceUnavailable, err, "lrange %s", s.key)
	}

	items := make([]model.Item, 0, len(raw))
	for i, doc := range raw {
		var it model.Item
		if err := json.Unmarshal([]byte(doc), &it); err != nil {
			return nil, werrors.Wrap(werrors.ErrCodeSourceUnavailable, err, "decode %s[%d]", s.key, lo+int64(i))
		}
		items = append(items, it)
	}
	if err := source.Validate(items, count, startID); err != nil {
		return nil, err
	}
	return items, nil
}

// Seed replaces the list with items, renumbered from 1.
func (s *Store) Seed(ctx context.Context, items []model.Item) error {
	docs := make([]any, len(items))
	for i, it := range items {
		it.ID = i + 1
		b, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
		docs[i] = string(b)
	}

	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.key)
		if len(docs) > 0 {
			p.RPush(ctx, s.key, docs...)
		}
		return nil
	})
	if err != nil {
		return werrors.Wrap(werrors.ErrCodeSourceUnavailable, err, "seed %s", s.key)
	}
	return nil
}

// Len is the number of stored items.
func (s *Store) Len(ctx context.Context) (int64, error) {
	return s.rdb.LLen(ctx, s.key).Result()
}
