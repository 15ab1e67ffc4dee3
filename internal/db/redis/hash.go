package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/animedex/internal/db"
)

// HSetMulti stores hashes in pipelined DoMulti round-trips of at most batchSize commands.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	return s.batches(len(items), func(lo, hi int) error {
		cmds := make([]rueidis.Completed, 0, hi-lo)
		for _, item := range items[lo:hi] {
			cmd := s.b().Hset().Key(item.Key).FieldValue()
			for k, v := range item.Fields {
				cmd = cmd.FieldValue(k, v)
			}
			cmds = append(cmds, cmd.Build())
		}

		for i, res := range s.client.DoMulti(ctx, cmds...) {
			if err := res.Error(); err != nil {
				return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", items[lo+i].Key, err)}
			}
		}
		return nil
	})
}

// HGetAllMulti fetches every field of each hash. The result is index-aligned with keys;
// a key that vanished since it was listed yields an empty map.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	out := make([]map[string]string, len(keys))
	err := s.batches(len(keys), func(lo, hi int) error {
		cmds := make([]rueidis.Completed, 0, hi-lo)
		for _, key := range keys[lo:hi] {
			cmds = append(cmds, s.b().Hgetall().Key(key).Build())
		}

		for i, res := range s.client.DoMulti(ctx, cmds...) {
			m, err := res.AsStrMap()
			if err != nil {
				return &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", keys[lo+i], err)}
			}
			out[lo+i] = m
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Del deletes keys.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	cmd := s.b().Del().Key(keys...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Scan iterates keys matching a pattern.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(1000).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}
