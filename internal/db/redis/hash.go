package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/pdfsearch/internal/db"
)

// cmdsPerReplace is MULTI, DEL, HSET, EXEC.
const cmdsPerReplace = 4

// ReplaceHashes writes each item as MULTI/DEL/HSET/EXEC, all pipelined in a
// single DoMulti round trip. Each hash is replaced atomically, so fields
// dropped since the previous write do not linger. Failures are per item.
func (s *Store) ReplaceHashes(ctx context.Context, items []db.HashSetItem) []error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(items)*cmdsPerReplace)
	for _, item := range items {
		hset := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			hset = hset.FieldValue(k, v)
		}
		cmds = append(cmds,
			s.b().Multi().Build(),
			s.b().Del().Key(item.Key).Build(),
			hset.Build(),
			s.b().Exec().Build(),
		)
	}

	results := s.client.DoMulti(ctx, cmds...)
	errs := make([]error, len(items))
	for i := range items {
		if err := replaceResult(results, i); err != nil {
			errs[i] = &db.Error{Op: db.OpExec, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
		}
	}
	return errs
}

func replaceResult(results []rueidis.RedisResult, item int) error {
	base := item * cmdsPerReplace
	if base+cmdsPerReplace > len(results) {
		return errors.New("missing pipeline reply")
	}
	for _, res := range results[base : base+cmdsPerReplace-1] {
		if err := res.Error(); err != nil {
			return err
		}
	}
	replies, err := results[base+cmdsPerReplace-1].ToArray()
	if err != nil {
		return err
	}
	for _, r := range replies {
		if err := r.Error(); err != nil {
			return err
		}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields ErrKeyNotFound.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Target: key, Err: err}
	}
	if len(m) == 0 {
		return nil, db.ErrKeyNotFound
	}
	return m, nil
}

// Del deletes a key.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.b().Del().Key(key).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Target: key, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	cmd := s.b().Exists().Key(key).Build()
	count, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Target: key, Err: err}
	}
	return count > 0, nil
}
