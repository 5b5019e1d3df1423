package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/pdfsearch/internal/db"
)

// CreateIndex creates a HASH-backed FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if def == nil {
		return errors.New("index definition is required")
	}
	args, err := def.Args()
	if err != nil {
		return fmt.Errorf("index %s: %w", def.Name, err)
	}

	cmd := s.b().Arbitrary(db.OpCreateIndex).Args(args...).Build()
	err = s.do(ctx, cmd).Error()
	if isRedisErr(err, "index already exists") {
		return db.ErrIndexExists
	}
	return db.Wrap(db.OpCreateIndex, def.Name, err)
}

// DropIndex removes an FT index by name. Indexed documents are kept.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary(db.OpDropIndex).Args(name).Build()
	err := s.do(ctx, cmd).Error()
	if isMissingIndex(err) {
		return db.ErrIndexNotFound
	}
	return db.Wrap(db.OpDropIndex, name, err)
}

// IndexExists probes index existence via FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary(db.OpIndexInfo).Args(name).Build()
	err := s.do(ctx, cmd).Error()
	switch {
	case err == nil:
		return true, nil
	case isMissingIndex(err):
		return false, nil
	default:
		return false, db.Wrap(db.OpIndexInfo, name, err)
	}
}

// isMissingIndex recognises the unknown-index replies of Redis Stack and
// older RediSearch builds.
func isMissingIndex(err error) bool {
	return isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index")
}
