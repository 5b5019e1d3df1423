// Package ratelimit persists token buckets, either in the shared store or in process memory.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/pdfsearch/internal/db"
	domrl "github.com/kailas-cloud/pdfsearch/internal/domain/ratelimit"
)

// store is the consumer interface for atomic bucket accounting (ISP).
type store interface {
	TakeToken(ctx context.Context, req *db.TokenRequest) (db.TokenResult, error)
}

// SharedStore keeps buckets in the shared store. Refill and take run as one
// server-side script, so concurrent instances never double-spend a token.
type SharedStore struct {
	store  store
	prefix string
}

// NewShared creates a bucket store whose keys live under prefix.
func NewShared(s store, prefix string) *SharedStore {
	return &SharedStore{store: s, prefix: prefix}
}

// Take refills the bucket for key and consumes one token if available.
func (s *SharedStore) Take(ctx context.Context, key string, p domrl.Policy, now time.Time) (bool, float64, error) {
	res, err := s.store.TakeToken(ctx, &db.TokenRequest{
		Key:        s.prefix + key,
		RefillRate: p.RefillRate,
		Capacity:   p.Capacity,
		Now:        now,
		IdleTTL:    p.IdleTTL,
	})
	if err != nil {
		return false, 0, fmt.Errorf("take token %s: %w", key, err)
	}
	return res.Allowed, res.Remaining, nil
}
