// Package ratelimit admits units of work against per-caller token buckets.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	domrl "github.com/kailas-cloud/pdfsearch/internal/domain/ratelimit"
	"github.com/kailas-cloud/pdfsearch/internal/logger"
	"github.com/kailas-cloud/pdfsearch/internal/metrics"
)

// DefaultTimeout bounds one bucket round trip.
const DefaultTimeout = 250 * time.Millisecond

// BucketStore refills and takes one token atomically per key.
type BucketStore interface {
	Take(ctx context.Context, key string, p domrl.Policy, now time.Time) (bool, float64, error)
}

// Limiter gates work per key. A store failure denies the request with a
// retryable error rather than admitting it unmetered.
type Limiter struct {
	store   BucketStore
	policy  domrl.Policy
	timeout time.Duration
	now     func() time.Time
}

// New creates a limiter. timeout <= 0 uses DefaultTimeout.
func New(store BucketStore, policy domrl.Policy, timeout time.Duration) (*Limiter, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("rate limit policy: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Limiter{store: store, policy: policy, timeout: timeout, now: time.Now}, nil
}

// Policy returns the bucket policy.
func (l *Limiter) Policy() domrl.Policy { return l.policy }

// Allow consumes one token for key. Denial is not an error: callers check
// Decision.Allowed and use RetryAfter. Errors wrap ErrUpstreamUnavailable.
func (l *Limiter) Allow(ctx context.Context, key string) (domrl.Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	allowed, remaining, err := l.store.Take(ctx, key, l.policy, l.now())
	if err != nil {
		metrics.RateLimitDecisionsTotal.WithLabelValues("error").Inc()
		logger.FromContext(ctx).Error("Rate limiter store failed", zap.String("bucket", key), zap.Error(err))
		return domrl.Decision{}, fmt.Errorf("%w: rate limiter: %w", domain.ErrUpstreamUnavailable, err)
	}

	d := l.policy.Decide(allowed, remaining)
	if d.Allowed {
		metrics.RateLimitDecisionsTotal.WithLabelValues("allowed").Inc()
	} else {
		metrics.RateLimitDecisionsTotal.WithLabelValues("denied").Inc()
	}
	return d, nil
}
