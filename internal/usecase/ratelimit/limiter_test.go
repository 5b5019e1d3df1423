package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/pdfsearch/internal/domain"
	domrl "github.com/kailas-cloud/pdfsearch/internal/domain/ratelimit"
	rlrepo "github.com/kailas-cloud/pdfsearch/internal/repository/ratelimit"
)

type errStore struct{ err error }

func (s *errStore) Take(context.Context, string, domrl.Policy, time.Time) (bool, float64, error) {
	return false, 0, s.err
}

func newTestLimiter(t *testing.T, clock *time.Time) *Limiter {
	t.Helper()
	l, err := New(rlrepo.NewMemory(), domrl.DefaultPolicy(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	l.now = func() time.Time { return *clock }
	return l
}

func TestAllow_BurstOfTwentyFive(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := newTestLimiter(t, &clock)
	ctx := context.Background()

	allowed, denied := 0, 0
	var last domrl.Decision
	for range 25 {
		d, err := l.Allow(ctx, "rl:key:abc")
		if err != nil {
			t.Fatal(err)
		}
		if d.Allowed {
			allowed++
		} else {
			denied++
			last = d
		}
	}
	if allowed != 20 || denied != 5 {
		t.Fatalf("allowed=%d denied=%d, want 20/5", allowed, denied)
	}
	if last.RetryAfter != 100*time.Millisecond {
		t.Errorf("retry after = %v, want 100ms", last.RetryAfter)
	}

	clock = clock.Add(time.Second)
	allowed = 0
	for range 25 {
		if d, _ := l.Allow(ctx, "rl:key:abc"); d.Allowed {
			allowed++
		}
	}
	if allowed < 10 {
		t.Errorf("allowed %d after 1s, want >= 10", allowed)
	}
}

func TestAllow_SustainedRateConverges(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := newTestLimiter(t, &clock)
	ctx := context.Background()

	// drain the burst, then offer 100 calls/s for 10s
	for range 20 {
		_, _ = l.Allow(ctx, "k")
	}
	allowed := 0
	for range 1000 {
		clock = clock.Add(10 * time.Millisecond)
		if d, _ := l.Allow(ctx, "k"); d.Allowed {
			allowed++
		}
	}
	if allowed < 99 || allowed > 101 {
		t.Errorf("allowed %d over 10s, want ~100", allowed)
	}
}

func TestAllow_StoreFailureFailsClosed(t *testing.T) {
	l, err := New(&errStore{err: errors.New("dial tcp: refused")}, domrl.DefaultPolicy(), 0)
	if err != nil {
		t.Fatal(err)
	}

	d, err := l.Allow(context.Background(), "k")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if d.Allowed {
		t.Error("store failure must not admit")
	}
}

func TestNew_InvalidPolicy(t *testing.T) {
	if _, err := New(rlrepo.NewMemory(), domrl.Policy{}, 0); err == nil {
		t.Error("expected error for zero policy")
	}
}
