// Package ratelimit holds the token-bucket accounting shared by every bucket store.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"time"
)

// Defaults: ~10 requests per second with a burst of 20, buckets forgotten after a minute idle.
const (
	DefaultRefillRate = 10
	DefaultCapacity   = 20
	DefaultIdleTTL    = 60 * time.Second
)

// epsilon absorbs float drift so ten 0.1-token refills make a whole token.
const epsilon = 1e-9

// Policy is the steady rate and burst allowance of every bucket.
type Policy struct {
	RefillRate float64 // tokens per second
	Capacity   float64
	IdleTTL    time.Duration
}

// DefaultPolicy returns the reference policy.
func DefaultPolicy() Policy {
	return Policy{RefillRate: DefaultRefillRate, Capacity: DefaultCapacity, IdleTTL: DefaultIdleTTL}
}

// Validate checks that the policy can admit anything at all.
func (p Policy) Validate() error {
	if p.RefillRate <= 0 {
		return errors.New("refill rate must be positive")
	}
	if p.Capacity < 1 {
		return errors.New("capacity must be at least 1")
	}
	if p.IdleTTL <= 0 {
		return errors.New("idle ttl must be positive")
	}
	return nil
}

// State is the persisted accounting of one bucket.
type State struct {
	Tokens     float64
	LastRefill time.Time
}

// NewState is the lazily created bucket: full, refilled now.
func (p Policy) NewState(now time.Time) State {
	return State{Tokens: p.Capacity, LastRefill: now}
}

// Take refills s for the time elapsed up to now and consumes one token if a
// whole token is available. Tokens stay within [0, capacity] and LastRefill
// never moves backwards, so a clock step back refills nothing.
func (p Policy) Take(s State, now time.Time) (State, bool) {
	elapsed := now.Sub(s.LastRefill)
	if elapsed < 0 {
		elapsed = 0
	}
	tokens := math.Min(p.Capacity, s.Tokens+elapsed.Seconds()*p.RefillRate)
	tokens = math.Max(0, tokens)

	last := s.LastRefill
	if now.After(last) {
		last = now
	}

	if tokens < 1-epsilon {
		return State{Tokens: tokens, LastRefill: last}, false
	}
	return State{Tokens: math.Max(0, tokens-1), LastRefill: last}, true
}

// RetryAfter is how long a caller holding remaining tokens waits for the next whole one.
func (p Policy) RetryAfter(remaining float64) time.Duration {
	if remaining >= 1-epsilon {
		return 0
	}
	missing := 1 - math.Max(0, remaining)
	ms := math.Ceil(missing/p.RefillRate*1000 - epsilon)
	return time.Duration(ms) * time.Millisecond
}

// Decision is the admission outcome for one unit of work.
type Decision struct {
	Allowed    bool
	Remaining  float64
	RetryAfter time.Duration
}

// Decide wraps a take outcome into a Decision.
func (p Policy) Decide(allowed bool, remaining float64) Decision {
	d := Decision{Allowed: allowed, Remaining: remaining}
	if !allowed {
		d.RetryAfter = p.RetryAfter(remaining)
	}
	return d
}

// KeyForAPIKey derives a bucket key from a static credential without storing it.
func KeyForAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return "rl:key:" + hex.EncodeToString(sum[:8])
}

// KeyForSubject derives a bucket key from a token subject.
func KeyForSubject(sub string) string {
	return "rl:sub:" + sub
}
