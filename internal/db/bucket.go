package db

import "time"

// TokenRequest asks the store to refill and take one token from a bucket.
type TokenRequest struct {
	Key        string
	RefillRate float64 // tokens per second
	Capacity   float64
	Now        time.Time
	IdleTTL    time.Duration
}

// TokenResult is the bucket state after the take attempt.
type TokenResult struct {
	Allowed   bool
	Remaining float64
}
