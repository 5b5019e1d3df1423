package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/pdfsearch/internal/db"
)

// takeTokenScript refills and takes one token in a single server-side step.
// KEYS[1] bucket hash; ARGV rate/s, capacity, now ms, idle ttl ms.
// Returns {allowed, tokens-after-as-string}.
const takeTokenScript = `
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
  tokens = capacity
  last = now
end

local elapsed = math.max(0, now - last) / 1000
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 - 1e-9 then
  tokens = math.max(0, tokens - 1)
  allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'last_refill', tostring(math.max(last, now)))
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tostring(tokens)}
`

// TakeToken runs the token-bucket script against the bucket at req.Key.
func (s *Store) TakeToken(ctx context.Context, req *db.TokenRequest) (db.TokenResult, error) {
	if req.Key == "" {
		return db.TokenResult{}, fmt.Errorf("bucket key is required")
	}

	ttl := req.IdleTTL.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	args := []string{
		strconv.FormatFloat(req.RefillRate, 'f', -1, 64),
		strconv.FormatFloat(req.Capacity, 'f', -1, 64),
		strconv.FormatInt(req.Now.UnixMilli(), 10),
		strconv.FormatInt(ttl, 10),
	}

	raw, err := s.bucket.Exec(ctx, s.client, []string{req.Key}, args).ToArray()
	if err != nil {
		return db.TokenResult{}, &db.Error{Op: db.OpEval, Err: err}
	}
	if len(raw) != 2 {
		return db.TokenResult{}, &db.Error{Op: db.OpEval, Err: fmt.Errorf("unexpected reply length %d", len(raw))}
	}

	allowed, err := raw[0].AsInt64()
	if err != nil {
		return db.TokenResult{}, &db.Error{Op: db.OpEval, Err: fmt.Errorf("parse allowed: %w", err)}
	}
	tokensStr, err := raw[1].ToString()
	if err != nil {
		return db.TokenResult{}, &db.Error{Op: db.OpEval, Err: fmt.Errorf("parse tokens: %w", err)}
	}
	remaining, err := strconv.ParseFloat(tokensStr, 64)
	if err != nil {
		return db.TokenResult{}, &db.Error{Op: db.OpEval, Err: fmt.Errorf("parse tokens: %w", err)}
	}

	return db.TokenResult{Allowed: allowed == 1, Remaining: remaining}, nil
}
