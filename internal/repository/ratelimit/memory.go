package ratelimit

import (
	"context"
	"sync"
	"time"

	domrl "github.com/kailas-cloud/pdfsearch/internal/domain/ratelimit"
)

// MemoryStore keeps buckets in process memory. Only correct for a single
// instance; local runs and tests use it.
type MemoryStore struct {
	mu        sync.Mutex
	buckets   map[string]domrl.State
	lastSweep time.Time
}

// NewMemory creates an empty in-process bucket store.
func NewMemory() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]domrl.State)}
}

// Take refills the bucket for key and consumes one token if available.
// Idle buckets are swept lazily, at most once per idle window.
func (m *MemoryStore) Take(_ context.Context, key string, p domrl.Policy, now time.Time) (bool, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now, p.IdleTTL)

	st, ok := m.buckets[key]
	if !ok || now.Sub(st.LastRefill) > p.IdleTTL {
		st = p.NewState(now)
	}

	st, allowed := p.Take(st, now)
	m.buckets[key] = st
	return allowed, st.Tokens, nil
}

// Len returns the number of live buckets.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

func (m *MemoryStore) sweep(now time.Time, idle time.Duration) {
	if now.Sub(m.lastSweep) < idle {
		return
	}
	m.lastSweep = now
	for key, st := range m.buckets {
		if now.Sub(st.LastRefill) > idle {
			delete(m.buckets, key)
		}
	}
}
