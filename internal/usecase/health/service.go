package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the store answers but something else is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the store itself is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckMissing indicates the search index has not been created.
	CheckMissing CheckResult = "missing"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds each component probe.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	index     IndexChecker
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. index and embedding can be nil.
func New(store StorePinger, index IndexChecker, embedding EmbeddingChecker) *Service {
	return &Service{store: store, index: index, embedding: embedding, timeout: DefaultCheckTimeout}
}

// Check probes every component.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	storeOK := s.probe(ctx, s.store.Ping)
	checks["store"] = result(storeOK)

	if s.index != nil {
		switch {
		case !storeOK:
			checks["index"] = CheckError
		default:
			checks["index"] = s.checkIndex(ctx)
		}
	}

	if s.embedding != nil {
		checks["embedding"] = result(s.probe(ctx, s.embedding.HealthCheck))
	}

	status := Healthy
	if !storeOK {
		status = Unhealthy
	} else {
		for _, v := range checks {
			if v != CheckOK {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) checkIndex(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.index.Exists(ctx)
	switch {
	case err != nil:
		return CheckError
	case !ok:
		return CheckMissing
	default:
		return CheckOK
	}
}

func (s *Service) probe(ctx context.Context, fn func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx) == nil
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
