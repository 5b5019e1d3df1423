package pdfsearch

import (
	"context"
	"maps"
	"slices"

	healthuc "github.com/kailas-cloud/pdfsearch/internal/usecase/health"
)

// Aggregate health values reported in HealthStatus.Status.
const (
	HealthOK       = string(healthuc.Healthy)
	HealthDegraded = string(healthuc.Degraded)
	HealthError    = string(healthuc.Unhealthy)
)

// HealthStatus is the outcome of Client.Health. Checks maps each component
// (store, index, embedding) to "ok", "missing" or "error".
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// Serving reports whether the store answers. Degraded means it does while the
// index or the embedding provider does not.
func (h HealthStatus) Serving() bool {
	return h.Status != HealthError
}

// Failing lists the components whose check did not pass, sorted.
func (h HealthStatus) Failing() []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(h.Checks)) {
		if h.Checks[name] != string(healthuc.CheckOK) {
			out = append(out, name)
		}
	}
	return out
}

// Health checks the store, the search index and the embedder.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	h := HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
	}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
