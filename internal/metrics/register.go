package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register adds every pdfsearch collector to the default registry.
// Calls after the first are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			httpRequestsInFlight,

			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingInputsTotal,
			EmbeddingCacheTotal,

			RateLimitDecisionsTotal,
			SearchRequestsTotal,
			SearchDuration,
			IngestRecordsTotal,
			IngestBatchRetriesTotal,
		)
	})
}
