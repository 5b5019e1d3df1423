package pdfsearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "sdk"

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	records    *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfsearch",
			Subsystem: metricsSubsystem,
			Name:      "operations_total",
			Help:      "Client operations by name and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdfsearch",
			Subsystem: metricsSubsystem,
			Name:      "operation_duration_seconds",
			Help:      "Client operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfsearch",
			Subsystem: metricsSubsystem,
			Name:      "records_total",
			Help:      "Records passed to Index and IngestJSONL by result.",
		}, []string{"result"}),
	}
	if err := reuseOrRegister(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := reuseOrRegister(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := reuseOrRegister(reg, &m.records); err != nil {
		return nil, err
	}
	return m, nil
}

// reuseOrRegister registers c, or points it at the collector a previous
// client already registered under the same name.
func reuseOrRegister[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("pdfsearch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("pdfsearch: metric registered with a different type %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and measures client operations. A nil observer, or one
// without a logger or registry, silently skips that half.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// opSpan is one in-flight client operation.
type opSpan struct {
	o     *observer
	op    string
	start time.Time
	attrs []any
}

func (o *observer) begin(op string) *opSpan {
	return &opSpan{o: o, op: op, start: time.Now()}
}

// set attaches a log attribute reported when the span ends.
func (s *opSpan) set(key string, value any) {
	s.attrs = append(s.attrs, key, value)
}

// records counts indexed and failed records.
func (s *opSpan) records(indexed, failed int) {
	s.set("indexed", indexed)
	s.set("failed", failed)
	if s.o == nil || s.o.metrics == nil {
		return
	}
	s.o.metrics.records.WithLabelValues("indexed").Add(float64(indexed))
	s.o.metrics.records.WithLabelValues("failed").Add(float64(failed))
}

func (s *opSpan) end(err error) {
	if s.o == nil {
		return
	}
	took := time.Since(s.start)

	if m := s.o.metrics; m != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.operations.WithLabelValues(s.op, status).Inc()
		m.duration.WithLabelValues(s.op).Observe(took.Seconds())
	}

	if s.o.logger == nil {
		return
	}
	attrs := append([]any{"op", s.op, "duration", took}, s.attrs...)
	if err != nil {
		s.o.logger.Warn("pdfsearch operation failed", append(attrs, "error", err)...)
		return
	}
	s.o.logger.Debug("pdfsearch operation completed", attrs...)
}
