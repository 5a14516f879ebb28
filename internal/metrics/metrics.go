// Package metrics exposes prometheus counters/histograms for operation
// counts, rejection reasons, and security-monitor verdicts, grounded on
// observability/metrics.go's ModuleMetrics lazily-initialised singleton
// pattern and its Namespace/Subsystem/labelled-CounterVec shape.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type registryMetrics struct {
	operations *prometheus.CounterVec
	rejections *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	security   *prometheus.CounterVec
}

var (
	once sync.Once
	reg  *registryMetrics
)

// Registry returns the lazily-initialised, process-wide metrics registry.
func Registry() *registryMetrics {
	once.Do(func() {
		reg = &registryMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "arcchain",
				Subsystem: "registry",
				Name:      "operations_total",
				Help:      "Total registry/access-control operations segmented by module, op, and outcome.",
			}, []string{"module", "op", "outcome"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "arcchain",
				Subsystem: "registry",
				Name:      "rejections_total",
				Help:      "Count of operations rejected, segmented by module, op, and error code.",
			}, []string{"module", "op", "code"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "arcchain",
				Subsystem: "registry",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for registry/access-control operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "op"}),
			security: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "arcchain",
				Subsystem: "security",
				Name:      "verdicts_total",
				Help:      "Count of security-monitor verdicts segmented by verdict kind.",
			}, []string{"verdict"}),
		}
		prometheus.MustRegister(reg.operations, reg.rejections, reg.duration, reg.security)
	})
	return reg
}

// ObserveOperation records the outcome and latency of one operation call.
func (m *registryMetrics) ObserveOperation(module, op string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.operations.WithLabelValues(module, op, outcome).Inc()
	m.duration.WithLabelValues(module, op).Observe(duration.Seconds())
}

// RecordRejection increments the rejection counter for a failed operation.
func (m *registryMetrics) RecordRejection(module, op, code string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(module, op, code).Inc()
}

// RecordSecurityVerdict increments the security-monitor verdict counter
// (e.g. "rate_limited", "suspicious_activity", "ok").
func (m *registryMetrics) RecordSecurityVerdict(verdict string) {
	if m == nil {
		return
	}
	m.security.WithLabelValues(verdict).Inc()
}
