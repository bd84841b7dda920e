package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_decisions_total",
		Help: "The total number of moderation decisions by outcome",
	}, []string{"decision"})

	PipelineShortCircuits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_short_circuits_total",
		Help: "The total number of runs resolved in phase 1 without external calls",
	})

	SignalDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gatekeeper_signal_duration_seconds",
		Help:    "Duration of external signal service calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})

	SignalErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_signal_errors_total",
		Help: "Total number of failed or timed-out external signal calls",
	}, []string{"service"})

	RateLimitStoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_rate_limit_store_failures_total",
		Help: "Total number of rate-limit store errors handled fail-open",
	})

	AuditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_audit_write_failures_total",
		Help: "Total number of swallowed audit log write failures",
	})
)

// ObserveSignal records the duration of one external signal call and
// counts it as an error when the call resolved with a failure reason.
func ObserveSignal(service string, started time.Time, errReason string) {
	SignalDuration.WithLabelValues(service).Observe(time.Since(started).Seconds())

	if errReason != "" {
		SignalErrors.WithLabelValues(service).Inc()
	}
}
