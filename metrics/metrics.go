package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InvocationsTotal tracks settled invocations per operation and outcome
	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolguard_invocations_total",
			Help: "Total number of settled invocations",
		},
		[]string{"operation", "outcome"},
	)

	// ErrorsTotal tracks terminal failures per operation and error kind
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolguard_errors_total",
			Help: "Total number of terminal invocation failures",
		},
		[]string{"operation", "error_kind"},
	)

	// RetriesTotal tracks scheduled retries per operation
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolguard_retries_total",
			Help: "Total number of scheduled retries",
		},
		[]string{"operation"},
	)

	// InvocationDuration tracks full invocation latency including backoff waits
	InvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toolguard_invocation_duration_seconds",
			Help:    "Invocation latency in seconds, retries and waits included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RecorderFailuresTotal tracks swallowed invocation-log write failures
	RecorderFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toolguard_recorder_failures_total",
			Help: "Total number of contained invocation-log persistence failures",
		},
		[]string{"reason"},
	)

	// BufferedEntries tracks entries parked in the fallback buffer
	BufferedEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "toolguard_buffered_entries",
			Help: "Invocation-log entries currently parked in the fallback buffer",
		},
	)
)
