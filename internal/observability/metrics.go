// Package observability holds the Prometheus collectors the proxy records
// into. Collectors are package-level and registered once at init, the same
// registry promhttp exposes on /metrics.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets covers inference latencies from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts HTTP requests by path and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"path", "status"},
	)

	// RequestDurationSeconds records HTTP request duration by path.
	RequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cascade_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"path"},
	)

	// StreamingConnections tracks active streaming responses.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cascade_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// BackendRequestsTotal counts backend attempts by outcome: ok, error,
	// or empty (drained cleanly but produced nothing).
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_backend_requests_total",
			Help: "Backend attempts",
		},
		[]string{"backend", "status"},
	)

	// BackendLatencySeconds records per-backend latency to stream end.
	BackendLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cascade_backend_latency_seconds",
			Help:    "Backend latency",
			Buckets: LLMBuckets,
		},
		[]string{"backend"},
	)

	// FailoversTotal counts failed backend attempts that advanced the
	// rotation to the next candidate.
	FailoversTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cascade_failovers_total",
			Help: "Rotation advances after a backend failure",
		},
	)

	// CompletionTokensTotal counts tokenizer-measured completion tokens per
	// backend. These are the accurate counts; the wire usage block stays
	// heuristic.
	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_completion_tokens_total",
			Help: "Completion tokens measured by the tokenizer",
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDurationSeconds,
		StreamingConnections,
		BackendRequestsTotal,
		BackendLatencySeconds,
		FailoversTotal,
		CompletionTokensTotal,
	)
}
