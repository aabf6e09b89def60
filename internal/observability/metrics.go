package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerbuilder_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "offerbuilder_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// catalog search requests by outcome
	CatalogFetchCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerbuilder_catalog_fetches_total",
			Help: "Total catalog search requests issued",
		},
		[]string{"outcome"},
	)

	// catalog search latency
	CatalogFetchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "offerbuilder_catalog_fetch_duration_seconds",
			Help:    "Histogram of catalog search latencies",
			Buckets: prometheus.DefBuckets,
		},
	)

	// editor mutations by operation (reorder, merge, delete_item, ...)
	EditorOpCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offerbuilder_editor_ops_total",
			Help: "Total editor mutations applied",
		},
		[]string{"op"},
	)

	// confirmed picker sessions
	PickerConfirmCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offerbuilder_picker_confirms_total",
			Help: "Total confirmed picker sessions",
		},
	)

	// submitted offer lists
	SubmissionCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offerbuilder_submissions_total",
			Help: "Total submitted offer lists",
		},
	)

	// failures persisting session snapshots or submissions
	PersistErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offerbuilder_persist_errors_total",
			Help: "Total persistence errors",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		CatalogFetchCount,
		CatalogFetchLatency,
		EditorOpCount,
		PickerConfirmCount,
		SubmissionCount,
		PersistErrors,
	)
}
