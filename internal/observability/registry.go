package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics
// This replaces direct access to global Prometheus metrics with dependency injection
type MetricsRegistry interface {
	// HTTP request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Catalog search metrics
	IncrementCatalogFetches(outcome string)
	RecordCatalogFetchLatency(duration time.Duration)

	// Editor metrics
	IncrementEditorOps(op string)
	IncrementPickerConfirms()
	IncrementSubmissions()

	// Persistence metrics
	IncrementPersistErrors()
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementCatalogFetches(outcome string) {
	CatalogFetchCount.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) RecordCatalogFetchLatency(duration time.Duration) {
	CatalogFetchLatency.Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementEditorOps(op string) {
	EditorOpCount.WithLabelValues(op).Inc()
}

func (r *PrometheusRegistry) IncrementPickerConfirms() {
	PickerConfirmCount.Inc()
}

func (r *PrometheusRegistry) IncrementSubmissions() {
	SubmissionCount.Inc()
}

func (r *PrometheusRegistry) IncrementPersistErrors() {
	PersistErrors.Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementCatalogFetches(outcome string)                               {}
func (r *NoOpRegistry) RecordCatalogFetchLatency(duration time.Duration)                     {}
func (r *NoOpRegistry) IncrementEditorOps(op string)                                         {}
func (r *NoOpRegistry) IncrementPickerConfirms()                                             {}
func (r *NoOpRegistry) IncrementSubmissions()                                                {}
func (r *NoOpRegistry) IncrementPersistErrors()                                              {}
