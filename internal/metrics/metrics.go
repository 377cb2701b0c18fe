package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// CollaboratorCalls counts external round trips by collaborator and outcome
	CollaboratorCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "collaborator_calls_total", Help: "External collaborator calls by service and outcome."},
		[]string{"collaborator", "outcome"},
	)
	// WebhookSignatures counts webhook intake outcomes
	WebhookSignatures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_signatures_total", Help: "Webhook signature verification outcomes."},
		[]string{"outcome"},
	)
	// InvoiceEmailFailures counts swallowed invoice delivery failures
	InvoiceEmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "invoice_email_failures_total", Help: "Invoice emails that failed to send (best-effort, never surfaced to callers)."},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(CollaboratorCalls)
		Registry.MustRegister(WebhookSignatures)
		Registry.MustRegister(InvoiceEmailFailures)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
