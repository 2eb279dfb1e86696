package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promoproof_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promoproof_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Workflow metrics
	EvidenceSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promoproof_evidence_submitted_total",
			Help: "Evidence submissions by outcome",
		},
		[]string{"outcome"},
	)

	EvidenceReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promoproof_evidence_reviewed_total",
			Help: "Completed reviews by action",
		},
		[]string{"action"},
	)

	QRCodesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promoproof_qr_codes_generated_total",
			Help: "Reward QR codes rendered",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		EvidenceSubmitted,
		EvidenceReviewed,
		QRCodesGenerated,
	)
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, route, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
