package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks application-level counters exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	submissions  *prometheus.CounterVec
	moderated    *prometheus.CounterVec
	published    prometheus.Counter
	sendFailures prometheus.Counter
	rateLimited  prometheus.Counter
}

// NewMetrics creates a Metrics with its own registry so tests can create
// multiple instances without duplicate-registration panics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vestnik",
			Name:      "submissions_total",
			Help:      "Applications submitted, by type.",
		}, []string{"type"}),
		moderated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vestnik",
			Name:      "moderated_total",
			Help:      "Moderation decisions, by outcome.",
		}, []string{"outcome"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vestnik",
			Name:      "published_total",
			Help:      "Applications published to the channel.",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vestnik",
			Name:      "send_failures_total",
			Help:      "Outbound message deliveries that failed.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vestnik",
			Name:      "rate_limited_total",
			Help:      "Submissions refused by the per-user rate limit.",
		}),
	}

	m.registry.MustRegister(m.submissions, m.moderated, m.published, m.sendFailures, m.rateLimited)
	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSubmission records a newly submitted application of the given type.
func (m *Metrics) RecordSubmission(appType string) {
	m.submissions.WithLabelValues(appType).Inc()
}

// RecordModeration records a moderation decision ("approved" or "rejected").
func (m *Metrics) RecordModeration(outcome string) {
	m.moderated.WithLabelValues(outcome).Inc()
}

// RecordPublished records a successful channel publication.
func (m *Metrics) RecordPublished() {
	m.published.Inc()
}

// RecordSendFailure records a failed outbound delivery.
func (m *Metrics) RecordSendFailure() {
	m.sendFailures.Inc()
}

// RecordRateLimited records a submission refused by the rate limit.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Inc()
}
