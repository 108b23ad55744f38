// Package telemetry exposes Prometheus metrics for the skill: events by
// disposition and upstream search calls by outcome.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	eventsHandled    *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
}

// New creates a Metrics with its own registry, so tests can build as many
// instances as they like without collisions.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		eventsHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voicesearch",
				Name:      "events_total",
				Help:      "Voice events handled, by disposition",
			},
			[]string{"disposition"},
		),

		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voicesearch",
				Name:      "upstream_requests_total",
				Help:      "Completion API requests, by outcome",
			},
			[]string{"outcome"},
		),

		upstreamDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "voicesearch",
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of completion API requests",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 6, 8},
			},
		),
	}

	m.registry.MustRegister(m.eventsHandled, m.upstreamRequests, m.upstreamDuration)
	return m
}

func (m *Metrics) EventHandled(disposition string) {
	m.eventsHandled.WithLabelValues(disposition).Inc()
}

func (m *Metrics) UpstreamRequest(outcome string, duration time.Duration) {
	m.upstreamRequests.WithLabelValues(outcome).Inc()
	m.upstreamDuration.Observe(duration.Seconds())
}

// Handler returns the exposition endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
