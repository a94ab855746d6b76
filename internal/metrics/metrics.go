// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the HTTP layer records through. Handlers and
// middleware depend on this, not on the Prometheus types.
type Recorder interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(d time.Duration)
	RecordGateRejection()
	RecordHandshake(outcome string)
}

// Collector implements Recorder on a Prometheus registry.
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
	gateRejections  prometheus.Counter
	handshakes      *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_http_status_total",
			Help: "Responses by HTTP status code.",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskboard_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		gateRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_gate_rejections_total",
			Help: "Requests rejected by the access gate.",
		}),
		handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_handshakes_total",
			Help: "OAuth handshake completions by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestDuration,
		c.gateRejections,
		c.handshakes,
	)

	return c
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordRequestDuration(d time.Duration) {
	c.requestDuration.Observe(d.Seconds())
}

func (c *Collector) RecordGateRejection() {
	c.gateRejections.Inc()
}

// RecordHandshake records an OAuth handshake outcome:
// "ok", "denied" or "failed".
func (c *Collector) RecordHandshake(outcome string) {
	c.handshakes.WithLabelValues(outcome).Inc()
}

// Handler returns the Prometheus scrape handler for the gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
