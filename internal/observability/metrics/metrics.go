package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics instruments inbound HTTP traffic.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers and returns the HTTP instruments.
func NewHTTPMetrics() *HTTPMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "samla_http_requests_total",
		Help: "Counts HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "samla_http_request_duration_seconds",
		Help:    "HTTP request latency per method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	prometheus.MustRegister(requests, duration)

	return &HTTPMetrics{requests: requests, duration: duration}
}

// GinMiddleware records per-request counters and latency.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Metrics exposes application-level instruments.
type Metrics struct {
	usageEvents       *prometheus.CounterVec
	quotaDenials      *prometheus.CounterVec
	webhookDeliveries *prometheus.CounterVec
	providerFailures  *prometheus.CounterVec
}

// New registers the domain instruments on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the domain instruments on reg. Tests pass
// a fresh registry to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	usageEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "samla_usage_events_total",
		Help: "Counts recorded usage events by kind.",
	}, []string{"kind"})

	quotaDenials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "samla_quota_denials_total",
		Help: "Counts usage rejected by a HARD quota limit.",
	}, []string{"kind"})

	webhookDeliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "samla_webhook_deliveries_total",
		Help: "Counts provider webhook deliveries by channel and outcome.",
	}, []string{"channel", "outcome"})

	providerFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "samla_provider_failures_total",
		Help: "Counts upstream provider call failures by capability.",
	}, []string{"capability"})

	reg.MustRegister(usageEvents, quotaDenials, webhookDeliveries, providerFailures)

	return &Metrics{
		usageEvents:       usageEvents,
		quotaDenials:      quotaDenials,
		webhookDeliveries: webhookDeliveries,
		providerFailures:  providerFailures,
	}
}

func (m *Metrics) RecordUsageEvent(kind string) {
	if m == nil {
		return
	}
	m.usageEvents.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordQuotaDenial(kind string) {
	if m == nil {
		return
	}
	m.quotaDenials.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordWebhookDelivery(channel, outcome string) {
	if m == nil {
		return
	}
	m.webhookDeliveries.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) RecordProviderFailure(capability string) {
	if m == nil {
		return
	}
	m.providerFailures.WithLabelValues(capability).Inc()
}
