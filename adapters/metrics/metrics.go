// Package metrics provides Prometheus metrics collection for bandgate.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bandgate"

// Collector holds all Prometheus metrics for bandgate.
type Collector struct {
	// Edge proxy
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	PreflightTotal   prometheus.Counter
	ProxyErrors      *prometheus.CounterVec

	// Upstream
	UpstreamDuration *prometheus.HistogramVec
	UpstreamErrors   *prometheus.CounterVec
	UpstreamInFlight prometheus.Gauge

	// Subscription client
	BackendCalls   *prometheus.CounterVec
	MockFallbacks  *prometheus.CounterVec
	EnvelopeShapes *prometheus.CounterVec

	// Config
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a new metrics collector registered with the default registry.
func New() *Collector {
	return newCollector(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return newCollector(promauto.With(reg))
}

func newCollector(factory promauto.Factory) *Collector {
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests processed by the edge proxy",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		PreflightTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "preflight_total",
				Help:      "Total number of CORS preflight requests answered locally",
			},
		),
		ProxyErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proxy_errors_total",
				Help:      "Total number of requests answered with the shaped error body",
			},
			[]string{"reason"},
		),

		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Upstream request duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "status"},
		),
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream transport errors",
			},
			[]string{"type"},
		),
		UpstreamInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "upstream_requests_in_flight",
				Help:      "Number of requests currently being sent to upstream",
			},
		),

		BackendCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_calls_total",
				Help:      "Subscription client calls to the backend API by outcome",
			},
			[]string{"operation", "outcome"},
		),
		MockFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mock_fallbacks_total",
				Help:      "Subscription operations served from the local mock store",
			},
			[]string{"operation"},
		),
		EnvelopeShapes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "envelope_shapes_total",
				Help:      "Subscribed-concerts responses by recognized envelope shape",
			},
			[]string{"shape"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// BackendCall implements ports.ClientMetrics.
func (c *Collector) BackendCall(operation, outcome string) {
	c.BackendCalls.WithLabelValues(operation, outcome).Inc()
}

// MockFallback implements ports.ClientMetrics.
func (c *Collector) MockFallback(operation string) {
	c.MockFallbacks.WithLabelValues(operation).Inc()
}

// EnvelopeShape implements ports.ClientMetrics.
func (c *Collector) EnvelopeShape(shape string) {
	c.EnvelopeShapes.WithLabelValues(shape).Inc()
}

// NormalizePath reduces cardinality of proxied paths by keeping only the
// first segment after /api, e.g. /api/concerts/12/booking -> /api/concerts/*.
func NormalizePath(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		if len(path) > 50 {
			return path[:50] + "..."
		}
		return path
	}
	first, _, nested := strings.Cut(rest, "/")
	if len(first) > 40 {
		first = first[:40]
	}
	if nested {
		return "/api/" + first + "/*"
	}
	return "/api/" + first
}
