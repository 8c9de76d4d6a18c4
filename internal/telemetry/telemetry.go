// Package telemetry owns the Prometheus registry for the portal and the HTTP
// metrics recorded by the pipeline.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics holds the request metrics recorded by the metrics stage.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
}

// Provider wraps a private registry so tests can build as many as they like.
type Provider struct {
	registry  *prometheus.Registry
	namespace string
	HTTP      *HTTPMetrics
}

// NewProvider creates a registry with Go runtime and process collectors plus
// the HTTP metrics.
func NewProvider(namespace string) *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &Provider{registry: reg, namespace: namespace}
	p.HTTP = initHTTPMetrics(promauto.With(reg), namespace)
	return p
}

func initHTTPMetrics(f promauto.Factory, namespace string) *HTTPMetrics {
	return &HTTPMetrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
	}
}

// Factory returns a promauto factory bound to this provider's registry, for
// application specific metrics.
func (p *Provider) Factory() promauto.Factory {
	return promauto.With(p.registry)
}

// Namespace returns the metric namespace.
func (p *Provider) Namespace() string {
	return p.namespace
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
