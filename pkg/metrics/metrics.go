// Package metrics collects Prometheus metrics for dispatch and composition.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch outcomes recorded by ObserveDispatch.
const (
	OutcomeRespond     = "respond"
	OutcomeDefault     = "default"
	OutcomePassThrough = "pass_through"
	OutcomeError       = "error"
)

// Config defines the configuration for a Collector.
type Config struct {
	Registry  *prometheus.Registry // Registry to register with; a new one is created when nil
	Namespace string               // Namespace for metrics
	Subsystem string               // Subsystem for metrics
	Buckets   []float64            // Histogram buckets in seconds; prometheus.DefBuckets when empty
}

// Collector records dispatcher and composer metrics. A nil *Collector is valid and
// records nothing, so components can take one unconditionally.
type Collector struct {
	registry         *prometheus.Registry
	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	middlewareErrors *prometheus.CounterVec
	composeRuns      *prometheus.CounterVec
	composeDuration  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics.
func NewCollector(config Config) (*Collector, error) {
	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	buckets := config.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	c := &Collector{
		registry: registry,
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "dispatch_total",
			Help:      "Total number of dispatch calls by outcome.",
		}, []string{"outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent dispatching a request through matching chains.",
			Buckets:   buckets,
		}, []string{"outcome"}),
		middlewareErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "middleware_errors_total",
			Help:      "Middleware failures absorbed by the dispatcher.",
		}, []string{"entry", "pattern"}),
		composeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "compose_total",
			Help:      "Total number of compositions by mode and result.",
		}, []string{"mode", "result"}),
		composeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "compose_duration_seconds",
			Help:      "Time spent running composition middleware.",
			Buckets:   buckets,
		}, []string{"mode"}),
	}

	for _, collector := range []prometheus.Collector{
		c.dispatches, c.dispatchDuration, c.middlewareErrors, c.composeRuns, c.composeDuration,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ObserveDispatch records one dispatch call with its outcome and duration.
func (c *Collector) ObserveDispatch(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.dispatches.WithLabelValues(outcome).Inc()
	c.dispatchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// MiddlewareError records a middleware failure in the given table entry.
func (c *Collector) MiddlewareError(entry int, pattern string) {
	if c == nil {
		return
	}
	c.middlewareErrors.WithLabelValues(strconv.Itoa(entry), pattern).Inc()
}

// ObserveCompose records one composition run.
func (c *Collector) ObserveCompose(mode string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.composeRuns.WithLabelValues(mode, result).Inc()
	c.composeDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// Registry returns the registry the collector's metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns an HTTP handler exposing the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
