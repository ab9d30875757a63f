// Package metrics exposes Prometheus instrumentation for HTTP traffic and
// pipeline runs.
//
// Labels stay bounded: HTTP paths use the registered gin route, pipeline
// runs are labelled by operation and error kind only.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/pipeline"
)

// Metrics owns a set of collectors registered on one registry.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpReqs     *prometheus.CounterVec
	httpLat      *prometheus.HistogramVec
	httpInflight prometheus.Gauge

	runs      *prometheus.CounterVec
	runLat    *prometheus.HistogramVec
	cacheHits *prometheus.CounterVec
	spend     *prometheus.CounterVec
	tokens    *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, which also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWith(reg, reg)
}

// NewWith registers the collectors on reg and serves them from g.
func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: g,
		httpReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpLat: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postforge_runs_total",
			Help: "Pipeline runs by operation and outcome.",
		}, []string{"operation", "outcome"}),
		runLat: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "postforge_run_duration_seconds",
			Help: "Pipeline run duration in seconds.",
			// Generation dominates; runs take seconds, not milliseconds.
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"operation"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postforge_cache_hits_total",
			Help: "Pipeline runs served from the response cache.",
		}, []string{"operation"}),
		spend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postforge_cost_usd_total",
			Help: "Estimated upstream spend in USD.",
		}, []string{"operation"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postforge_tokens_total",
			Help: "Text-model tokens by direction.",
		}, []string{"operation", "direction"}),
	}
	reg.MustRegister(m.httpReqs, m.httpLat, m.httpInflight, m.runs, m.runLat, m.cacheHits, m.spend, m.tokens)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware instruments requests. The path label is the matched route, or
// the raw path when nothing matched.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.httpInflight.Inc()
		defer m.httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		m.httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// Observe implements pipeline.Observer.
func (m *Metrics) Observe(_ context.Context, ev pipeline.Event) {
	outcome := "ok"
	if ev.Err != nil {
		outcome = content.KindOf(ev.Err).String()
	}
	m.runs.WithLabelValues(ev.Operation, outcome).Inc()
	m.runLat.WithLabelValues(ev.Operation).Observe(ev.Duration.Seconds())
	if ev.CacheHit {
		m.cacheHits.WithLabelValues(ev.Operation).Inc()
		return
	}
	if ev.Response == nil {
		return
	}
	m.spend.WithLabelValues(ev.Operation).Add(ev.Response.Cost.TotalCost)
	if t := ev.Response.Cost.Tokens; t != nil {
		m.tokens.WithLabelValues(ev.Operation, "input").Add(float64(t.InputTokens))
		m.tokens.WithLabelValues(ev.Operation, "output").Add(float64(t.OutputTokens))
	}
}
