package services

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aigoflow/quality-service/internal/models"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	analyses *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quality_analyses_total",
			Help: "Successfully scored and recorded analyses.",
		}, []string{"scorer", "result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quality_analysis_failures_total",
			Help: "Analyses that ended in an error, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quality_analysis_duration_seconds",
			Help:    "Time to score and record one analysis.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"scorer"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quality_inflight_analyses",
			Help: "Analyses currently being scored.",
		}),
	}
	m.registry.MustRegister(
		m.analyses, m.failures, m.duration, m.inflight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observe(scorer string, result models.Result, d time.Duration) {
	m.analyses.WithLabelValues(scorer, string(result)).Inc()
	m.duration.WithLabelValues(scorer).Observe(d.Seconds())
}

func (m *Metrics) failure(kind string) {
	m.failures.WithLabelValues(kind).Inc()
}
