// Package metrics exposes Prometheus instruments for the sync layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all tradesync metrics.
type Registry struct {
	reg *prometheus.Registry

	// Gateway fetches by source (quotes, status, detail, chart) and result
	Fetches       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Transitions applied by kind
	Transitions *prometheus.CounterVec

	// Retained bounded history
	RetainedSignals  prometheus.Gauge
	RetainedInsights prometheus.Gauge

	// Connected websocket readers
	Subscribers prometheus.Gauge
}

// New creates and registers every metric on a fresh registry.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesync_fetches_total",
				Help: "Gateway fetches by source and result",
			},
			[]string{"source", "result"},
		),

		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradesync_fetch_duration_seconds",
				Help:    "Gateway fetch latency in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),

		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesync_transitions_total",
				Help: "State transitions applied by kind",
			},
			[]string{"kind"},
		),

		RetainedSignals: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradesync_retained_signals",
				Help: "Signals currently held in memory",
			},
		),

		RetainedInsights: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradesync_retained_insights",
				Help: "Insights currently held in memory",
			},
		),

		Subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradesync_ws_subscribers",
				Help: "Connected websocket state readers",
			},
		),
	}

	r.reg.MustRegister(
		r.Fetches,
		r.FetchDuration,
		r.Transitions,
		r.RetainedSignals,
		r.RetainedInsights,
		r.Subscribers,
	)
	return r
}

// Gatherer exposes the underlying registry for promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveFetch records one gateway call.
func (r *Registry) ObserveFetch(source string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.Fetches.WithLabelValues(source, result).Inc()
	r.FetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}
