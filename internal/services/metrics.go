package services

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors shared by the transport and ISRC cache.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass [prometheus.DefaultRegisterer] to expose them on the global /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socially_provider_requests_total",
				Help: "Total number of provider API requests",
			},
			[]string{"provider", "method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socially_provider_request_duration_seconds",
				Help:    "Latency of provider API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "method"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socially_isrc_cache_lookups_total",
				Help: "ISRC cache lookups by result",
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.CacheLookups)
	}
	return m
}

func (m *Metrics) observeRequest(provider, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.RequestsTotal.WithLabelValues(provider, method, label).Inc()
	m.RequestDuration.WithLabelValues(provider, method).Observe(elapsed.Seconds())
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}
