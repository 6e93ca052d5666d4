// Package metrics defines the prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ImportRecords *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	CacheLookups  *prometheus.CounterVec
	CascadeJobs   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ImportRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evaladmin",
			Name:      "import_records_total",
			Help:      "Records processed by bulk imports, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evaladmin",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "evaladmin",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evaladmin",
			Name:      "history_cache_lookups_total",
			Help:      "History cache lookups by result.",
		}, []string{"result"}),
		CascadeJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evaladmin",
			Name:      "cascade_jobs_total",
			Help:      "Cascade delete jobs handled by the worker, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.ImportRecords, m.HTTPRequests, m.HTTPDuration, m.CacheLookups, m.CascadeJobs)
	return m
}

// RecordImport adds one import run's outcome counts.
func (m *Metrics) RecordImport(kind string, success, skipped, failed int) {
	if m == nil {
		return
	}
	m.ImportRecords.WithLabelValues(kind, "success").Add(float64(success))
	m.ImportRecords.WithLabelValues(kind, "skipped").Add(float64(skipped))
	m.ImportRecords.WithLabelValues(kind, "failed").Add(float64(failed))
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheResult(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) Cascade(outcome string) {
	if m == nil {
		return
	}
	m.CascadeJobs.WithLabelValues(outcome).Inc()
}
