package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	sourceBundle   = "bundle"
	sourceDatabase = "database"
)

// metrics are registered on the server's own registry so that several
// servers can coexist in one process.
type metrics struct {
	builds   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lines    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adhub_statement_builds_total",
			Help: "Counts statement builds by record source and outcome.",
		}, []string{"source", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "adhub_statement_build_duration_seconds",
			Help:    "Statement build latency by record source.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		lines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "adhub_statement_lines",
			Help:    "Number of ledger lines per built statement.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	reg.MustRegister(m.builds, m.duration, m.lines)
	return m
}

func (m *metrics) observe(source string, start time.Time, lines int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.builds.WithLabelValues(source, status).Inc()
	m.duration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err == nil {
		m.lines.Observe(float64(lines))
	}
}
