package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RateQueriesTotal    prometheus.Counter
	UpdateRequestsTotal prometheus.Counter
	StatusRequestsTotal prometheus.Counter

	RefreshRunsTotal    *prometheus.CounterVec
	SourceFailuresTotal *prometheus.CounterVec
	JournalRecords      prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		RateQueriesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_queries_total",
				Help: "Total number of exchange rate queries",
			},
		),

		UpdateRequestsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "update_requests_total",
				Help: "Total number of manually requested refresh runs",
			},
		),

		StatusRequestsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "status_requests_total",
				Help: "Total number of status requests",
			},
		),

		RefreshRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refresh_runs_total",
				Help: "Total number of refresh runs by outcome",
			},
			[]string{"outcome"},
		),

		SourceFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "source_failures_total",
				Help: "Total number of per-source fetch failures",
			},
			[]string{"source"},
		),

		JournalRecords: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "journal_records",
				Help: "Number of records in the observation journal",
			},
		),
	}
}

// ObserveRun records the outcome of one refresh run.
func (m *Metrics) ObserveRun(successful, failed int) {
	outcome := "success"
	switch {
	case successful == 0:
		outcome = "failed"
	case failed > 0:
		outcome = "partial"
	}
	m.RefreshRunsTotal.WithLabelValues(outcome).Inc()
}
