package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentflow_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentflow_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ReconciliationRows counts imported bank rows by the bucket they ended in.
	ReconciliationRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentflow_reconciliation_rows_total",
			Help: "Bank CSV rows processed, by outcome.",
		},
		[]string{"outcome"},
	)

	TrustScoreRecalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentflow_trust_score_recalculations_total",
			Help: "Trust score recalculations, by trigger.",
		},
		[]string{"trigger"},
	)
)
