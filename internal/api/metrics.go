package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK        = "ok"
	outcomeHTTPError = "http_error"
	outcomeTransport = "transport_error"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expensync",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Requests sent to the expense service by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	histogramRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "expensync",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)
)

func observeRequest(op, outcome string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(op, outcome).Inc()
	histogramRequestDuration.
		WithLabelValues(op).
		Observe(elapsed.Seconds())
}
