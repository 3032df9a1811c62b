package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlassist_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlassist_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	generationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlassist_generation_total",
			Help: "LLM generation calls by provider and outcome.",
		},
		[]string{"provider", "status"},
	)
	generationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlassist_generation_duration_seconds",
			Help:    "LLM generation latency by provider.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider"},
	)
	unsafeQueryTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlassist_unsafe_query_total",
			Help: "Generated queries rejected by the safety gate.",
		},
	)
	executionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlassist_execution_total",
			Help: "Warehouse executions by outcome.",
		},
		[]string{"status"},
	)
	executionRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlassist_execution_rows",
			Help:    "Rows returned per successful execution.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		generationTotal,
		generationDurationSeconds,
		unsafeQueryTotal,
		executionTotal,
		executionRows,
	)
}

func ObserveGeneration(provider string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	generationTotal.WithLabelValues(provider, status).Inc()
	generationDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func IncrementUnsafeQuery() {
	unsafeQueryTotal.Inc()
}

func ObserveExecution(rows int, err error) {
	if err != nil {
		executionTotal.WithLabelValues("error").Inc()
		return
	}
	executionTotal.WithLabelValues("success").Inc()
	executionRows.Observe(float64(rows))
}
