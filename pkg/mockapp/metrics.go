package mockapp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockapp_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mockapp_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, including simulated delay",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	simulatedCPUUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mockapp_cpu_usage_percent",
			Help: "Simulated CPU usage percentage",
		},
	)

	simulatedMemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mockapp_memory_usage_percent",
			Help: "Simulated memory usage percentage",
		},
	)

	simulatedErrorRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mockapp_error_rate",
			Help: "Configured 5xx error rate (0-1)",
		},
	)

	simulationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockapp_simulations_total",
			Help: "Total number of simulation runs started",
		},
		[]string{"kind"},
	)

	scaleRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mockapp_scale_requests_total",
			Help: "Total number of scale requests received",
		},
	)
)
