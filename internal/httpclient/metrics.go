package httpclient

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_client_requests_total",
		Help: "Total requests sent to the bank API",
	}, []string{"method", "endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bank_client_request_duration_seconds",
		Help:    "Bank API request latency",
		Buckets: []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 3, 10},
	}, []string{"method", "endpoint"})
)

// metricEndpoint сворачивает параметры пути, чтобы метки не размножались по клиентам.
func metricEndpoint(path string) string {
	path = "/" + strings.Trim(path, "/")
	if strings.HasPrefix(path, "/recommendation/") {
		return "/recommendation/{clientCode}"
	}
	return path
}
