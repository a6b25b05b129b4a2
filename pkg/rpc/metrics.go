package rpc

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics of node requests.
type Metrics struct {
	Requests         *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	TransactionsSent *prometheus.CounterVec
}

// NewMetrics registers metrics with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry registers metrics with a custom registry.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "octra_node_requests_total",
				Help: "The total number of requests sent to the node",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "octra_node_request_duration_seconds",
				Help:    "Duration of node requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		TransactionsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "octra_transactions_sent_total",
				Help: "The total number of submitted transactions by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) observeRequest(path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	endpoint := endpointLabel(path)
	m.Requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) observeSend(result string) {
	if m == nil {
		return
	}
	m.TransactionsSent.WithLabelValues(result).Inc()
}

// endpointLabel reduces a request path to its first segment.
func endpointLabel(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexAny(path, "/?"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "root"
	}
	return path
}
