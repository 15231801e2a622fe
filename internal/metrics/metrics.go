// Package metrics exposes Prometheus instrumentation for the facade and
// the executor.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	requestsTotal   *prometheus.CounterVec
	executesTotal   *prometheus.CounterVec
	executeDuration prometheus.Histogram
}

func NewCollector() *Collector {
	return &Collector{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queryproxy_requests_total",
				Help: "Total number of API requests handled",
			},
			[]string{"method", "status"},
		),
		executesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queryproxy_executes_total",
				Help: "Total number of proxied query executions",
			},
			[]string{"outcome"},
		),
		executeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "queryproxy_execute_duration_seconds",
				Help:    "Proxied query execution duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
	}
}

func (c *Collector) ObserveRequest(method string, status int) {
	c.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (c *Collector) ObserveExecute(outcome string, d time.Duration) {
	c.executesTotal.WithLabelValues(outcome).Inc()
	c.executeDuration.Observe(d.Seconds())
}
