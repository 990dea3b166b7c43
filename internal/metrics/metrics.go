// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlanRuns counts plan runs. Labels: strategy, result ("completed", "failed").
	PlanRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexcommand_plan_runs_total",
		Help: "Plan runs by strategy and result",
	}, []string{"strategy", "result"})

	PlanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hexcommand_plan_duration_seconds",
		Help:    "Time to produce orders for one snapshot",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"strategy"})

	OrdersEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hexcommand_orders_emitted_total",
		Help: "Orders handed to sinks",
	})

	AllocSweeps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hexcommand_alloc_sweeps",
		Help:    "Local-search sweeps per allocation",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	// GraphCache counts frozen graph lookups. Labels: result ("hit", "build").
	GraphCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexcommand_graph_cache_total",
		Help: "Frozen graph cache lookups by result",
	}, []string{"result"})

	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexcommand_sink_errors_total",
		Help: "Order sink failures by sink",
	}, []string{"sink"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexcommand_http_requests_total",
		Help: "HTTP requests by method and status",
	}, []string{"method", "status"})
)
