// Copyright 2025 James Ross
package obs

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TasksEnqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migration_tasks_enqueued_total",
		Help: "Total number of tasks enqueued, by stage",
	}, []string{"stage"})
	TasksProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migration_tasks_processed_total",
		Help: "Total number of tasks a worker completed successfully, by stage",
	}, []string{"stage"})
	TasksErrored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migration_tasks_errored_total",
		Help: "Total number of tasks a worker failed, by stage",
	}, []string{"stage"})
	FanoutErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migration_fanout_errors_total",
		Help: "Total number of per-item errors tallied by a fan-out run, by stage",
	}, []string{"stage"})
	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "migration_queue_depth",
		Help: "Current number of pending tasks on a region subqueue",
	}, []string{"region"})
	WarehouseWriteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "migration_warehouse_write_duration_seconds",
		Help:    "Histogram of warehouse WriteRows call durations",
		Buckets: prometheus.DefBuckets,
	})
	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "migration_circuit_breaker_state",
		Help: "0 Closed, 1 HalfOpen, 2 Open, by upstream collaborator",
	}, []string{"collaborator"})
	ReaperRecovered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "migration_reaper_recovered_total",
		Help: "Total number of tasks the reaper moved out of a stalled processing list, by region",
	}, []string{"region"})
)

func init() {
	prometheus.MustRegister(
		TasksEnqueued, TasksProcessed, TasksErrored, FanoutErrors,
		QueueDepth, WarehouseWriteDuration, CircuitBreakerState, ReaperRecovered,
	)
}

// StartMetricsServer exposes /metrics alone and returns a server for
// controlled shutdown. Prefer StartHTTPServer, which also serves health
// endpoints.
func StartMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
