// Package metrics exposes Prometheus collectors for the reaper.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodereaper",
			Subsystem: "reaper",
			Name:      "runs_total",
			Help:      "Total number of reaper runs by result",
		},
		[]string{"result"},
	)

	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nodereaper",
			Subsystem: "reaper",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full reaper run in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	nodesProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nodereaper",
			Subsystem: "reaper",
			Name:      "nodes_processed_total",
			Help:      "Total number of nodes inspected across all runs",
		},
	)

	nodesDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodereaper",
			Subsystem: "reaper",
			Name:      "nodes_deleted_total",
			Help:      "Total number of nodes deleted by reason",
		},
		[]string{"reason"},
	)

	finalizerCleanupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nodereaper",
			Subsystem: "reaper",
			Name:      "finalizer_cleanups_total",
			Help:      "Total number of finalizer cleanups applied",
		},
	)

	actionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodereaper",
			Subsystem: "reaper",
			Name:      "action_failures_total",
			Help:      "Total number of failed delete or cleanup actions",
		},
		[]string{"action"},
	)

	notificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nodereaper",
			Subsystem: "notify",
			Name:      "notifications_sent_total",
			Help:      "Total number of notification deliveries by sink and result",
		},
		[]string{"sink", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		runsTotal,
		runDuration,
		nodesProcessedTotal,
		nodesDeletedTotal,
		finalizerCleanupsTotal,
		actionFailuresTotal,
		notificationsSentTotal,
	)
}

// RecordRun records the outcome and duration of a full run.
func RecordRun(result string, seconds float64) {
	runsTotal.WithLabelValues(result).Inc()
	runDuration.Observe(seconds)
}

// RecordNodeProcessed counts one inspected node.
func RecordNodeProcessed() {
	nodesProcessedTotal.Inc()
}

// RecordNodeDeleted counts one deleted node by decision reason.
func RecordNodeDeleted(reason string) {
	nodesDeletedTotal.WithLabelValues(reason).Inc()
}

// RecordFinalizerCleanup counts one applied finalizer cleanup.
func RecordFinalizerCleanup() {
	finalizerCleanupsTotal.Inc()
}

// RecordActionFailure counts one failed mutating action ("delete" or "cleanup").
func RecordActionFailure(action string) {
	actionFailuresTotal.WithLabelValues(action).Inc()
}

// RecordNotification counts one notification delivery attempt.
func RecordNotification(sink, result string) {
	notificationsSentTotal.WithLabelValues(sink, result).Inc()
}
