// Package metrics exposes prometheus instrumentation of the storage layer.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DBQueryDuration observes every statement executed through the access layer.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plan_db_query_duration_seconds",
			Help:    "Duration of database statements in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_db_query_errors_total",
			Help: "Total number of failed database statements",
		},
		[]string{"operation", "table", "error_type"},
	)

	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_db_transactions_total",
			Help: "Finished transactions by name and final state",
		},
		[]string{"transaction", "state"},
	)

	TransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plan_db_transaction_duration_seconds",
			Help:    "Duration of executed transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transaction"},
	)

	PatchesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_db_patches_applied_total",
			Help: "Schema patches applied since start",
		},
		[]string{"patch"},
	)

	SubmissionsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_processing_dropped_total",
			Help: "Non-critical transactions dropped under backpressure",
		},
		[]string{"reason"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "plan_processing_queue_depth",
			Help: "Transactions waiting for a worker",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "plan_active_sessions",
			Help: "Sessions currently held in the session cache",
		},
	)
)

// RecordDBQuery records one statement execution.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, errorType(err)).Inc()
	}
}

// RecordTransaction records a finished transaction in its terminal state.
func RecordTransaction(name, state string, duration time.Duration) {
	TransactionsTotal.WithLabelValues(name, state).Inc()
	if duration > 0 {
		TransactionDuration.WithLabelValues(name).Observe(duration.Seconds())
	}
}

// RecordPatch counts an applied schema patch.
func RecordPatch(name string) {
	PatchesApplied.WithLabelValues(name).Inc()
}

// RecordDropped counts a dropped non-critical submission.
func RecordDropped(reason string) {
	SubmissionsDropped.WithLabelValues(reason).Inc()
}

// errorType keeps label cardinality bounded.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}

	msg := err.Error()
	if len(msg) > 50 {
		msg = msg[:50]
	}

	return msg
}
