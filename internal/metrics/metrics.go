// Package metrics declares the service's Prometheus collectors. promauto
// registers them on the default registry at init; main exposes /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobUpserts counts ingestion outcomes: created, updated, error.
	JobUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sesjob_job_upserts_total",
			Help: "Total number of posting upserts by outcome.",
		},
		[]string{"outcome"},
	)

	// NotificationSends counts per-channel delivery attempts: sent, failed.
	NotificationSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sesjob_notification_sends_total",
			Help: "Total number of channel delivery attempts by outcome.",
		},
		[]string{"channel", "outcome"},
	)

	// SchedulerRuns counts scheduled runs: completed, empty, skipped, error.
	SchedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sesjob_scheduler_runs_total",
			Help: "Total number of notification scheduler runs by outcome.",
		},
		[]string{"outcome"},
	)
)
