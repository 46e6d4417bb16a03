package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntryMutations counts mutating guestbook operations by operation (create|update|delete)
	// and result (success|rejected|error).
	EntryMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_entry_mutations_total",
			Help: "Total number of guestbook mutations",
		},
		[]string{"operation", "result"},
	)

	// CSRFRejections counts mutating requests refused for a missing or stale anti-forgery token.
	CSRFRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_csrf_rejections_total",
			Help: "Total number of requests rejected by the anti-forgery check",
		},
		[]string{"operation"},
	)

	// StoredEntries tracks the number of entries currently stored.
	StoredEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guestbook_entries",
			Help: "Number of guestbook entries currently stored",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guestbook_http_latency_seconds",
			Help:    "HTTP endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// MaintenanceRuns counts scheduled maintenance job runs by job and result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_maintenance_runs_total",
			Help: "Total number of maintenance job runs",
		},
		[]string{"job", "result"},
	)
)
