package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainmetrics",
		Name:      "events_processed_total",
		Help:      "Decoded events dispatched into the handler core, by kind.",
	}, []string{"kind"})

	EventsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chainmetrics",
		Name:      "events_deduplicated_total",
		Help:      "Events dropped by the host-side id filter before dispatch.",
	})

	ArchiveEnqueueFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chainmetrics",
		Name:      "archive_enqueue_failures_total",
		Help:      "Event rows that could not be queued for the ClickHouse archive.",
	})
)
