package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsProcessed counts events applied to the store by event type
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_events_processed_total",
			Help: "Total number of on-chain events processed and applied",
		},
		[]string{"event_type"},
	)

	// EventsDuplicate counts events skipped because they were already stored
	EventsDuplicate = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_events_duplicate_total",
			Help: "Total number of duplicate events skipped",
		},
	)

	// EventsError counts event processing failures by stage
	EventsError = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_events_error_total",
			Help: "Total number of event processing errors",
		},
		[]string{"stage"},
	)

	// ConsistencyWarnings counts events referencing state missing from the
	// current session, e.g. a donation for an unknown proposal
	ConsistencyWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_consistency_warnings_total",
			Help: "Total number of events skipped due to inconsistent on-chain references",
		},
	)

	// LastProcessedBlock tracks the last block the tailer fully processed
	LastProcessedBlock = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "indexer_last_processed_block",
			Help: "Last fully processed block number",
		},
	)

	// EventProcessingDuration tracks per-event processing time
	EventProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "indexer_event_processing_duration_seconds",
			Help:    "Event processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// BackfillChunksFailed counts backfill chunks that could not be processed
	BackfillChunksFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_backfill_chunks_failed_total",
			Help: "Total number of backfill chunks that failed",
		},
	)
)
