// Package metrics defines the Prometheus metrics exposed by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRunsTotal counts sync runs by trigger and status
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balai_sync_runs_total",
			Help: "Total number of ledger sync runs",
		},
		[]string{"trigger", "status"},
	)

	// SyncDuration tracks sync run processing time
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "balai_sync_duration_seconds",
			Help:    "Sync run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"trigger"},
	)

	// SyncRecordsTotal counts ledger records applied during sync
	SyncRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balai_sync_records_total",
			Help: "Total number of ledger records applied during sync",
		},
		[]string{"kind", "action"},
	)

	// SyncBatchesTotal counts provider pages consumed by incremental sync
	SyncBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "balai_sync_batches_total",
			Help: "Total number of provider sync pages consumed",
		},
	)

	// WebhookEventsTotal counts received webhook events by type and outcome
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balai_webhook_events_total",
			Help: "Total number of provider webhook events received",
		},
		[]string{"type", "outcome"},
	)

	// AssistantTurnsTotal counts assistant turns by status
	AssistantTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balai_assistant_turns_total",
			Help: "Total number of assistant conversation turns",
		},
		[]string{"status"},
	)

	// AssistantTurnDuration tracks assistant turn latency end to end
	AssistantTurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "balai_assistant_turn_duration_seconds",
			Help:    "Assistant turn duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RoomSubscribers tracks live websocket subscribers across rooms
	RoomSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "balai_room_subscribers",
			Help: "Number of connected conversation subscribers",
		},
	)

	// RoomEventsDroppedTotal counts broadcast events dropped on slow subscribers
	RoomEventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "balai_room_events_dropped_total",
			Help: "Total number of broadcast events dropped due to full subscriber queues",
		},
	)

	// ProviderRequestsTotal counts outbound provider API calls by operation and status
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balai_provider_requests_total",
			Help: "Total number of outbound banking provider requests",
		},
		[]string{"operation", "status"},
	)
)
