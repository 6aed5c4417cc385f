// Package metrics provides Prometheus metrics for the session server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveRooms tracks the number of rooms with at least one participant.
	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codementor_active_rooms",
			Help: "Number of currently active rooms",
		},
	)

	// ActiveParticipants tracks connected participants across all rooms.
	ActiveParticipants = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codementor_active_participants",
			Help: "Number of currently connected participants",
		},
	)

	// RoomsCreated counts rooms created on first join.
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codementor_rooms_created_total",
			Help: "Total number of rooms created",
		},
	)

	// RoomsEvicted counts rooms torn down after their last leave.
	RoomsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codementor_rooms_evicted_total",
			Help: "Total number of rooms evicted",
		},
	)

	// EditBroadcasts counts settled (post-debounce) text broadcasts.
	EditBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codementor_edit_broadcasts_total",
			Help: "Total number of debounced edit broadcasts",
		},
	)

	// Evaluations counts evaluation runs by outcome kind.
	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codementor_evaluations_total",
			Help: "Total number of evaluations by outcome kind",
		},
		[]string{"kind"},
	)

	// FlushFailures counts failed buffer flushes on room teardown.
	FlushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codementor_flush_failures_total",
			Help: "Total number of failed room buffer flushes",
		},
	)
)

// RecordJoin updates gauges for a participant joining; created marks a new room.
func RecordJoin(created bool) {
	ActiveParticipants.Inc()
	if created {
		ActiveRooms.Inc()
		RoomsCreated.Inc()
	}
}

// RecordLeave updates gauges for a participant leaving; evicted marks room teardown.
func RecordLeave(evicted bool) {
	ActiveParticipants.Dec()
	if evicted {
		ActiveRooms.Dec()
		RoomsEvicted.Inc()
	}
}

// RecordEvaluation counts one evaluation outcome.
func RecordEvaluation(kind string) {
	Evaluations.WithLabelValues(kind).Inc()
}
