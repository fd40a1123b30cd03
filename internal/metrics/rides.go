package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RideTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_transitions_total",
		Help: "Total number of applied ride transitions by resulting event type",
	}, []string{"event_type"})

	RideTransitionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ride_transition_failures_total",
		Help: "Total number of rejected ride transitions by requested event type and error code",
	}, []string{"event_type", "code"})

	RideEventPublishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ride_event_publish_failures_total",
		Help: "Total number of ride events that could not be published after commit",
	})
)

// RecordTransition records one committed ride transition.
func RecordTransition(eventType string) {
	RideTransitionsTotal.WithLabelValues(normalizeEventTypeLabel(eventType)).Inc()
}

// RecordTransitionFailure records a transition that was refused or rolled back.
func RecordTransitionFailure(eventType, code string) {
	if code == "" {
		code = "unknown"
	}
	RideTransitionFailuresTotal.WithLabelValues(normalizeEventTypeLabel(eventType), strings.ToLower(code)).Inc()
}

func IncPublishFailure() {
	RideEventPublishFailuresTotal.Inc()
}

func normalizeEventTypeLabel(eventType string) string {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "requested", "accepted", "in_progress", "cancelled", "completed", "rejected", "destination":
		return strings.ToLower(strings.TrimSpace(eventType))
	default:
		return "unknown"
	}
}
