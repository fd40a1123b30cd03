package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// RideEvent is one immutable, actor-attributed status change of a ride.
type RideEvent struct {
	ID        uuid.UUID     `json:"id"`
	RideID    uuid.UUID     `json:"ride_id"`
	ActorID   uuid.UUID     `json:"actor_id"`
	Type      RideEventType `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
	// Sequence is the 1-based insertion position within the ride's history.
	Sequence int64 `json:"sequence"`
}

func NewRideEvent(rideID, actorID uuid.UUID, eventType RideEventType) *RideEvent {
	return &RideEvent{
		ID:        uuid.New(),
		RideID:    rideID,
		ActorID:   actorID,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// Follow positions e directly after prev in the ride's history. The timestamp
// never moves backwards so ordering by time and by sequence agree.
func (e *RideEvent) Follow(prev *RideEvent) {
	if prev == nil {
		e.Sequence = 1
		return
	}
	e.Sequence = prev.Sequence + 1
	if e.Timestamp.Before(prev.Timestamp) {
		e.Timestamp = prev.Timestamp
	}
}

// SortRideEvents orders events by timestamp, ties broken by insertion order.
func SortRideEvents(events []*RideEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].Sequence < events[j].Sequence
	})
}
