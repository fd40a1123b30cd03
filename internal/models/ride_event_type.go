package models

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// RideEventType is one label of the closed ride lifecycle enumeration.
// The zero value is not a valid type.
type RideEventType string

const (
	RideEventRequested  RideEventType = "requested"
	RideEventAccepted   RideEventType = "accepted"
	RideEventInProgress RideEventType = "in_progress"
	RideEventCancelled  RideEventType = "cancelled"
	RideEventCompleted  RideEventType = "completed"
	RideEventRejected   RideEventType = "rejected"
)

// rideEventTypeIDs are the stable numeric ids the enumeration is persisted under.
var rideEventTypeIDs = map[RideEventType]int{
	RideEventRequested:  1,
	RideEventAccepted:   2,
	RideEventInProgress: 3,
	RideEventCancelled:  4,
	RideEventCompleted:  5,
	RideEventRejected:   6,
}

// AllRideEventTypes returns the enumeration in id order.
func AllRideEventTypes() []RideEventType {
	return []RideEventType{
		RideEventRequested,
		RideEventAccepted,
		RideEventInProgress,
		RideEventCancelled,
		RideEventCompleted,
		RideEventRejected,
	}
}

// ParseRideEventType accepts the type name or its numeric id. Names match
// regardless of case and word separators, so "in_progress", "inProgress"
// and "IN-PROGRESS" all parse.
func ParseRideEventType(s string) (RideEventType, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.Atoi(s); err == nil {
		for t, tid := range rideEventTypeIDs {
			if tid == id {
				return t, nil
			}
		}
		return "", fmt.Errorf("unknown ride event type id %d", id)
	}

	key := foldEventName(s)
	for _, t := range AllRideEventTypes() {
		if foldEventName(string(t)) == key {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown ride event type %q", s)
}

func foldEventName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

func (t RideEventType) IsValid() bool {
	_, ok := rideEventTypeIDs[t]
	return ok
}

func (t RideEventType) ID() int {
	return rideEventTypeIDs[t]
}

func (t RideEventType) String() string {
	return string(t)
}

// IsTerminal reports whether no transition may leave t.
func (t RideEventType) IsTerminal() bool {
	switch t {
	case RideEventCompleted, RideEventCancelled, RideEventRejected:
		return true
	}
	return false
}

func (t RideEventType) IsIntermediate() bool {
	return t == RideEventAccepted || t == RideEventInProgress
}

// HasDriver reports whether a ride in status t must carry an assigned driver.
func (t RideEventType) HasDriver() bool {
	switch t {
	case RideEventAccepted, RideEventInProgress, RideEventCompleted:
		return true
	}
	return false
}
