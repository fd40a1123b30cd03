package config

import (
	"fmt"

	"ridelifecycle/internal/models"
)

// Who may cancel a ride.
const (
	CancelByPassenger = "passenger"
	CancelByDriver    = "driver"
	CancelByAny       = "any"
)

type RidePolicyConfig struct {
	CancelActors     string                 `yaml:"cancel_actors"`
	CancelFromStates []models.RideEventType `yaml:"cancel_from_states"`

	// AllowDestinationChangeAfterAccept lets the passenger change the
	// destination while the ride is accepted but not yet in progress.
	AllowDestinationChangeAfterAccept bool `yaml:"allow_destination_change_after_accept"`
}

func DefaultRidePolicy() *RidePolicyConfig {
	return &RidePolicyConfig{
		CancelActors: CancelByAny,
		CancelFromStates: []models.RideEventType{
			models.RideEventRequested,
			models.RideEventAccepted,
			models.RideEventInProgress,
		},
	}
}

func loadRidePolicyConfig() (*RidePolicyConfig, error) {
	policy := DefaultRidePolicy()
	policy.CancelActors = getEnv("RIDE_CANCEL_ACTORS", policy.CancelActors)
	policy.AllowDestinationChangeAfterAccept = getEnvAsBool("RIDE_ALLOW_DESTINATION_CHANGE_AFTER_ACCEPT", false)

	if states := getEnvAsSlice("RIDE_CANCEL_FROM_STATES", nil); len(states) > 0 {
		policy.CancelFromStates = policy.CancelFromStates[:0]
		for _, s := range states {
			t, err := models.ParseRideEventType(s)
			if err != nil {
				return nil, fmt.Errorf("RIDE_CANCEL_FROM_STATES: %w", err)
			}
			policy.CancelFromStates = append(policy.CancelFromStates, t)
		}
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

func (p *RidePolicyConfig) Validate() error {
	switch p.CancelActors {
	case CancelByPassenger, CancelByDriver, CancelByAny:
	default:
		return fmt.Errorf("invalid cancel actors %q", p.CancelActors)
	}
	for _, s := range p.CancelFromStates {
		if !s.IsValid() {
			return fmt.Errorf("invalid cancel state %q", s)
		}
		if s.IsTerminal() {
			return fmt.Errorf("cancel state %q is terminal", s)
		}
	}
	return nil
}

func (p *RidePolicyConfig) CanCancelFrom(status models.RideEventType) bool {
	for _, s := range p.CancelFromStates {
		if s == status {
			return true
		}
	}
	return false
}

func (p *RidePolicyConfig) PassengerMayCancel() bool {
	return p.CancelActors == CancelByPassenger || p.CancelActors == CancelByAny
}

func (p *RidePolicyConfig) DriverMayCancel() bool {
	return p.CancelActors == CancelByDriver || p.CancelActors == CancelByAny
}
