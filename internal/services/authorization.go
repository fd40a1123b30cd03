package services

import (
	"fmt"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/config"
	"ridelifecycle/internal/models"
)

type Decision int

const (
	DecisionAuthorized Decision = iota
	DecisionLifecycleViolation
	DecisionRoleMismatch
	DecisionActorMismatch
	DecisionUnauthorized
)

func (d Decision) String() string {
	switch d {
	case DecisionAuthorized:
		return "authorized"
	case DecisionLifecycleViolation:
		return "lifecycle_violation"
	case DecisionRoleMismatch:
		return "role_mismatch"
	case DecisionActorMismatch:
		return "actor_mismatch"
	case DecisionUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// AuthorizationResult is the outcome of checking one transition request.
type AuthorizationResult struct {
	Decision Decision
	Reason   string
}

func authorized() AuthorizationResult {
	return AuthorizationResult{Decision: DecisionAuthorized}
}

func deny(decision Decision, format string, args ...interface{}) AuthorizationResult {
	return AuthorizationResult{Decision: decision, Reason: fmt.Sprintf(format, args...)}
}

func (r AuthorizationResult) Allowed() bool {
	return r.Decision == DecisionAuthorized
}

// Err converts a denial into the matching error kind; nil when authorized.
func (r AuthorizationResult) Err() error {
	switch r.Decision {
	case DecisionAuthorized:
		return nil
	case DecisionLifecycleViolation:
		return apperrors.Lifecycle("%s", r.Reason)
	case DecisionRoleMismatch:
		return fmt.Errorf("%w: %s", apperrors.ErrRoleMismatch, r.Reason)
	case DecisionActorMismatch:
		return fmt.Errorf("%w: %s", apperrors.ErrActorMismatch, r.Reason)
	default:
		return apperrors.Unauthorized(r.Reason)
	}
}

// Authorizer holds every rule deciding whether an actor may move a ride from
// its current status by appending an event of a given type. Checks run in a
// fixed order: lifecycle, then role, then actor identity.
type Authorizer struct {
	policy *config.RidePolicyConfig
}

func NewAuthorizer(policy *config.RidePolicyConfig) *Authorizer {
	if policy == nil {
		policy = config.DefaultRidePolicy()
	}
	return &Authorizer{policy: policy}
}

func (a *Authorizer) Policy() *config.RidePolicyConfig {
	return a.policy
}

func (a *Authorizer) Authorize(ride *models.Ride, status models.RideEventType, actor *models.User, transition models.RideEventType) AuthorizationResult {
	if actor == nil {
		return deny(DecisionUnauthorized, "no acting user")
	}

	switch transition {
	case models.RideEventAccepted:
		return a.authorizeAccept(ride, status, actor)
	case models.RideEventInProgress:
		return a.authorizeAssignedDriver(ride, status, actor, models.RideEventAccepted)
	case models.RideEventCompleted:
		return a.authorizeAssignedDriver(ride, status, actor, models.RideEventInProgress)
	case models.RideEventRejected:
		return a.authorizeReject(status, actor)
	case models.RideEventCancelled:
		return a.authorizeCancel(ride, status, actor)
	}
	return deny(DecisionLifecycleViolation, "unknown transition requested: %s", transition)
}

// AuthorizeDestinationChange decides whether a ride in status may get a new destination.
func (a *Authorizer) AuthorizeDestinationChange(status models.RideEventType) AuthorizationResult {
	switch {
	case status == models.RideEventRequested:
		return authorized()
	case status == models.RideEventAccepted && a.policy.AllowDestinationChangeAfterAccept:
		return authorized()
	}
	return deny(DecisionLifecycleViolation, "destination cannot be changed while ride is %s", status)
}

func (a *Authorizer) authorizeAccept(ride *models.Ride, status models.RideEventType, actor *models.User) AuthorizationResult {
	if status != models.RideEventRequested {
		return deny(DecisionLifecycleViolation, "ride is %s, not requested", status)
	}
	if ride.HasDriver() {
		return deny(DecisionLifecycleViolation, "ride already accepted")
	}
	if !ride.HasDestination() {
		return deny(DecisionLifecycleViolation, "ride has no destination")
	}
	if !actor.HasRole(models.RoleDriver) {
		return deny(DecisionRoleMismatch, "user is not in driver role")
	}
	if ride.IsPassenger(actor.ID) {
		return deny(DecisionActorMismatch, "driver cannot accept their own ride")
	}
	return authorized()
}

func (a *Authorizer) authorizeAssignedDriver(ride *models.Ride, status models.RideEventType, actor *models.User, required models.RideEventType) AuthorizationResult {
	if status != required {
		return deny(DecisionLifecycleViolation, "ride is %s, not %s", status, required)
	}
	if !actor.HasRole(models.RoleDriver) {
		return deny(DecisionRoleMismatch, "user is not in driver role")
	}
	if !ride.IsDrivenBy(actor.ID) {
		return deny(DecisionActorMismatch, "acting driver is not the assigned driver")
	}
	return authorized()
}

func (a *Authorizer) authorizeReject(status models.RideEventType, actor *models.User) AuthorizationResult {
	if status != models.RideEventRequested {
		return deny(DecisionLifecycleViolation, "ride is %s, not requested", status)
	}
	if !actor.HasRole(models.RoleDriver) {
		return deny(DecisionRoleMismatch, "user is not in driver role")
	}
	return authorized()
}

func (a *Authorizer) authorizeCancel(ride *models.Ride, status models.RideEventType, actor *models.User) AuthorizationResult {
	if !a.policy.CanCancelFrom(status) {
		return deny(DecisionLifecycleViolation, "ride cannot be cancelled while %s", status)
	}

	if ride.IsPassenger(actor.ID) {
		if !a.policy.PassengerMayCancel() {
			return deny(DecisionUnauthorized, "passengers may not cancel rides")
		}
		return authorized()
	}

	if !a.policy.DriverMayCancel() {
		return deny(DecisionUnauthorized, "only the ride's passenger may cancel")
	}
	if !actor.HasRole(models.RoleDriver) {
		return deny(DecisionRoleMismatch, "user is not in driver role")
	}
	if !status.IsIntermediate() {
		return deny(DecisionActorMismatch, "ride has no driver assigned while %s", status)
	}
	if !ride.IsDrivenBy(actor.ID) {
		return deny(DecisionActorMismatch, "acting driver is not the assigned driver")
	}
	return authorized()
}
