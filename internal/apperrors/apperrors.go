package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error returned by the ride engine wraps exactly one of these.
var (
	ErrNotFound                = errors.New("not found")
	ErrRoleMismatch            = errors.New("role mismatch")
	ErrActorMismatch           = errors.New("actor mismatch")
	ErrLifecycleViolation      = errors.New("ride lifecycle violation")
	ErrUnauthorizedOperation   = errors.New("unauthorized operation")
	ErrDuplicateRoleAssignment = errors.New("duplicate role assignment")
	ErrInvalidInput            = errors.New("invalid input")

	// ErrConflict is returned by storage when a conditional write lost a race.
	ErrConflict = errors.New("conflicting update")
)

var (
	ErrRideNotFound                    = fmt.Errorf("ride %w", ErrNotFound)
	ErrUserNotFound                    = fmt.Errorf("user %w", ErrNotFound)
	ErrRideEventNotFound               = fmt.Errorf("ride event %w", ErrNotFound)
	ErrUserNotInDriverRole             = fmt.Errorf("%w: user is not in driver role", ErrRoleMismatch)
	ErrUserNotInPassengerRole          = fmt.Errorf("%w: user is not in passenger role", ErrRoleMismatch)
	ErrActingDriverIsNotAssignedDriver = fmt.Errorf("%w: acting driver is not the assigned driver", ErrActorMismatch)
	ErrUnknownTransition               = fmt.Errorf("%w: unknown transition requested", ErrLifecycleViolation)
	ErrMissingCaller                   = fmt.Errorf("%w: missing authentication context", ErrUnauthorizedOperation)
)

// Lifecycle builds a lifecycle violation describing the offending status.
func Lifecycle(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrLifecycleViolation, fmt.Sprintf(format, args...))
}

// Invalid builds an invalid-input error.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Unauthorized builds an unauthorized-operation error with a reason.
func Unauthorized(reason string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorizedOperation, reason)
}

func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorizedOperation):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRoleMismatch), errors.Is(err, ErrActorMismatch):
		return http.StatusForbidden
	case errors.Is(err, ErrLifecycleViolation), errors.Is(err, ErrDuplicateRoleAssignment), errors.Is(err, ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Code returns the API error code for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnauthorizedOperation):
		return "UNAUTHORIZED_OPERATION"
	case errors.Is(err, ErrRoleMismatch):
		return "ROLE_MISMATCH"
	case errors.Is(err, ErrActorMismatch):
		return "ACTOR_MISMATCH"
	case errors.Is(err, ErrLifecycleViolation):
		return "LIFECYCLE_VIOLATION"
	case errors.Is(err, ErrDuplicateRoleAssignment):
		return "DUPLICATE_ROLE_ASSIGNMENT"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	}
	return "INTERNAL_ERROR"
}
