package services

import (
	"context"
	"fmt"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/metrics"
	"ridelifecycle/internal/models"
	"ridelifecycle/pkg/logger"

	"github.com/google/uuid"
)

// RideTransitionService applies a transition named by an external event id.
type RideTransitionService interface {
	UpdateRideByDriverAndEventID(ctx context.Context, ride *models.Ride, eventID string, driverID *uuid.UUID) (*models.Ride, error)
}

type rideTransitionService struct {
	rideService RideService
	userService UserService
	logger      *logger.Logger
}

func NewRideTransitionService(rideService RideService, userService UserService, logger *logger.Logger) RideTransitionService {
	return &rideTransitionService{
		rideService: rideService,
		userService: userService,
		logger:      logger,
	}
}

// UpdateRideByDriverAndEventID resolves the acting user and the requested
// transition, authorizes the request against the ride's current status and
// delegates to RideService. Every denial is returned before anything is written.
func (s *rideTransitionService) UpdateRideByDriverAndEventID(ctx context.Context, ride *models.Ride, eventID string, driverID *uuid.UUID) (*models.Ride, error) {
	caller, ok := CallerFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrMissingCaller
	}

	actor, err := s.resolveActor(ctx, caller, driverID)
	if err != nil {
		return nil, err
	}

	eventType, err := models.ParseRideEventType(eventID)
	if err != nil || eventType == models.RideEventRequested {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownTransition, eventID)
	}

	current, err := s.rideService.GetRide(ctx, ride.ID())
	if err != nil {
		return nil, err
	}
	status, err := s.rideService.GetRideStatus(ctx, current.ID())
	if err != nil {
		return nil, err
	}

	result := s.rideService.Authorizer().Authorize(current, status, actor, eventType)
	if !result.Allowed() {
		metrics.RecordTransitionFailure(eventType.String(), result.Decision.String())
		s.logger.WithRideID(current.ID()).WithUserID(actor.ID).WithFields(map[string]interface{}{
			"event_type": eventType,
			"status":     status,
			"decision":   result.Decision.String(),
		}).Warn(result.Reason)
		return nil, result.Err()
	}

	switch eventType {
	case models.RideEventAccepted:
		return s.rideService.AcceptRide(ctx, current, actor)
	case models.RideEventInProgress:
		return s.rideService.MarkRideInProgress(ctx, current, actor)
	case models.RideEventCompleted:
		return s.rideService.MarkRideCompleted(ctx, current, actor)
	case models.RideEventRejected:
		return s.rideService.RejectRide(ctx, current, actor)
	case models.RideEventCancelled:
		return s.rideService.CancelRide(ctx, current, actor)
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownTransition, eventID)
}

// resolveActor returns the user the transition is performed as. An explicit
// driver id must name the authenticated caller.
func (s *rideTransitionService) resolveActor(ctx context.Context, caller uuid.UUID, driverID *uuid.UUID) (*models.User, error) {
	if driverID == nil {
		return s.userService.ResolveUser(ctx, caller)
	}

	driver, err := s.userService.ResolveUser(ctx, *driverID)
	if err != nil {
		return nil, err
	}
	if driver.ID != caller {
		s.logger.LogSecurityEvent("driver_impersonation", "high", map[string]interface{}{
			"caller_id": caller.String(),
			"driver_id": driverID.String(),
		})
		return nil, apperrors.Unauthorized("caller is not the acting driver")
	}
	return driver, nil
}
