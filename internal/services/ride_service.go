package services

import (
	"context"
	"errors"
	"fmt"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/config"
	"ridelifecycle/internal/metrics"
	"ridelifecycle/internal/models"
	"ridelifecycle/internal/repositories/interfaces"
	"ridelifecycle/pkg/logger"

	"github.com/google/uuid"
)

type RideService interface {
	// Lifecycle
	NewRide(ctx context.Context, passenger *models.User, departure models.Location) (*models.Ride, error)
	AssignDestinationToRide(ctx context.Context, ride *models.Ride, destination models.Location) (*models.Ride, error)
	AcceptRide(ctx context.Context, ride *models.Ride, driver *models.User) (*models.Ride, error)
	MarkRideInProgress(ctx context.Context, ride *models.Ride, driver *models.User) (*models.Ride, error)
	MarkRideCompleted(ctx context.Context, ride *models.Ride, driver *models.User) (*models.Ride, error)
	RejectRide(ctx context.Context, ride *models.Ride, driver *models.User) (*models.Ride, error)
	CancelRide(ctx context.Context, ride *models.Ride, actor *models.User) (*models.Ride, error)

	// Queries
	GetRide(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	GetRideStatus(ctx context.Context, rideID uuid.UUID) (models.RideEventType, error)
	GetRideHistory(ctx context.Context, rideID uuid.UUID) ([]*models.RideEvent, error)

	Authorizer() *Authorizer
}

type RideServiceDeps struct {
	RideRepo   interfaces.RideRepository
	EventRepo  interfaces.RideEventRepository
	Transactor interfaces.Transactor
	Locker     RideLocker
	Publisher  EventPublisher
	Policy     *config.RidePolicyConfig
	Logger     *logger.Logger
}

type rideService struct {
	rideRepo   interfaces.RideRepository
	eventRepo  interfaces.RideEventRepository
	transactor interfaces.Transactor
	locker     RideLocker
	publisher  EventPublisher
	authorizer *Authorizer
	logger     *logger.Logger
}

func NewRideService(deps RideServiceDeps) RideService {
	s := &rideService{
		rideRepo:   deps.RideRepo,
		eventRepo:  deps.EventRepo,
		transactor: deps.Transactor,
		locker:     deps.Locker,
		publisher:  deps.Publisher,
		authorizer: NewAuthorizer(deps.Policy),
		logger:     deps.Logger,
	}
	if s.locker == nil {
		s.locker = NewLocalRideLocker(defaultLockWait)
	}
	if s.publisher == nil {
		s.publisher = NewNoopEventPublisher()
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s
}

func (s *rideService) Authorizer() *Authorizer {
	return s.authorizer
}

func (s *rideService) NewRide(ctx context.Context, passenger *models.User, departure models.Location) (*models.Ride, error) {
	if passenger == nil || !passenger.HasRole(models.RolePassenger) {
		metrics.RecordTransitionFailure(models.RideEventRequested.String(), apperrors.Code(apperrors.ErrRoleMismatch))
		return nil, apperrors.ErrUserNotInPassengerRole
	}

	ride := models.NewRide(passenger.ID, departure)
	event := ride.PassengerTransaction(models.RideEventRequested)
	event.Follow(nil)

	err := s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.rideRepo.Create(ctx, ride); err != nil {
			return err
		}
		return s.eventRepo.Append(ctx, event)
	})
	if err != nil {
		return nil, s.failed(ride.ID(), passenger.ID, models.RideEventRequested, fmt.Errorf("failed to create ride: %w", err))
	}

	s.committed(ctx, event)
	return ride, nil
}

func (s *rideService) AssignDestinationToRide(ctx context.Context, ride *models.Ride, destination models.Location) (*models.Ride, error) {
	unlock, err := s.locker.Lock(ctx, ride.ID())
	if err != nil {
		return nil, err
	}
	defer unlock()

	var updated *models.Ride
	err = s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		current, status, err := s.load(ctx, ride.ID())
		if err != nil {
			return err
		}
		if err := s.authorizer.AuthorizeDestinationChange(status).Err(); err != nil {
			return err
		}
		if err := s.rideRepo.AssignDestination(ctx, current.ID(), destination); err != nil {
			return err
		}
		current.AssignDestination(destination)
		updated = current
		return nil
	})
	if err != nil {
		metrics.RecordTransitionFailure("destination", apperrors.Code(err))
		return nil, err
	}

	metrics.RecordTransition("destination")
	s.logger.WithRideID(ride.ID()).Info("Ride destination assigned")
	return updated, nil
}

func (s *rideService) AcceptRide(ctx context.Context, ride *models.Ride, driver *models.User) (*models.Ride, error) {
	return s.transition(ctx, ride.ID(), driver, models.RideEventAccepted, func(ctx context.Context, current *models.Ride) error {
		if err := s.rideRepo.AssignDriver(ctx, current.ID(), driver.ID); err != nil {
			return err
		}
		return current.AssignDriver(driver.ID)
	})
}

func (s *rideService) MarkRideInProgress(ctx context.Context, ride *models.Ride, driver *models.User) (*models.Ride, error) {
	return s.transition(ctx, ride.ID(), driver, models.RideEventInProgress, nil)
}

func (s *rideService) MarkRideCompleted(ctx context.Context, ride *models.Ride, driver *models.User) (*models.Ride, error) {
	return s.transition(ctx, ride.ID(), driver, models.RideEventCompleted, nil)
}

func (s *rideService) RejectRide(ctx context.Context, ride *models.Ride, driver *models.User) (*models.Ride, error) {
	return s.transition(ctx, ride.ID(), driver, models.RideEventRejected, nil)
}

func (s *rideService) CancelRide(ctx context.Context, ride *models.Ride, actor *models.User) (*models.Ride, error) {
	return s.transition(ctx, ride.ID(), actor, models.RideEventCancelled, nil)
}

func (s *rideService) GetRide(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	return s.rideRepo.GetByID(ctx, id)
}

func (s *rideService) GetRideStatus(ctx context.Context, rideID uuid.UUID) (models.RideEventType, error) {
	_, status, err := s.load(ctx, rideID)
	return status, err
}

func (s *rideService) GetRideHistory(ctx context.Context, rideID uuid.UUID) ([]*models.RideEvent, error) {
	if _, err := s.rideRepo.GetByID(ctx, rideID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByRide(ctx, rideID)
}

// load reads the stored ride and derives its status from the latest event.
func (s *rideService) load(ctx context.Context, rideID uuid.UUID) (*models.Ride, models.RideEventType, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, "", err
	}
	last, err := s.eventRepo.LastEventForRide(ctx, rideID)
	if err != nil {
		return nil, "", err
	}
	return ride, last.Type, nil
}

// transition applies one authorized status change: under the ride lock and
// inside one transaction it re-reads the ride, checks the request against the
// current status, runs mutate and appends the event.
func (s *rideService) transition(
	ctx context.Context,
	rideID uuid.UUID,
	actor *models.User,
	eventType models.RideEventType,
	mutate func(ctx context.Context, current *models.Ride) error,
) (*models.Ride, error) {
	if actor == nil {
		return nil, s.failed(rideID, uuid.Nil, eventType, apperrors.Unauthorized("no acting user"))
	}

	unlock, err := s.locker.Lock(ctx, rideID)
	if err != nil {
		return nil, s.failed(rideID, actor.ID, eventType, err)
	}

	var (
		updated *models.Ride
		event   *models.RideEvent
	)
	err = s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		last, err := s.eventRepo.LastEventForRide(ctx, rideID)
		if err != nil {
			return err
		}
		if err := driverMatchesStatus(current, last.Type); err != nil {
			return err
		}

		if err := s.authorizer.Authorize(current, last.Type, actor, eventType).Err(); err != nil {
			return err
		}

		if mutate != nil {
			if err := mutate(ctx, current); err != nil {
				return err
			}
		}
		if err := driverMatchesStatus(current, eventType); err != nil {
			return err
		}

		next := models.NewRideEvent(rideID, actor.ID, eventType)
		next.Follow(last)
		if err := s.eventRepo.Append(ctx, next); err != nil {
			return err
		}

		updated, event = current, next
		return nil
	})
	unlock()

	if err != nil {
		return nil, s.failed(rideID, actor.ID, eventType, err)
	}

	s.committed(ctx, event)
	return updated, nil
}

// driverMatchesStatus fails when status requires a driver the ride lacks.
func driverMatchesStatus(ride *models.Ride, status models.RideEventType) error {
	if status.HasDriver() && !ride.HasDriver() {
		return fmt.Errorf("ride %s is %s but has no assigned driver", ride.ID(), status)
	}
	return nil
}

// failed normalizes storage conflicts, records the failure and returns err.
func (s *rideService) failed(rideID, actorID uuid.UUID, eventType models.RideEventType, err error) error {
	if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, models.ErrDriverAlreadyAssigned) {
		err = apperrors.Lifecycle("ride %s was updated concurrently", rideID)
	}

	metrics.RecordTransitionFailure(eventType.String(), apperrors.Code(err))

	entry := s.logger.WithRideID(rideID).WithUserID(actorID).WithField("event_type", eventType).WithError(err)
	if apperrors.StatusCode(err) >= 500 {
		entry.Error("Ride transition failed")
	} else {
		entry.Warn("Ride transition refused")
	}
	return err
}

// committed runs the after-commit side effects of an appended event.
func (s *rideService) committed(ctx context.Context, event *models.RideEvent) {
	metrics.RecordTransition(event.Type.String())
	s.logger.LogRideEvent(event.RideID, event.Type.String(), map[string]interface{}{
		"actor_id": event.ActorID.String(),
		"sequence": event.Sequence,
	})

	if err := s.publisher.PublishRideEvent(ctx, event); err != nil {
		metrics.IncPublishFailure()
		s.logger.WithRideID(event.RideID).WithError(err).Error("Failed to publish ride event")
	}
}
