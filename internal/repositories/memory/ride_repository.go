package memory

import (
	"context"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/models"
	"ridelifecycle/internal/repositories/interfaces"

	"github.com/google/uuid"
)

type rideRepository struct {
	store *Store
}

func NewRideRepository(store *Store) interfaces.RideRepository {
	return &rideRepository{store: store}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	return r.store.write(ctx, func() error {
		if _, exists := r.store.rides[ride.ID()]; exists {
			return apperrors.ErrConflict
		}
		r.store.rides[ride.ID()] = ride.Clone()
		return nil
	})
}

func (r *rideRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	var ride *models.Ride
	r.store.read(ctx, func() {
		if stored, ok := r.store.rides[id]; ok {
			ride = stored.Clone()
		}
	})
	if ride == nil {
		return nil, apperrors.ErrRideNotFound
	}
	return ride, nil
}

func (r *rideRepository) AssignDestination(ctx context.Context, id uuid.UUID, destination models.Location) error {
	return r.store.write(ctx, func() error {
		ride, ok := r.store.rides[id]
		if !ok {
			return apperrors.ErrRideNotFound
		}
		ride.AssignDestination(destination)
		return nil
	})
}

func (r *rideRepository) AssignDriver(ctx context.Context, id uuid.UUID, driverID uuid.UUID) error {
	return r.store.write(ctx, func() error {
		ride, ok := r.store.rides[id]
		if !ok {
			return apperrors.ErrRideNotFound
		}
		if err := ride.AssignDriver(driverID); err != nil {
			return apperrors.ErrConflict
		}
		return nil
	})
}
