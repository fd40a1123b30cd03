package memory

import (
	"context"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/models"
	"ridelifecycle/internal/repositories/interfaces"

	"github.com/google/uuid"
)

type rideEventRepository struct {
	store *Store
}

func NewRideEventRepository(store *Store) interfaces.RideEventRepository {
	return &rideEventRepository{store: store}
}

func (r *rideEventRepository) Append(ctx context.Context, event *models.RideEvent) error {
	return r.store.write(ctx, func() error {
		for _, existing := range r.store.events[event.RideID] {
			if existing.Sequence == event.Sequence {
				return apperrors.ErrConflict
			}
		}
		stored := *event
		r.store.events[event.RideID] = append(r.store.events[event.RideID], &stored)
		return nil
	})
}

func (r *rideEventRepository) LastEventForRide(ctx context.Context, rideID uuid.UUID) (*models.RideEvent, error) {
	events, err := r.ListByRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, apperrors.ErrRideEventNotFound
	}
	return events[len(events)-1], nil
}

func (r *rideEventRepository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*models.RideEvent, error) {
	var events []*models.RideEvent
	r.store.read(ctx, func() {
		for _, e := range r.store.events[rideID] {
			c := *e
			events = append(events, &c)
		}
	})
	models.SortRideEvents(events)
	return events, nil
}
