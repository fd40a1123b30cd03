package interfaces

import (
	"context"

	"ridelifecycle/internal/models"

	"github.com/google/uuid"
)

// RideEventRepository is the append-only ride history.
type RideEventRepository interface {
	// Append fails with apperrors.ErrConflict when the ride already has an
	// event at the same sequence.
	Append(ctx context.Context, event *models.RideEvent) error
	LastEventForRide(ctx context.Context, rideID uuid.UUID) (*models.RideEvent, error)
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]*models.RideEvent, error)
}
