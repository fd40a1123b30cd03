package interfaces

import (
	"context"

	"ridelifecycle/internal/models"

	"github.com/google/uuid"
)

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)

	// AssignDestination overwrites the ride's destination.
	AssignDestination(ctx context.Context, id uuid.UUID, destination models.Location) error
	// AssignDriver only succeeds while the stored ride has no driver;
	// otherwise it returns apperrors.ErrConflict.
	AssignDriver(ctx context.Context, id uuid.UUID, driverID uuid.UUID) error
}
