package interfaces

import (
	"context"

	"ridelifecycle/internal/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// AddRole fails with apperrors.ErrDuplicateRoleAssignment when the user already holds
	// a role; passenger and driver are exclusive.
	AddRole(ctx context.Context, id uuid.UUID, role models.Role) error
}
