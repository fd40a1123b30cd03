package memory

import (
	"context"
	"fmt"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/models"
	"ridelifecycle/internal/repositories/interfaces"

	"github.com/google/uuid"
)

type userRepository struct {
	store *Store
}

func NewUserRepository(store *Store) interfaces.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.store.write(ctx, func() error {
		if _, exists := r.store.users[user.ID]; exists {
			return apperrors.ErrConflict
		}
		r.store.users[user.ID] = user.Clone()
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user *models.User
	r.store.read(ctx, func() {
		if stored, ok := r.store.users[id]; ok {
			user = stored.Clone()
		}
	})
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (r *userRepository) AddRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	return r.store.write(ctx, func() error {
		user, ok := r.store.users[id]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		if user.HasRole(role) {
			return fmt.Errorf("%w: user already holds role %s", apperrors.ErrDuplicateRoleAssignment, role)
		}
		if held, conflict := user.ConflictingRole(role); conflict {
			return fmt.Errorf("%w: user holds role %s", apperrors.ErrDuplicateRoleAssignment, held)
		}
		user.Roles = append(user.Roles, role)
		return nil
	})
}
