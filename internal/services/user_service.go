package services

import (
	"context"
	"fmt"
	"strings"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/models"
	"ridelifecycle/internal/repositories/interfaces"
	"ridelifecycle/pkg/logger"

	"github.com/google/uuid"
)

// UserService is the user directory the ride engine consults for identity and roles.
type UserService interface {
	CreateUser(ctx context.Context, firstName, lastName string, roles []models.Role) (*models.User, error)
	ResolveUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	HasRole(user *models.User, role models.Role) bool
	IsSameUser(a, b *models.User) bool
	AssignRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
}

type userService struct {
	userRepo interfaces.UserRepository
	logger   *logger.Logger
}

func NewUserService(userRepo interfaces.UserRepository, logger *logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *userService) CreateUser(ctx context.Context, firstName, lastName string, roles []models.Role) (*models.User, error) {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, apperrors.Invalid("first and last name are required")
	}

	user := models.NewUser(firstName, lastName)
	for _, role := range roles {
		if !role.IsValid() {
			return nil, apperrors.Invalid("unknown role %q", role)
		}
		if user.HasRole(role) {
			return nil, fmt.Errorf("%w: role %s listed twice", apperrors.ErrDuplicateRoleAssignment, role)
		}
		if held, conflict := user.ConflictingRole(role); conflict {
			return nil, fmt.Errorf("%w: role %s conflicts with %s", apperrors.ErrDuplicateRoleAssignment, role, held)
		}
		user.Roles = append(user.Roles, role)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithUserID(user.ID).WithField("roles", user.Roles).Info("User created")
	return user, nil
}

func (s *userService) ResolveUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) HasRole(user *models.User, role models.Role) bool {
	return user != nil && user.HasRole(role)
}

func (s *userService) IsSameUser(a, b *models.User) bool {
	return a.Is(b)
}

func (s *userService) AssignRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, apperrors.Invalid("unknown role %q", role)
	}
	if err := s.userRepo.AddRole(ctx, id, role); err != nil {
		return nil, err
	}

	s.logger.WithUserID(id).WithField("role", role).Info("Role assigned")
	return s.userRepo.GetByID(ctx, id)
}
