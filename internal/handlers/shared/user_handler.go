package shared

import (
	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/models"
	"ridelifecycle/internal/services"
	"ridelifecycle/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

type CreateUserRequest struct {
	FirstName string   `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string   `json:"last_name" validate:"required,min=2,max=50"`
	Roles     []string `json:"roles" validate:"dive,role"`
}

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// CreateUser registers a user with an optional initial role set
func (h *UserHandler) CreateUser(c *gin.Context) {
	var request CreateUserRequest
	if !bindJSON(c, &request) {
		return
	}

	roles := make([]models.Role, 0, len(request.Roles))
	for _, r := range request.Roles {
		roles = append(roles, models.Role(r))
	}

	user, err := h.userService.CreateUser(c.Request.Context(), request.FirstName, request.LastName, roles)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "User created successfully", user)
}

// GetUser returns a user by id
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.ResolveUser(c.Request.Context(), userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", user)
}

// AssignRole grants the authenticated user their role
func (h *UserHandler) AssignRole(c *gin.Context) {
	userID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	caller, ok := callerID(c)
	if !ok {
		return
	}
	if caller != userID {
		utils.AppErrorResponse(c, apperrors.Unauthorized("users may only change their own roles"))
		return
	}

	var request AssignRoleRequest
	if !bindJSON(c, &request) {
		return
	}

	user, err := h.userService.AssignRole(c.Request.Context(), userID, models.Role(request.Role))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Role assigned successfully", user)
}
