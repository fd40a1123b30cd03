package shared

import (
	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/middleware"
	"ridelifecycle/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CallerID(c)
	if !ok {
		utils.AppErrorResponse(c, apperrors.ErrMissingCaller)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes and validates the body, writing the error response on failure.
func bindJSON(c *gin.Context, request interface{}) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return false
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.ValidationErrorResponse(c, utils.ValidationDetails(err))
		return false
	}
	return true
}
