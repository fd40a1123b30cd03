package middleware

import (
	"strings"

	"ridelifecycle/internal/services"
	"ridelifecycle/internal/utils"
	"ridelifecycle/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthRequired validates the bearer token and records the caller both on the
// gin context and on the request context seen by services.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "Authorization header required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, utils.BearerPrefix)
		if tokenString == authHeader {
			utils.UnauthorizedResponse(c, "Bearer token required")
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.UnauthorizedResponse(c, utils.ErrInvalidToken)
			return
		}

		c.Set(utils.ContextUserIDKey, claims.UserID)
		ctx := services.WithCaller(c.Request.Context(), claims.UserID)
		ctx = logger.ContextWithUserID(ctx, claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CallerID returns the authenticated user set by AuthRequired.
func CallerID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(utils.ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
