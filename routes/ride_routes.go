package routes

import (
	"ridelifecycle/internal/handlers/shared"
	"ridelifecycle/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupUserRoutes sets up user directory routes
func SetupUserRoutes(r *gin.RouterGroup, userHandler *shared.UserHandler, jwtSecret string) {
	// Registration is public
	r.POST("/users", userHandler.CreateUser)

	users := r.Group("/users")
	users.Use(middleware.AuthRequired(jwtSecret))
	{
		users.GET("/:id", userHandler.GetUser)
		users.POST("/:id/roles", userHandler.AssignRole)
	}
}

// SetupRideRoutes sets up ride lifecycle routes
func SetupRideRoutes(r *gin.RouterGroup, rideHandler *shared.RideHandler, jwtSecret string) {
	rides := r.Group("/rides")
	rides.Use(middleware.AuthRequired(jwtSecret))
	{
		rides.POST("", rideHandler.CreateRide)
		rides.GET("/:id", rideHandler.GetRide)
		rides.GET("/:id/status", rideHandler.GetRideStatus)
		rides.GET("/:id/events", rideHandler.GetRideEvents)
		rides.PUT("/:id/destination", rideHandler.AssignDestination)

		// Generic transition endpoint: event_id is a type name or numeric id.
		rides.PUT("/:id/events/:event_id", rideHandler.UpdateRideByEvent)
	}
}

// SetupStreamRoutes sets up the ride event websocket stream
func SetupStreamRoutes(r *gin.RouterGroup, streamHandler *shared.RideStreamHandler, jwtSecret string) {
	stream := r.Group("/rides")
	stream.Use(middleware.AuthRequired(jwtSecret))
	stream.GET("/:id/stream", streamHandler.StreamRide)
}
