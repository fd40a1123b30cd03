package shared

import (
	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/services"
	"ridelifecycle/internal/utils"
	"ridelifecycle/pkg/logger"
	"ridelifecycle/pkg/websocket"

	"github.com/gin-gonic/gin"
)

type RideStreamHandler struct {
	rideService services.RideService
	stream      *websocket.Handler
	logger      *logger.Logger
}

func NewRideStreamHandler(rideService services.RideService, stream *websocket.Handler, logger *logger.Logger) *RideStreamHandler {
	return &RideStreamHandler{
		rideService: rideService,
		stream:      stream,
		logger:      logger,
	}
}

// StreamRide upgrades to a websocket delivering the ride's events as they
// commit. Only the passenger and the assigned driver may subscribe.
func (h *RideStreamHandler) StreamRide(c *gin.Context) {
	rideID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	caller, ok := callerID(c)
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), rideID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	if !ride.IsPassenger(caller) && !ride.IsDrivenBy(caller) {
		utils.AppErrorResponse(c, apperrors.Unauthorized("only ride participants may follow its events"))
		return
	}

	if err := h.stream.Subscribe(c.Writer, c.Request, services.RideRoom(rideID), caller); err != nil {
		h.logger.WithRideID(rideID).WithUserID(caller).WithError(err).Warn("Ride stream subscription failed")
	}
}
