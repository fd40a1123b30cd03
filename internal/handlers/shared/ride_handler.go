package shared

import (
	"net/http"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/models"
	"ridelifecycle/internal/services"
	"ridelifecycle/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RideHandler struct {
	rideService       services.RideService
	transitionService services.RideTransitionService
	userService       services.UserService
	locationService   services.LocationService
}

func NewRideHandler(
	rideService services.RideService,
	transitionService services.RideTransitionService,
	userService services.UserService,
	locationService services.LocationService,
) *RideHandler {
	return &RideHandler{
		rideService:       rideService,
		transitionService: transitionService,
		userService:       userService,
		locationService:   locationService,
	}
}

type CreateRideRequest struct {
	Departure   services.LocationInput  `json:"departure"`
	Destination *services.LocationInput `json:"destination"`
}

type AssignDestinationRequest struct {
	Destination services.LocationInput `json:"destination"`
}

type RideResponse struct {
	Ride   *models.Ride         `json:"ride"`
	Status models.RideEventType `json:"status"`

	// Warning reports a follow-up step that failed after the ride was stored.
	Warning *utils.APIError `json:"warning,omitempty"`
}

// CreateRide requests a ride for the authenticated passenger
func (h *RideHandler) CreateRide(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var request CreateRideRequest
	if !bindJSON(c, &request) {
		return
	}

	ctx := c.Request.Context()
	passenger, err := h.userService.ResolveUser(ctx, caller)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	departure, err := h.locationService.Resolve(ctx, request.Departure)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	// Both locations resolve before the ride exists.
	var destination *models.Location
	if request.Destination != nil {
		resolved, err := h.locationService.Resolve(ctx, *request.Destination)
		if err != nil {
			utils.AppErrorResponse(c, err)
			return
		}
		destination = &resolved
	}

	ride, err := h.rideService.NewRide(ctx, passenger, departure)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	if destination != nil {
		updated, err := h.rideService.AssignDestinationToRide(ctx, ride, *destination)
		if err != nil {
			// The ride is already stored; report it along with the failed step.
			response, statusErr := h.rideResponse(c, ride)
			if statusErr != nil {
				utils.AppErrorResponse(c, statusErr)
				return
			}
			response.Warning = warningFor(err)
			utils.CreatedResponse(c, "Ride requested; destination not assigned", response)
			return
		}
		ride = updated
	}

	h.respondWithRide(c, ride, "Ride requested successfully", true)
}

// GetRide returns a ride with its current status
func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), rideID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	h.respondWithRide(c, ride, "Ride retrieved successfully", false)
}

// GetRideStatus returns only the derived status
func (h *RideHandler) GetRideStatus(c *gin.Context) {
	rideID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	status, err := h.rideService.GetRideStatus(c.Request.Context(), rideID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride status retrieved successfully", gin.H{
		"ride_id": rideID,
		"status":  status,
	})
}

// GetRideEvents returns the ride's ordered event history
func (h *RideHandler) GetRideEvents(c *gin.Context) {
	rideID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	events, err := h.rideService.GetRideHistory(c.Request.Context(), rideID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Ride events retrieved successfully", events, &utils.Meta{Count: len(events)})
}

// AssignDestination sets the destination; only the ride's passenger may do so
func (h *RideHandler) AssignDestination(c *gin.Context) {
	rideID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var request AssignDestinationRequest
	if !bindJSON(c, &request) {
		return
	}

	ctx := c.Request.Context()
	ride, err := h.rideService.GetRide(ctx, rideID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	if !ride.IsPassenger(caller) {
		utils.AppErrorResponse(c, apperrors.Unauthorized("only the ride's passenger may set its destination"))
		return
	}

	destination, err := h.locationService.Resolve(ctx, request.Destination)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	ride, err = h.rideService.AssignDestinationToRide(ctx, ride, destination)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	h.respondWithRide(c, ride, "Destination assigned successfully", false)
}

// UpdateRideByEvent applies the transition named by the event id
func (h *RideHandler) UpdateRideByEvent(c *gin.Context) {
	rideID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var driverID *uuid.UUID
	if raw := c.Query("driver_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid driver_id")
			return
		}
		driverID = &parsed
	}

	ctx := c.Request.Context()
	ride, err := h.rideService.GetRide(ctx, rideID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	ride, err = h.transitionService.UpdateRideByDriverAndEventID(ctx, ride, c.Param("event_id"), driverID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	h.respondWithRide(c, ride, "Ride updated successfully", false)
}

func (h *RideHandler) rideResponse(c *gin.Context, ride *models.Ride) (*RideResponse, error) {
	status, err := h.rideService.GetRideStatus(c.Request.Context(), ride.ID())
	if err != nil {
		return nil, err
	}
	return &RideResponse{Ride: ride, Status: status}, nil
}

func (h *RideHandler) respondWithRide(c *gin.Context, ride *models.Ride, message string, created bool) {
	response, err := h.rideResponse(c, ride)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	if created {
		utils.CreatedResponse(c, message, response)
		return
	}
	utils.SuccessResponse(c, message, response)
}

func warningFor(err error) *utils.APIError {
	if apperrors.StatusCode(err) >= http.StatusInternalServerError {
		return &utils.APIError{Code: "INTERNAL_ERROR", Message: utils.ErrInternalServer}
	}
	return &utils.APIError{Code: apperrors.Code(err), Message: err.Error()}
}
