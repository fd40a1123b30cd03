package mongodb

import (
	"fmt"
	"time"

	"ridelifecycle/internal/models"

	"github.com/google/uuid"
)

const (
	ridesCollection          = "rides"
	rideEventsCollection     = "ride_events"
	rideEventTypesCollection = "ride_event_types"
	usersCollection          = "users"
)

// Documents keep ids as canonical uuid strings so they stay readable in the shell.

type rideDocument struct {
	ID          string           `bson:"_id"`
	PassengerID string           `bson:"passenger_id"`
	DriverID    *string          `bson:"driver_id"`
	Departure   models.Location  `bson:"departure"`
	Destination *models.Location `bson:"destination,omitempty"`
	Created     time.Time        `bson:"created"`
}

type rideEventDocument struct {
	ID        string    `bson:"_id"`
	RideID    string    `bson:"ride_id"`
	ActorID   string    `bson:"actor_id"`
	TypeID    int       `bson:"event_type_id"`
	Type      string    `bson:"event_type"`
	Timestamp time.Time `bson:"timestamp"`
	Sequence  int64     `bson:"sequence"`
}

type userDocument struct {
	ID        string    `bson:"_id"`
	FirstName string    `bson:"first_name"`
	LastName  string    `bson:"last_name"`
	Roles     []string  `bson:"roles"`
	CreatedAt time.Time `bson:"created_at"`
}

func toRideDocument(ride *models.Ride) rideDocument {
	doc := rideDocument{
		ID:          ride.ID().String(),
		PassengerID: ride.PassengerID().String(),
		Departure:   ride.Departure(),
		Created:     ride.Created(),
	}
	if driverID, ok := ride.DriverID(); ok {
		s := driverID.String()
		doc.DriverID = &s
	}
	if destination, ok := ride.Destination(); ok {
		doc.Destination = &destination
	}
	return doc
}

func (d rideDocument) toModel() (*models.Ride, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid ride id %q: %w", d.ID, err)
	}
	passengerID, err := uuid.Parse(d.PassengerID)
	if err != nil {
		return nil, fmt.Errorf("invalid passenger id %q: %w", d.PassengerID, err)
	}

	var driverID *uuid.UUID
	if d.DriverID != nil {
		parsed, err := uuid.Parse(*d.DriverID)
		if err != nil {
			return nil, fmt.Errorf("invalid driver id %q: %w", *d.DriverID, err)
		}
		driverID = &parsed
	}

	return models.RestoreRide(id, passengerID, driverID, d.Departure, d.Destination, d.Created), nil
}

func toRideEventDocument(event *models.RideEvent) rideEventDocument {
	return rideEventDocument{
		ID:        event.ID.String(),
		RideID:    event.RideID.String(),
		ActorID:   event.ActorID.String(),
		TypeID:    event.Type.ID(),
		Type:      event.Type.String(),
		Timestamp: event.Timestamp,
		Sequence:  event.Sequence,
	}
}

func (d rideEventDocument) toModel() (*models.RideEvent, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", d.ID, err)
	}
	rideID, err := uuid.Parse(d.RideID)
	if err != nil {
		return nil, fmt.Errorf("invalid ride id %q: %w", d.RideID, err)
	}
	actorID, err := uuid.Parse(d.ActorID)
	if err != nil {
		return nil, fmt.Errorf("invalid actor id %q: %w", d.ActorID, err)
	}
	eventType, err := models.ParseRideEventType(d.Type)
	if err != nil {
		return nil, err
	}

	return &models.RideEvent{
		ID:        id,
		RideID:    rideID,
		ActorID:   actorID,
		Type:      eventType,
		Timestamp: d.Timestamp.UTC(),
		Sequence:  d.Sequence,
	}, nil
}

func toUserDocument(user *models.User) userDocument {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, string(r))
	}
	return userDocument{
		ID:        user.ID.String(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     roles,
		CreatedAt: user.CreatedAt,
	}
}

func (d userDocument) toModel() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	user := &models.User{
		ID:        id,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		CreatedAt: d.CreatedAt.UTC(),
	}
	for _, r := range d.Roles {
		user.Roles = append(user.Roles, models.Role(r))
	}
	return user, nil
}
