package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrDriverAlreadyAssigned = errors.New("ride already has a driver")

// Ride is the aggregate for one transportation request. It holds no status:
// the current status is always the type of the ride's latest RideEvent.
type Ride struct {
	id          uuid.UUID
	passengerID uuid.UUID
	driverID    *uuid.UUID
	departure   Location
	destination *Location
	created     time.Time
}

func NewRide(passengerID uuid.UUID, departure Location) *Ride {
	return &Ride{
		id:          uuid.New(),
		passengerID: passengerID,
		departure:   departure.clone(),
		created:     time.Now().UTC(),
	}
}

// RestoreRide rehydrates a ride read back from storage.
func RestoreRide(id, passengerID uuid.UUID, driverID *uuid.UUID, departure Location, destination *Location, created time.Time) *Ride {
	r := &Ride{
		id:          id,
		passengerID: passengerID,
		departure:   departure.clone(),
		created:     created.UTC(),
	}
	if driverID != nil {
		d := *driverID
		r.driverID = &d
	}
	if destination != nil {
		d := destination.clone()
		r.destination = &d
	}
	return r
}

func (r *Ride) ID() uuid.UUID          { return r.id }
func (r *Ride) PassengerID() uuid.UUID { return r.passengerID }
func (r *Ride) Departure() Location    { return r.departure.clone() }
func (r *Ride) Created() time.Time     { return r.created }

func (r *Ride) DriverID() (uuid.UUID, bool) {
	if r.driverID == nil {
		return uuid.Nil, false
	}
	return *r.driverID, true
}

func (r *Ride) Destination() (Location, bool) {
	if r.destination == nil {
		return Location{}, false
	}
	return r.destination.clone(), true
}

func (r *Ride) AssignDestination(destination Location) {
	d := destination.clone()
	r.destination = &d
}

// AssignDriver sets the driver once; a second assignment fails.
func (r *Ride) AssignDriver(driverID uuid.UUID) error {
	if r.driverID != nil {
		return ErrDriverAlreadyAssigned
	}
	d := driverID
	r.driverID = &d
	return nil
}

func (r *Ride) HasDestination() bool {
	return r.destination != nil
}

func (r *Ride) HasDriver() bool {
	return r.driverID != nil
}

func (r *Ride) IsDrivenBy(driverID uuid.UUID) bool {
	return r.driverID != nil && *r.driverID == driverID
}

func (r *Ride) IsPassenger(userID uuid.UUID) bool {
	return r.passengerID == userID
}

func (r *Ride) IsDestinedFor(location Location) bool {
	return r.destination != nil && r.destination.IsSameAs(location)
}

func (r *Ride) Is(other *Ride) bool {
	return other != nil && r.id == other.id
}

// PassengerTransaction builds an event attributed to the ride's passenger.
func (r *Ride) PassengerTransaction(eventType RideEventType) *RideEvent {
	return NewRideEvent(r.id, r.passengerID, eventType)
}

func (r *Ride) Clone() *Ride {
	return RestoreRide(r.id, r.passengerID, r.driverID, r.departure, r.destination, r.created)
}

type rideView struct {
	ID          uuid.UUID  `json:"id"`
	PassengerID uuid.UUID  `json:"passenger_id"`
	DriverID    *uuid.UUID `json:"driver_id,omitempty"`
	Departure   Location   `json:"departure"`
	Destination *Location  `json:"destination,omitempty"`
	Created     time.Time  `json:"created"`
}

func (r *Ride) MarshalJSON() ([]byte, error) {
	return json.Marshal(rideView{
		ID:          r.id,
		PassengerID: r.passengerID,
		DriverID:    r.driverID,
		Departure:   r.departure,
		Destination: r.destination,
		Created:     r.created,
	})
}

func (r *Ride) UnmarshalJSON(data []byte) error {
	var v rideView
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = *RestoreRide(v.ID, v.PassengerID, v.DriverID, v.Departure, v.Destination, v.Created)
	return nil
}
