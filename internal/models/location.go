package models

import "math"

const coordinateTolerance = 1e-7

// Location is an opaque GeoJSON-style point. Coordinates are [longitude, latitude].
type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,len=2,coordinates"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	PlaceID     string    `json:"place_id,omitempty" bson:"place_id,omitempty"`
}

func NewLocation(lat, lng float64) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
	}
}

func (l Location) Latitude() float64 {
	if len(l.Coordinates) >= 2 {
		return l.Coordinates[1]
	}
	return 0
}

func (l Location) Longitude() float64 {
	if len(l.Coordinates) >= 1 {
		return l.Coordinates[0]
	}
	return 0
}

// IsSameAs compares coordinates only; address text and place ids are ignored.
func (l Location) IsSameAs(other Location) bool {
	if len(l.Coordinates) != 2 || len(other.Coordinates) != 2 {
		return false
	}
	return math.Abs(l.Latitude()-other.Latitude()) < coordinateTolerance &&
		math.Abs(l.Longitude()-other.Longitude()) < coordinateTolerance
}

func (l Location) clone() Location {
	c := l
	if l.Coordinates != nil {
		c.Coordinates = append([]float64(nil), l.Coordinates...)
	}
	return c
}
