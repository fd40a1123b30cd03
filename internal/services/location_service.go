package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/models"
	"ridelifecycle/pkg/maps"
)

// LocationInput is a caller-supplied place: coordinates, an address, or both.
type LocationInput struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	Address   string   `json:"address" validate:"omitempty,max=500"`
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Location, error)
}

type LocationService interface {
	Resolve(ctx context.Context, input LocationInput) (models.Location, error)
}

type locationService struct {
	geocoder Geocoder
}

// NewLocationService resolves addresses through geocoder; a nil geocoder
// accepts coordinates only.
func NewLocationService(geocoder Geocoder) LocationService {
	return &locationService{geocoder: geocoder}
}

func (s *locationService) Resolve(ctx context.Context, input LocationInput) (models.Location, error) {
	address := strings.TrimSpace(input.Address)

	if input.Latitude != nil && input.Longitude != nil {
		lat, lng := *input.Latitude, *input.Longitude
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return models.Location{}, apperrors.Invalid("coordinates out of range: %v,%v", lat, lng)
		}
		location := models.NewLocation(lat, lng)
		location.Address = address
		return location, nil
	}

	if address == "" {
		return models.Location{}, apperrors.Invalid("location needs coordinates or an address")
	}
	if s.geocoder == nil {
		return models.Location{}, apperrors.Invalid("address lookup is not configured")
	}

	location, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, maps.ErrNoResults) {
			return models.Location{}, apperrors.Invalid("no match for address %q", address)
		}
		return models.Location{}, fmt.Errorf("failed to geocode %q: %w", address, err)
	}
	return location, nil
}

type mapsGeocoder struct {
	provider maps.Geocoder
}

// NewMapsGeocoder resolves addresses to the provider's best match.
func NewMapsGeocoder(provider maps.Geocoder) Geocoder {
	return &mapsGeocoder{provider: provider}
}

func (g *mapsGeocoder) Geocode(ctx context.Context, address string) (models.Location, error) {
	resp, err := g.provider.Geocode(ctx, address)
	if err != nil {
		return models.Location{}, err
	}
	best, err := resp.Best()
	if err != nil {
		return models.Location{}, err
	}

	location := models.NewLocation(best.Coordinates.Latitude, best.Coordinates.Longitude)
	location.Address = best.Address
	location.PlaceID = best.PlaceID
	return location, nil
}
