package services

import (
	"context"
	"errors"
	"testing"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/pkg/maps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	resp *maps.GeocodeResponse
	err  error
}

func (s *stubGeocoder) Geocode(context.Context, string) (*maps.GeocodeResponse, error) {
	return s.resp, s.err
}

func (s *stubGeocoder) ReverseGeocode(context.Context, float64, float64) (*maps.GeocodeResponse, error) {
	return s.resp, s.err
}

func float(v float64) *float64 { return &v }

func TestLocationService_Coordinates(t *testing.T) {
	svc := NewLocationService(nil)

	location, err := svc.Resolve(context.Background(), LocationInput{
		Latitude:  float(51.5074),
		Longitude: float(-0.1278),
		Address:   "London",
	})
	require.NoError(t, err)
	assert.InDelta(t, 51.5074, location.Latitude(), 1e-9)
	assert.InDelta(t, -0.1278, location.Longitude(), 1e-9)
	assert.Equal(t, "London", location.Address)

	_, err = svc.Resolve(context.Background(), LocationInput{Latitude: float(91), Longitude: float(0)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Resolve(context.Background(), LocationInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Resolve(context.Background(), LocationInput{Address: "10 Downing St"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "no geocoder configured")
}

func TestLocationService_Geocodes(t *testing.T) {
	geocoder := &stubGeocoder{resp: &maps.GeocodeResponse{Results: []maps.GeocodeResult{{
		PlaceID:     "place-42",
		Address:     "10 Downing St, London",
		Coordinates: maps.Location{Latitude: 51.5034, Longitude: -0.1276},
	}}}}
	svc := NewLocationService(NewMapsGeocoder(geocoder))

	location, err := svc.Resolve(context.Background(), LocationInput{Address: "10 Downing St"})
	require.NoError(t, err)
	assert.Equal(t, "place-42", location.PlaceID)
	assert.Equal(t, "10 Downing St, London", location.Address)
	assert.InDelta(t, 51.5034, location.Latitude(), 1e-9)

	geocoder.resp = &maps.GeocodeResponse{}
	_, err = svc.Resolve(context.Background(), LocationInput{Address: "Atlantis"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	boom := errors.New("quota exceeded")
	geocoder.err = boom
	_, err = svc.Resolve(context.Background(), LocationInput{Address: "Atlantis"})
	assert.ErrorIs(t, err, boom)
}
