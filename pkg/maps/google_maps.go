package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

// NewGoogleMapsProvider builds a client for apiKey. baseURL overrides the
// Google endpoint and may be empty.
func NewGoogleMapsProvider(apiKey, baseURL string) (*GoogleMapsProvider, error) {
	options := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if baseURL != "" {
		options = append(options, maps.WithBaseURL(baseURL))
	}

	client, err := maps.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) Geocode(ctx context.Context, address string) (*GeocodeResponse, error) {
	resp, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
	})
	if err != nil {
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}
	return toGeocodeResponse(resp), nil
}

func (g *GoogleMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodeResponse, error) {
	resp, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding failed: %w", err)
	}
	return toGeocodeResponse(resp), nil
}

func toGeocodeResponse(resp []maps.GeocodingResult) *GeocodeResponse {
	results := make([]GeocodeResult, len(resp))
	for i, result := range resp {
		results[i] = GeocodeResult{
			PlaceID: result.PlaceID,
			Address: result.FormattedAddress,
			Coordinates: Location{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
			Types: result.Types,
		}
	}
	return &GeocodeResponse{Results: results}
}
