package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *GoogleMapsProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewGoogleMapsProvider("test-key", server.URL)
	require.NoError(t, err)
	return provider
}

func TestGoogleMapsProvider_Geocode(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "Alexanderplatz, Berlin", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"place_id": "place-1",
				"formatted_address": "Alexanderplatz, 10178 Berlin, Germany",
				"geometry": {"location": {"lat": 52.5219, "lng": 13.4132}},
				"types": ["route"]
			}]
		}`))
	})

	resp, err := provider.Geocode(context.Background(), "Alexanderplatz, Berlin")
	require.NoError(t, err)

	best, err := resp.Best()
	require.NoError(t, err)
	assert.Equal(t, "place-1", best.PlaceID)
	assert.Equal(t, "Alexanderplatz, 10178 Berlin, Germany", best.Address)
	assert.InDelta(t, 52.5219, best.Coordinates.Latitude, 1e-9)
	assert.InDelta(t, 13.4132, best.Coordinates.Longitude, 1e-9)
}

func TestGoogleMapsProvider_ZeroResults(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	resp, err := provider.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)

	_, err = resp.Best()
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestGoogleMapsProvider_Error(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "bad key", "results": []}`))
	})

	_, err := provider.Geocode(context.Background(), "anywhere")
	assert.Error(t, err)
}

func TestNewGoogleMapsProvider_RequiresKey(t *testing.T) {
	_, err := NewGoogleMapsProvider("", "")
	assert.Error(t, err)
}
