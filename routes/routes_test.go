package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ridelifecycle/internal/handlers/shared"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRoutesRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	SetupUserRoutes(api, shared.NewUserHandler(nil), "secret")
	SetupRideRoutes(api, shared.NewRideHandler(nil, nil, nil, nil), "secret")
	SetupStreamRoutes(api, shared.NewRideStreamHandler(nil, nil, nil), "secret")

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/rides"},
		{http.MethodGet, "/api/v1/rides/abc"},
		{http.MethodGet, "/api/v1/rides/abc/status"},
		{http.MethodGet, "/api/v1/rides/abc/events"},
		{http.MethodPut, "/api/v1/rides/abc/destination"},
		{http.MethodPut, "/api/v1/rides/abc/events/accepted"},
		{http.MethodGet, "/api/v1/rides/abc/stream"},
		{http.MethodGet, "/api/v1/users/abc"},
		{http.MethodPost, "/api/v1/users/abc/roles"},
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(route.method, route.path, strings.NewReader("{}")))
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.method+" "+route.path)
	}
}
