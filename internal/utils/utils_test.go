package utils

import (
	"testing"
	"time"

	"ridelifecycle/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID, "secret", AppName, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateToken(userID, "secret", AppName, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired, "secret")
	assert.Error(t, err)

	_, err = ValidateToken("not.a.token", "secret")
	assert.Error(t, err)
}

func TestValidateStruct(t *testing.T) {
	type request struct {
		Role     string          `json:"role" validate:"required,role"`
		Location models.Location `json:"location"`
	}

	valid := request{Role: "driver", Location: models.NewLocation(10, 20)}
	assert.NoError(t, ValidateStruct(valid))

	invalid := request{Role: "pilot", Location: models.Location{Coordinates: []float64{200, 0}}}
	err := ValidateStruct(invalid)
	require.Error(t, err)

	details := ValidationDetails(err)
	assert.Equal(t, "role", details["role"])
	assert.Equal(t, "coordinates", details["coordinates"])
}
