package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(t *testing.T, format string) (*Logger, *bytes.Buffer) {
	t.Helper()

	l, err := NewLogger(&Config{Level: DebugLevel, Format: format, AppName: "ridelifecycle", Version: "test"})
	require.NoError(t, err)

	var buf bytes.Buffer
	l.SetOutput(&buf)
	return l, &buf
}

func TestJSONFormatter(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")
	rideID := uuid.New()

	l.WithRideID(rideID).WithError(errors.New("boom")).Warn("transition denied")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "transition denied", entry["message"])
	assert.Equal(t, "ridelifecycle", entry["app"])
	assert.Equal(t, "test", entry["version"])
	assert.Equal(t, rideID.String(), entry["ride_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestTextFormatter(t *testing.T) {
	l, buf := newBufferedLogger(t, "text")

	l.WithFields(map[string]interface{}{"b": 2, "a": 1}).Info("hello")

	out := buf.String()
	assert.Contains(t, out, "[INFO] [ridelifecycle] hello a=1 b=2")
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")

	child := l.WithField("k", "v")
	l.Info("parent")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "k")
	assert.NotNil(t, child)
}

func TestWithContext(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")
	userID := uuid.New()

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, userID)
	l.WithContext(ctx).Info("scoped")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, userID.String(), entry["user_id"])
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferedLogger(t, "json")
	l.SetLevel(WarnLevel)

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.LogSecurityEvent("authorization_denied", "medium", map[string]interface{}{"reason": "actor"})
	assert.Contains(t, buf.String(), "authorization_denied")
}
