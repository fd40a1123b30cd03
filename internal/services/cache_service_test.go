package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/models"
	"ridelifecycle/pkg/cache"
	"ridelifecycle/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewRedisCacheFromClient(client)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLocalRideLocker(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	locker := NewLocalRideLocker(50 * time.Millisecond)
	ctx := context.Background()
	rideID := uuid.New()

	unlock, err := locker.Lock(ctx, rideID)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, rideID)
	assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)

	other, err := locker.Lock(ctx, uuid.New())
	require.NoError(t, err)
	other()

	unlock()
	again, err := locker.Lock(ctx, rideID)
	require.NoError(t, err)
	again()

	assert.Empty(t, locker.(*localRideLocker).locks)
}

func TestLocalRideLocker_ContextCanceled(t *testing.T) {
	locker := NewLocalRideLocker(time.Second)
	rideID := uuid.New()

	unlock, err := locker.Lock(context.Background(), rideID)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Lock(ctx, rideID)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisRideLocker(t *testing.T) {
	redisCache := newTestRedis(t)
	locker := NewRedisRideLocker(redisCache, time.Second, 50*time.Millisecond, logger.Nop())
	ctx := context.Background()
	rideID := uuid.New()

	unlock, err := locker.Lock(ctx, rideID)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, rideID)
	assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)

	unlock()
	again, err := locker.Lock(ctx, rideID)
	require.NoError(t, err)
	again()
}

func TestRedisEventPublisher(t *testing.T) {
	redisCache := newTestRedis(t)
	publisher := NewRedisEventPublisher(redisCache, "ride_events")
	ctx := context.Background()

	event := models.NewRideEvent(uuid.New(), uuid.New(), models.RideEventAccepted)
	event.Follow(nil)

	sub := redisCache.Subscribe(ctx, "ride_events", RideChannel("ride_events", event.RideID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, publisher.PublishRideEvent(ctx, event))

	for _, want := range []string{"ride_events", RideChannel("ride_events", event.RideID)} {
		msg, err := sub.ReceiveMessage(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, msg.Channel)

		var got models.RideEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, models.RideEventAccepted, got.Type)
	}
}

func TestNoopEventPublisher(t *testing.T) {
	assert.NoError(t, NewNoopEventPublisher().PublishRideEvent(context.Background(), &models.RideEvent{}))
}
