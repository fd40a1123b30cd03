package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/config"
	"ridelifecycle/internal/models"
	"ridelifecycle/internal/repositories/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRideService_NewRide(t *testing.T) {
	f := newFixture(t)
	ride := f.requestedRide(t)

	assert.Equal(t, models.RideEventRequested, f.status(t, ride))
	assert.False(t, ride.HasDriver())
	assert.True(t, ride.IsPassenger(f.passenger.ID))

	history := f.history(t, ride)
	require.Len(t, history, 1)
	assert.Equal(t, f.passenger.ID, history[0].ActorID)
	assert.Equal(t, int64(1), history[0].Sequence)
}

func TestRideService_NewRideRequiresPassengerRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.rides.NewRide(context.Background(), f.driver1, departure)
	assert.ErrorIs(t, err, apperrors.ErrRoleMismatch)
}

func TestRideService_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ride := f.requestedRide(t)

	ride, err := f.rides.AssignDestinationToRide(ctx, ride, destination)
	require.NoError(t, err)
	assert.True(t, ride.IsDestinedFor(destination))
	assert.Equal(t, models.RideEventRequested, f.status(t, ride))

	ride, err = f.rides.AcceptRide(ctx, ride, f.driver1)
	require.NoError(t, err)
	assert.Equal(t, models.RideEventAccepted, f.status(t, ride))
	assert.True(t, ride.IsDrivenBy(f.driver1.ID))

	_, err = f.rides.MarkRideInProgress(ctx, ride, f.driver2)
	assert.ErrorIs(t, err, apperrors.ErrActorMismatch)
	assert.Equal(t, models.RideEventAccepted, f.status(t, ride))

	ride, err = f.rides.MarkRideInProgress(ctx, ride, f.driver1)
	require.NoError(t, err)
	assert.Equal(t, models.RideEventInProgress, f.status(t, ride))

	ride, err = f.rides.MarkRideCompleted(ctx, ride, f.driver1)
	require.NoError(t, err)
	assert.Equal(t, models.RideEventCompleted, f.status(t, ride))
	assert.True(t, ride.IsDrivenBy(f.driver1.ID))

	history := f.history(t, ride)
	require.Len(t, history, 4)
	for i, event := range history {
		assert.Equal(t, int64(i+1), event.Sequence)
	}
	assert.Equal(t, history[len(history)-1].Type, f.status(t, ride))
	assert.Equal(t, f.driver1.ID, history[3].ActorID)

	assert.Equal(t, []models.RideEventType{
		models.RideEventRequested,
		models.RideEventAccepted,
		models.RideEventInProgress,
		models.RideEventCompleted,
	}, f.publisher.published())
}

func TestRideService_AcceptTwice(t *testing.T) {
	f := newFixture(t)
	ride := f.acceptedRide(t)

	_, err := f.rides.AcceptRide(context.Background(), ride, f.driver1)
	assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)

	_, err = f.rides.AcceptRide(context.Background(), ride, f.driver2)
	assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)

	current, err := f.rides.GetRide(context.Background(), ride.ID())
	require.NoError(t, err)
	assert.True(t, current.IsDrivenBy(f.driver1.ID))
	assert.Len(t, f.history(t, ride), 2)
}

func TestRideService_AcceptPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ride := f.requestedRide(t)

	_, err := f.rides.AcceptRide(ctx, ride, f.driver1)
	assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation, "destination is required")

	ride, err = f.rides.AssignDestinationToRide(ctx, ride, destination)
	require.NoError(t, err)

	_, err = f.rides.AcceptRide(ctx, ride, f.outsider)
	assert.ErrorIs(t, err, apperrors.ErrRoleMismatch)

	current, err := f.rides.GetRide(ctx, ride.ID())
	require.NoError(t, err)
	assert.False(t, current.HasDriver())
	assert.Equal(t, models.RideEventRequested, f.status(t, ride))
}

func TestRideService_UsesStoredRideNotCallerSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stale := f.requestedRide(t)

	_, err := f.rides.AssignDestinationToRide(ctx, stale, destination)
	require.NoError(t, err)

	ride, err := f.rides.AcceptRide(ctx, stale, f.driver1)
	require.NoError(t, err)
	assert.True(t, ride.IsDestinedFor(destination))
}

func TestRideService_DriverRulesAfterAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ride := f.acceptedRide(t)

	_, err := f.rides.MarkRideInProgress(ctx, ride, f.outsider)
	assert.ErrorIs(t, err, apperrors.ErrRoleMismatch)

	_, err = f.rides.MarkRideCompleted(ctx, ride, f.driver1)
	assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)

	ride = f.inProgressRide(t)
	_, err = f.rides.MarkRideCompleted(ctx, ride, f.driver2)
	assert.ErrorIs(t, err, apperrors.ErrActorMismatch)
	assert.Equal(t, models.RideEventInProgress, f.status(t, ride))
}

func TestRideService_RejectRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ride := f.requestedRide(t)

	_, err := f.rides.RejectRide(ctx, ride, f.outsider)
	assert.ErrorIs(t, err, apperrors.ErrRoleMismatch)

	ride, err = f.rides.RejectRide(ctx, ride, f.driver2)
	require.NoError(t, err)
	assert.Equal(t, models.RideEventRejected, f.status(t, ride))
	assert.False(t, ride.HasDriver())

	_, err = f.rides.RejectRide(ctx, f.acceptedRide(t), f.driver2)
	assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)
}

func TestRideService_TerminalStatesRejectEverything(t *testing.T) {
	ctx := context.Background()

	terminal := map[string]func(f *fixture, t *testing.T) *models.Ride{
		"completed": func(f *fixture, t *testing.T) *models.Ride {
			ride, err := f.rides.MarkRideCompleted(ctx, f.inProgressRide(t), f.driver1)
			require.NoError(t, err)
			return ride
		},
		"cancelled": func(f *fixture, t *testing.T) *models.Ride {
			ride, err := f.rides.CancelRide(ctx, f.acceptedRide(t), f.passenger)
			require.NoError(t, err)
			return ride
		},
		"rejected": func(f *fixture, t *testing.T) *models.Ride {
			ride, err := f.rides.RejectRide(ctx, f.requestedRide(t), f.driver1)
			require.NoError(t, err)
			return ride
		},
	}

	for name, build := range terminal {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ride := build(f, t)
			before := f.status(t, ride)
			require.True(t, before.IsTerminal())

			attempts := map[string]func() error{
				"accept": func() error { _, err := f.rides.AcceptRide(ctx, ride, f.driver1); return err },
				"start":  func() error { _, err := f.rides.MarkRideInProgress(ctx, ride, f.driver1); return err },
				"finish": func() error { _, err := f.rides.MarkRideCompleted(ctx, ride, f.driver1); return err },
				"reject": func() error { _, err := f.rides.RejectRide(ctx, ride, f.driver2); return err },
				"cancel": func() error { _, err := f.rides.CancelRide(ctx, ride, f.passenger); return err },
				"destination": func() error {
					_, err := f.rides.AssignDestinationToRide(ctx, ride, departure)
					return err
				},
			}
			for op, attempt := range attempts {
				assert.ErrorIs(t, attempt(), apperrors.ErrLifecycleViolation, op)
			}
			assert.Equal(t, before, f.status(t, ride))
		})
	}
}

func TestRideService_DestinationAfterAccept(t *testing.T) {
	ctx := context.Background()
	elsewhere := models.NewLocation(40.6892, -74.0445)

	t.Run("forbidden by default", func(t *testing.T) {
		f := newFixture(t)
		ride := f.acceptedRide(t)

		_, err := f.rides.AssignDestinationToRide(ctx, ride, elsewhere)
		assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)

		current, err := f.rides.GetRide(ctx, ride.ID())
		require.NoError(t, err)
		assert.True(t, current.IsDestinedFor(destination))
	})

	t.Run("allowed by policy", func(t *testing.T) {
		policy := config.DefaultRidePolicy()
		policy.AllowDestinationChangeAfterAccept = true
		f := newFixture(t, withPolicy(policy))
		ride := f.acceptedRide(t)

		ride, err := f.rides.AssignDestinationToRide(ctx, ride, elsewhere)
		require.NoError(t, err)
		assert.True(t, ride.IsDestinedFor(elsewhere))

		_, err = f.rides.AssignDestinationToRide(ctx, f.inProgressRide(t), elsewhere)
		assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)
	})

	t.Run("reassign before accept", func(t *testing.T) {
		f := newFixture(t)
		ride := f.requestedRide(t)

		_, err := f.rides.AssignDestinationToRide(ctx, ride, destination)
		require.NoError(t, err)
		ride, err = f.rides.AssignDestinationToRide(ctx, ride, elsewhere)
		require.NoError(t, err)
		assert.True(t, ride.IsDestinedFor(elsewhere))
	})
}

func TestRideService_CancelPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("passenger only", func(t *testing.T) {
		policy := config.DefaultRidePolicy()
		policy.CancelActors = config.CancelByPassenger
		f := newFixture(t, withPolicy(policy))
		ride := f.acceptedRide(t)

		_, err := f.rides.CancelRide(ctx, ride, f.driver1)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorizedOperation)

		ride, err = f.rides.CancelRide(ctx, ride, f.passenger)
		require.NoError(t, err)
		assert.Equal(t, models.RideEventCancelled, f.status(t, ride))
	})

	t.Run("driver only", func(t *testing.T) {
		policy := config.DefaultRidePolicy()
		policy.CancelActors = config.CancelByDriver
		f := newFixture(t, withPolicy(policy))
		ride := f.inProgressRide(t)

		_, err := f.rides.CancelRide(ctx, ride, f.passenger)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorizedOperation)

		_, err = f.rides.CancelRide(ctx, ride, f.driver2)
		assert.ErrorIs(t, err, apperrors.ErrActorMismatch)

		ride, err = f.rides.CancelRide(ctx, ride, f.driver1)
		require.NoError(t, err)
		assert.Equal(t, models.RideEventCancelled, f.status(t, ride))
		assert.True(t, ride.IsDrivenBy(f.driver1.ID))
	})

	t.Run("restricted states", func(t *testing.T) {
		policy := config.DefaultRidePolicy()
		policy.CancelFromStates = []models.RideEventType{models.RideEventRequested}
		f := newFixture(t, withPolicy(policy))

		_, err := f.rides.CancelRide(ctx, f.acceptedRide(t), f.passenger)
		assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)

		ride, err := f.rides.CancelRide(ctx, f.requestedRide(t), f.passenger)
		require.NoError(t, err)
		assert.Equal(t, models.RideEventCancelled, f.status(t, ride))
	})
}

func TestRideService_FailedAppendRollsBack(t *testing.T) {
	f := newFixture(t, failAppending(models.RideEventAccepted))
	ctx := context.Background()

	ride := f.requestedRide(t)
	ride, err := f.rides.AssignDestinationToRide(ctx, ride, destination)
	require.NoError(t, err)

	_, err = f.rides.AcceptRide(ctx, ride, f.driver1)
	assert.ErrorIs(t, err, errAppendFailed)

	current, err := f.rides.GetRide(ctx, ride.ID())
	require.NoError(t, err)
	assert.False(t, current.HasDriver())
	assert.Equal(t, models.RideEventRequested, f.status(t, ride))
	assert.Len(t, f.history(t, ride), 1)
	assert.Equal(t, []models.RideEventType{models.RideEventRequested}, f.publisher.published())
}

func TestRideService_StorageConflictIsLifecycleViolation(t *testing.T) {
	f := newFixture(t, loseDriverRace())
	ctx := context.Background()

	ride := f.requestedRide(t)
	ride, err := f.rides.AssignDestinationToRide(ctx, ride, destination)
	require.NoError(t, err)

	_, err = f.rides.AcceptRide(ctx, ride, f.driver1)
	assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)
	assert.NotErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 409, apperrors.StatusCode(err))

	history := f.history(t, ride)
	require.Len(t, history, 1)
	assert.Equal(t, models.RideEventRequested, history[0].Type)
	assert.Equal(t, []models.RideEventType{models.RideEventRequested}, f.publisher.published())
}

func TestRideService_RefusesRideWithoutDriverForStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ride := f.requestedRide(t)

	events := memory.NewRideEventRepository(f.store)
	last, err := events.LastEventForRide(ctx, ride.ID())
	require.NoError(t, err)
	stray := models.NewRideEvent(ride.ID(), f.driver1.ID, models.RideEventAccepted)
	stray.Follow(last)
	require.NoError(t, events.Append(ctx, stray))

	_, err = f.rides.MarkRideInProgress(ctx, ride, f.driver1)
	require.Error(t, err)
	assert.Equal(t, 500, apperrors.StatusCode(err))
	assert.Contains(t, err.Error(), "has no assigned driver")
	assert.Len(t, f.history(t, ride), 2)
}

func TestRideService_PublishFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("redis down")

	ride := f.acceptedRide(t)
	assert.Equal(t, models.RideEventAccepted, f.status(t, ride))
}

func TestRideService_ConcurrentAccept(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newFixture(t)
	ctx := context.Background()
	ride := f.requestedRide(t)
	ride, err := f.rides.AssignDestinationToRide(ctx, ride, destination)
	require.NoError(t, err)

	const contenders = 8
	drivers := make([]*models.User, contenders)
	for i := range drivers {
		drivers[i] = f.createUser(t, fmt.Sprintf("Driver%d", i), models.RoleDriver)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []uuid.UUID
		losers  []error
	)
	for _, driver := range drivers {
		wg.Add(1)
		go func(driver *models.User) {
			defer wg.Done()
			_, err := f.rides.AcceptRide(ctx, ride, driver)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, driver.ID)
			} else {
				losers = append(losers, err)
			}
		}(driver)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	require.Len(t, losers, contenders-1)
	for _, err := range losers {
		assert.ErrorIs(t, err, apperrors.ErrLifecycleViolation)
	}

	current, err := f.rides.GetRide(ctx, ride.ID())
	require.NoError(t, err)
	assert.True(t, current.IsDrivenBy(winners[0]))
	assert.Len(t, f.history(t, ride), 2)
}

func TestRideService_UnknownRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.rides.GetRideStatus(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.rides.GetRide(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.rides.GetRideHistory(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	unsaved := models.NewRide(f.passenger.ID, departure)
	_, err = f.rides.AcceptRide(ctx, unsaved, f.driver1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
