package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/config"
	"ridelifecycle/internal/models"
	"ridelifecycle/internal/repositories/interfaces"
	"ridelifecycle/internal/repositories/memory"
	"ridelifecycle/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	departure   = models.NewLocation(40.7128, -74.0060)
	destination = models.NewLocation(40.7580, -73.9855)
)

type fixture struct {
	store       *memory.Store
	rides       RideService
	users       UserService
	transitions RideTransitionService
	publisher   *recordingPublisher

	passenger *models.User
	driver1   *models.User
	driver2   *models.User
	outsider  *models.User
}

type fixtureOption func(*RideServiceDeps)

func withPolicy(policy *config.RidePolicyConfig) fixtureOption {
	return func(d *RideServiceDeps) { d.Policy = policy }
}

func withEventRepo(wrap func(interfaces.RideEventRepository) interfaces.RideEventRepository) fixtureOption {
	return func(d *RideServiceDeps) { d.EventRepo = wrap(d.EventRepo) }
}

func withRideRepo(wrap func(interfaces.RideRepository) interfaces.RideRepository) fixtureOption {
	return func(d *RideServiceDeps) { d.RideRepo = wrap(d.RideRepo) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	store := memory.NewStore()
	log := logger.Nop()
	publisher := &recordingPublisher{}

	deps := RideServiceDeps{
		RideRepo:   memory.NewRideRepository(store),
		EventRepo:  memory.NewRideEventRepository(store),
		Transactor: store,
		Locker:     NewLocalRideLocker(defaultLockWait),
		Publisher:  publisher,
		Policy:     config.DefaultRidePolicy(),
		Logger:     log,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	users := NewUserService(memory.NewUserRepository(store), log)
	rides := NewRideService(deps)

	f := &fixture{
		store:       store,
		rides:       rides,
		users:       users,
		transitions: NewRideTransitionService(rides, users, log),
		publisher:   publisher,
	}
	f.passenger = f.createUser(t, "Paula", models.RolePassenger)
	f.driver1 = f.createUser(t, "Dmitri", models.RoleDriver)
	f.driver2 = f.createUser(t, "Dana", models.RoleDriver)
	f.outsider = f.createUser(t, "Otto", models.RolePassenger)
	return f
}

func (f *fixture) createUser(t *testing.T, name string, roles ...models.Role) *models.User {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), name, "Tester", roles)
	require.NoError(t, err)
	return user
}

func (f *fixture) requestedRide(t *testing.T) *models.Ride {
	t.Helper()
	ride, err := f.rides.NewRide(context.Background(), f.passenger, departure)
	require.NoError(t, err)
	return ride
}

func (f *fixture) acceptedRide(t *testing.T) *models.Ride {
	t.Helper()
	ctx := context.Background()
	ride := f.requestedRide(t)
	ride, err := f.rides.AssignDestinationToRide(ctx, ride, destination)
	require.NoError(t, err)
	ride, err = f.rides.AcceptRide(ctx, ride, f.driver1)
	require.NoError(t, err)
	return ride
}

func (f *fixture) inProgressRide(t *testing.T) *models.Ride {
	t.Helper()
	ride, err := f.rides.MarkRideInProgress(context.Background(), f.acceptedRide(t), f.driver1)
	require.NoError(t, err)
	return ride
}

func (f *fixture) status(t *testing.T, ride *models.Ride) models.RideEventType {
	t.Helper()
	status, err := f.rides.GetRideStatus(context.Background(), ride.ID())
	require.NoError(t, err)
	return status
}

func (f *fixture) history(t *testing.T, ride *models.Ride) []*models.RideEvent {
	t.Helper()
	events, err := f.rides.GetRideHistory(context.Background(), ride.ID())
	require.NoError(t, err)
	return events
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.RideEvent
	err    error
}

func (p *recordingPublisher) PublishRideEvent(_ context.Context, event *models.RideEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) published() []models.RideEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]models.RideEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// failingEventRepo fails every append of the given type.
type failingEventRepo struct {
	interfaces.RideEventRepository
	failOn models.RideEventType
}

var errAppendFailed = errors.New("append failed")

func (r *failingEventRepo) Append(ctx context.Context, event *models.RideEvent) error {
	if event.Type == r.failOn {
		return errAppendFailed
	}
	return r.RideEventRepository.Append(ctx, event)
}

func failAppending(eventType models.RideEventType) fixtureOption {
	return withEventRepo(func(repo interfaces.RideEventRepository) interfaces.RideEventRepository {
		return &failingEventRepo{RideEventRepository: repo, failOn: eventType}
	})
}

// racingRideRepo reports a lost driver-assignment race, as a storage
// backend does when another writer got the conditional update in first.
type racingRideRepo struct {
	interfaces.RideRepository
}

func (r *racingRideRepo) AssignDriver(context.Context, uuid.UUID, uuid.UUID) error {
	return apperrors.ErrConflict
}

func loseDriverRace() fixtureOption {
	return withRideRepo(func(repo interfaces.RideRepository) interfaces.RideRepository {
		return &racingRideRepo{RideRepository: repo}
	})
}

func asCaller(user *models.User) context.Context {
	return WithCaller(context.Background(), user.ID)
}

func idOf(user *models.User) *uuid.UUID {
	id := user.ID
	return &id
}
