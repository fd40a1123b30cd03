package memory

import (
	"context"
	"sync"

	"ridelifecycle/internal/models"

	"github.com/google/uuid"
)

type txKey struct{}

// Store is a process-local backend for the ride, event and user repositories.
// Transactions are serialized; a failed transaction restores the snapshot
// taken when it began. Reads and writes made outside a transaction wait for
// any running transaction to finish, so a rollback never discards a write
// and no reader observes state that is later rolled back.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	rides  map[uuid.UUID]*models.Ride
	events map[uuid.UUID][]*models.RideEvent
	users  map[uuid.UUID]*models.User
}

type snapshot struct {
	rides  map[uuid.UUID]*models.Ride
	events map[uuid.UUID][]*models.RideEvent
	users  map[uuid.UUID]*models.User
}

func NewStore() *Store {
	return &Store{
		rides:  make(map[uuid.UUID]*models.Ride),
		events: make(map[uuid.UUID][]*models.RideEvent),
		users:  make(map[uuid.UUID]*models.User),
	}
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTransaction(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func inTransaction(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// write runs fn under the data lock, joining the caller's transaction if any.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTransaction(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// read runs fn under the shared data lock. Outside a transaction it first
// waits for the running transaction, if any, to commit or roll back.
func (s *Store) read(ctx context.Context, fn func()) {
	if !inTransaction(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		rides:  make(map[uuid.UUID]*models.Ride, len(s.rides)),
		events: make(map[uuid.UUID][]*models.RideEvent, len(s.events)),
		users:  make(map[uuid.UUID]*models.User, len(s.users)),
	}
	for id, r := range s.rides {
		snap.rides[id] = r.Clone()
	}
	for id, evs := range s.events {
		snap.events[id] = append([]*models.RideEvent(nil), evs...)
	}
	for id, u := range s.users {
		snap.users[id] = u.Clone()
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rides = snap.rides
	s.events = snap.events
	s.users = snap.users
}
