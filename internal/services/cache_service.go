package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/models"
	"ridelifecycle/pkg/cache"
	"ridelifecycle/pkg/logger"

	"github.com/google/uuid"
)

const defaultLockWait = 2 * time.Second

// RideLocker serializes mutations of a single ride.
type RideLocker interface {
	Lock(ctx context.Context, rideID uuid.UUID) (unlock func(), err error)
}

// EventPublisher announces committed ride events.
type EventPublisher interface {
	PublishRideEvent(ctx context.Context, event *models.RideEvent) error
}

func rideLockKey(rideID uuid.UUID) string {
	return fmt.Sprintf("lock:ride:%s", rideID)
}

func rideBusy(rideID uuid.UUID) error {
	return apperrors.Lifecycle("ride %s is being updated concurrently", rideID)
}

type redisRideLocker struct {
	cache  *cache.RedisCache
	ttl    time.Duration
	wait   time.Duration
	logger *logger.Logger
}

func NewRedisRideLocker(cache *cache.RedisCache, ttl, wait time.Duration, logger *logger.Logger) RideLocker {
	return &redisRideLocker{
		cache:  cache,
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

func (l *redisRideLocker) Lock(ctx context.Context, rideID uuid.UUID) (func(), error) {
	lock, err := l.cache.AcquireLock(ctx, rideLockKey(rideID), l.ttl, l.wait)
	if err != nil {
		if errors.Is(err, cache.ErrLockTimeout) {
			return nil, rideBusy(rideID)
		}
		return nil, fmt.Errorf("failed to lock ride: %w", err)
	}

	return func() {
		// The caller's context may already be done; the release must still run.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			l.logger.WithRideID(rideID).WithError(err).Warn("Failed to release ride lock")
		}
	}, nil
}

type localLock struct {
	ch   chan struct{}
	refs int
}

type localRideLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*localLock
	wait  time.Duration
}

// NewLocalRideLocker serializes rides within this process only.
func NewLocalRideLocker(wait time.Duration) RideLocker {
	return &localRideLocker{
		locks: make(map[uuid.UUID]*localLock),
		wait:  wait,
	}
}

func (l *localRideLocker) Lock(ctx context.Context, rideID uuid.UUID) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[rideID]
	if !ok {
		lock = &localLock{ch: make(chan struct{}, 1)}
		l.locks[rideID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case lock.ch <- struct{}{}:
		return func() {
			<-lock.ch
			l.release(rideID, lock)
		}, nil
	case <-timer.C:
		l.release(rideID, lock)
		return nil, rideBusy(rideID)
	case <-ctx.Done():
		l.release(rideID, lock)
		return nil, ctx.Err()
	}
}

func (l *localRideLocker) release(rideID uuid.UUID, lock *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, rideID)
	}
}

type redisEventPublisher struct {
	cache   *cache.RedisCache
	channel string
}

// NewRedisEventPublisher publishes every event on channel and on channel:<ride id>.
func NewRedisEventPublisher(cache *cache.RedisCache, channel string) EventPublisher {
	return &redisEventPublisher{cache: cache, channel: channel}
}

func RideChannel(channel string, rideID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", channel, rideID)
}

func (p *redisEventPublisher) PublishRideEvent(ctx context.Context, event *models.RideEvent) error {
	if err := p.cache.Publish(ctx, p.channel, event); err != nil {
		return err
	}
	return p.cache.Publish(ctx, RideChannel(p.channel, event.RideID), event)
}

type noopEventPublisher struct{}

func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) PublishRideEvent(context.Context, *models.RideEvent) error {
	return nil
}
