package services

import (
	"context"
	"errors"
	"fmt"

	"ridelifecycle/internal/models"
	"ridelifecycle/pkg/websocket"

	"github.com/google/uuid"
)

const rideEventMessage = "ride_event"

// RideRoom is the stream room carrying one ride's events.
func RideRoom(rideID uuid.UUID) string {
	return fmt.Sprintf("ride:%s", rideID)
}

type hubEventPublisher struct {
	hub *websocket.Hub
}

// NewHubEventPublisher pushes committed events to the ride's stream subscribers.
func NewHubEventPublisher(hub *websocket.Hub) EventPublisher {
	return &hubEventPublisher{hub: hub}
}

func (p *hubEventPublisher) PublishRideEvent(ctx context.Context, event *models.RideEvent) error {
	ok := p.hub.Broadcast(ctx, &websocket.Message{
		Type:      rideEventMessage,
		Room:      RideRoom(event.RideID),
		Timestamp: event.Timestamp.Unix(),
		Data:      event,
	})
	if !ok {
		return websocket.ErrHubStopped
	}
	return nil
}

type multiEventPublisher struct {
	publishers []EventPublisher
}

// NewMultiEventPublisher publishes to every publisher, joining their errors.
func NewMultiEventPublisher(publishers ...EventPublisher) EventPublisher {
	return &multiEventPublisher{publishers: publishers}
}

func (p *multiEventPublisher) PublishRideEvent(ctx context.Context, event *models.RideEvent) error {
	var errs []error
	for _, publisher := range p.publishers {
		if err := publisher.PublishRideEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
