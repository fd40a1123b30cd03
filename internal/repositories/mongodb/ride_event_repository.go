package mongodb

import (
	"context"
	"errors"
	"fmt"

	"ridelifecycle/internal/apperrors"
	"ridelifecycle/internal/models"
	"ridelifecycle/internal/repositories/interfaces"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rideEventRepository struct {
	collection *mongo.Collection
}

func NewRideEventRepository(db *mongo.Database) interfaces.RideEventRepository {
	return &rideEventRepository{
		collection: db.Collection(rideEventsCollection),
	}
}

// Append relies on the unique (ride_id, sequence) index to reject a second
// writer that read the same latest event.
func (r *rideEventRepository) Append(ctx context.Context, event *models.RideEvent) error {
	_, err := r.collection.InsertOne(ctx, toRideEventDocument(event))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to append ride event: %w", err)
	}
	return nil
}

func (r *rideEventRepository) LastEventForRide(ctx context.Context, rideID uuid.UUID) (*models.RideEvent, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "timestamp", Value: -1},
		{Key: "sequence", Value: -1},
	})

	var doc rideEventDocument
	err := r.collection.FindOne(ctx, bson.M{"ride_id": rideID.String()}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrRideEventNotFound
		}
		return nil, fmt.Errorf("failed to get last ride event: %w", err)
	}
	return doc.toModel()
}

func (r *rideEventRepository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*models.RideEvent, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: 1},
		{Key: "sequence", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{"ride_id": rideID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list ride events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []rideEventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode ride events: %w", err)
	}

	events := make([]*models.RideEvent, 0, len(docs))
	for _, doc := range docs {
		event, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
