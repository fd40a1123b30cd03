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
)

type rideRepository struct {
	collection *mongo.Collection
}

func NewRideRepository(db *mongo.Database) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection(ridesCollection),
	}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	_, err := r.collection.InsertOne(ctx, toRideDocument(ride))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create ride: %w", err)
	}
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	var doc rideDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrRideNotFound
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return doc.toModel()
}

func (r *rideRepository) AssignDestination(ctx context.Context, id uuid.UUID, destination models.Location) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"destination": destination}},
	)
	if err != nil {
		return fmt.Errorf("failed to assign destination: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrRideNotFound
	}
	return nil
}

func (r *rideRepository) AssignDriver(ctx context.Context, id uuid.UUID, driverID uuid.UUID) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id.String(), "driver_id": nil},
		bson.M{"$set": bson.M{"driver_id": driverID.String()}},
	)
	if err != nil {
		return fmt.Errorf("failed to assign driver: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to check ride: %w", err)
	}
	if count == 0 {
		return apperrors.ErrRideNotFound
	}
	return apperrors.ErrConflict
}
