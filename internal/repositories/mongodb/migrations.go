package mongodb

import (
	"context"

	"ridelifecycle/internal/models"
	"ridelifecycle/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Migrations returns the schema history for the ride store, oldest first.
func Migrations() []database.Migration {
	return []database.Migration{
		{
			Version:     1,
			Description: "Create ride indexes",
			Up:          createRideIndexes,
			Down:        dropIndexes(ridesCollection),
		},
		{
			Version:     2,
			Description: "Create ride event indexes",
			Up:          createRideEventIndexes,
			Down:        dropIndexes(rideEventsCollection),
		},
		{
			Version:     3,
			Description: "Seed ride event types",
			Up:          seedRideEventTypes,
			Down: func(ctx context.Context, db *mongo.Database) error {
				return db.Collection(rideEventTypesCollection).Drop(ctx)
			},
		},
		{
			Version:     4,
			Description: "Create user indexes",
			Up:          createUserIndexes,
			Down:        dropIndexes(usersCollection),
		},
	}
}

func createRideIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(ridesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "passenger_id", Value: 1}}},
		{Keys: bson.D{{Key: "driver_id", Value: 1}}},
		{Keys: bson.D{{Key: "created", Value: -1}}},
	})
	return err
}

func createRideEventIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(rideEventsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ride_id", Value: 1}, {Key: "sequence", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "ride_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}}},
	})
	return err
}

func seedRideEventTypes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(rideEventTypesCollection)
	for _, t := range models.AllRideEventTypes() {
		_, err := collection.ReplaceOne(
			ctx,
			bson.M{"_id": t.ID()},
			bson.M{"_id": t.ID(), "name": t.String()},
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func createUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "roles", Value: 1}}},
		{Keys: bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}}},
	})
	return err
}

func dropIndexes(collection string) func(ctx context.Context, db *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().DropAll(ctx)
		return err
	}
}
