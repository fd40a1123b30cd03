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

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(usersCollection),
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.collection.InsertOne(ctx, toUserDocument(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel()
}

// AddRole pushes role onto a user holding neither passenger nor driver.
func (r *userRepository) AddRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	exclusive := bson.A{string(models.RolePassenger), string(models.RoleDriver)}
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id.String(), "roles": bson.M{"$nin": exclusive}},
		bson.M{"$push": bson.M{"roles": string(role)}},
	)
	if err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if count == 0 {
		return apperrors.ErrUserNotFound
	}
	return fmt.Errorf("%w: user already holds a role, cannot add %s", apperrors.ErrDuplicateRoleAssignment, role)
}
