package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/model"
)

type userDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	model.User `bson:",inline"`
}

func (d *userDoc) toModel() *model.User {
	u := d.User
	u.ID = d.ID.Hex()
	if u.Favorites == nil {
		u.Favorites = []string{}
	}
	return &u
}

// CreateUser inserts a new account. The unique username index reports
// duplicates, which become apperror.Conflict.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Favorites == nil {
		user.Favorites = []string{}
	}

	oid := primitive.NewObjectID()
	if _, err := s.users.InsertOne(ctx, userDoc{ID: oid, User: *user}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("mongo: inserting user %q: %w", user.Username, err)
	}
	user.ID = oid.Hex()
	return nil
}

// GetUserByID retrieves a user by ObjectID hex.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("user", id)
	}
	return s.findUser(ctx, bson.D{{Key: "_id", Value: oid}}, id)
}

// GetUserByUsername retrieves a user by their unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "username", Value: username}}, username)
}

func (s *Store) findUser(ctx context.Context, filter bson.D, key string) (*model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("mongo: getting user %s: %w", key, err)
	}
	return doc.toModel(), nil
}

// AddFavorite uses $addToSet, so adding twice is a no-op.
func (s *Store) AddFavorite(ctx context.Context, userID, restaurantID string) error {
	return s.updateFavorites(ctx, userID, "$addToSet", restaurantID)
}

// RemoveFavorite $pulls restaurantID if present.
func (s *Store) RemoveFavorite(ctx context.Context, userID, restaurantID string) error {
	return s.updateFavorites(ctx, userID, "$pull", restaurantID)
}

func (s *Store) updateFavorites(ctx context.Context, userID, op, restaurantID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return apperror.NotFound("user", userID)
	}

	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{
			{Key: op, Value: bson.D{{Key: "favorites", Value: restaurantID}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
		},
	)
	if err != nil {
		return fmt.Errorf("mongo: %s favorite %s for user %s: %w", op, restaurantID, userID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}
