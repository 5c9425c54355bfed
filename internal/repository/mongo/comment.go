package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/model"
	"github.com/sakif/restaurant-guide/internal/repository"
)

// AppendComment $pushes c and sets updated_at in one update.
func (s *Store) AppendComment(ctx context.Context, restaurantID string, c *model.Comment) error {
	oid, err := primitive.ObjectIDFromHex(restaurantID)
	if err != nil {
		return apperror.NotFound("restaurant", restaurantID)
	}

	res, err := s.restaurants.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{
			{Key: "$push", Value: bson.D{{Key: "comments", Value: c}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: c.CreatedAt}}},
		},
	)
	if err != nil {
		return fmt.Errorf("mongo: appending comment to %s: %w", restaurantID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("restaurant", restaurantID)
	}
	return nil
}

// ListComments returns the embedded comments in insertion order.
func (s *Store) ListComments(ctx context.Context, restaurantID string) ([]model.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(restaurantID)
	if err != nil {
		return nil, apperror.NotFound("restaurant", restaurantID)
	}

	var doc struct {
		Comments []model.Comment `bson:"comments"`
	}
	err = s.restaurants.FindOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		options.FindOne().SetProjection(bson.D{{Key: "comments", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("restaurant", restaurantID)
		}
		return nil, fmt.Errorf("mongo: listing comments of %s: %w", restaurantID, err)
	}
	return doc.Comments, nil
}

// UpdateOwnedComment sets the edited fields through the positional operator.
// The filter only matches while the comment exists with this owner, so the
// ownership check and the write are one atomic operation. The positional
// projection returns just the updated comment.
func (s *Store) UpdateOwnedComment(ctx context.Context, restaurantID, commentID, userID string, edit model.CommentEdit) (*model.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(restaurantID)
	if err != nil {
		return nil, repository.ErrNoMatch
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "comments.$.text", Value: edit.Text},
		{Key: "comments.$.rating", Value: edit.Rating},
		{Key: "comments.$.updated_at", Value: edit.UpdatedAt},
		{Key: "comments.$.is_edited", Value: true},
		{Key: "updated_at", Value: edit.UpdatedAt},
	}}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "comments.$", Value: 1}})

	var doc struct {
		Comments []model.Comment `bson:"comments"`
	}
	err = s.restaurants.FindOneAndUpdate(ctx, ownedCommentFilter(oid, commentID, userID), update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNoMatch
		}
		return nil, fmt.Errorf("mongo: updating comment %s: %w", commentID, err)
	}
	if len(doc.Comments) == 0 {
		return nil, fmt.Errorf("mongo: updated comment %s missing from result", commentID)
	}
	return &doc.Comments[0], nil
}

// DeleteOwnedComment $pulls the comment under the same ownership filter.
func (s *Store) DeleteOwnedComment(ctx context.Context, restaurantID, commentID, userID string) error {
	oid, err := primitive.ObjectIDFromHex(restaurantID)
	if err != nil {
		return repository.ErrNoMatch
	}

	update := bson.D{
		{Key: "$pull", Value: bson.D{{Key: "comments", Value: bson.D{
			{Key: "_id", Value: commentID},
			{Key: "user_id", Value: userID},
		}}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}
	res, err := s.restaurants.UpdateOne(ctx, ownedCommentFilter(oid, commentID, userID), update)
	if err != nil {
		return fmt.Errorf("mongo: deleting comment %s: %w", commentID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNoMatch
	}
	return nil
}

// CommentExists is a read-only count with limit 1.
func (s *Store) CommentExists(ctx context.Context, restaurantID, commentID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(restaurantID)
	if err != nil {
		return false, nil
	}
	n, err := s.restaurants.CountDocuments(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "comments._id", Value: commentID}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("mongo: checking comment %s: %w", commentID, err)
	}
	return n > 0, nil
}
