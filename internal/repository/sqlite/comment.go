package sqlite

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/model"
	"github.com/sakif/restaurant-guide/internal/repository"
)

// AppendComment pushes c onto the restaurant's comment list and sets the
// restaurant's updated_at, in one transaction.
func (db *DB) AppendComment(ctx context.Context, restaurantID string, c *model.Comment) error {
	if _, err := xid.FromString(restaurantID); err != nil {
		return apperror.NotFound("restaurant", restaurantID)
	}

	found, _, err := db.updateDocument(ctx, restaurantID, func(r *model.Restaurant) bool {
		r.Comments = append(r.Comments, *c)
		r.UpdatedAt = c.CreatedAt
		return true
	})
	if err != nil {
		return err
	}
	if !found {
		return apperror.NotFound("restaurant", restaurantID)
	}
	return nil
}

// ListComments returns the embedded comments in insertion order.
func (db *DB) ListComments(ctx context.Context, restaurantID string) ([]model.Comment, error) {
	r, err := db.FindRestaurantByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return r.Comments, nil
}

// UpdateOwnedComment edits the comment matching (restaurant, comment, owner).
// A missing restaurant, a missing comment and a foreign owner all yield
// repository.ErrNoMatch.
func (db *DB) UpdateOwnedComment(ctx context.Context, restaurantID, commentID, userID string, edit model.CommentEdit) (*model.Comment, error) {
	var updated *model.Comment

	_, written, err := db.updateDocument(ctx, restaurantID, func(r *model.Restaurant) bool {
		i := ownedIndex(r.Comments, commentID, userID)
		if i < 0 {
			return false
		}
		edit.Apply(&r.Comments[i])
		r.UpdatedAt = edit.UpdatedAt
		c := r.Comments[i]
		updated = &c
		return true
	})
	if err != nil {
		return nil, err
	}
	if !written {
		return nil, repository.ErrNoMatch
	}
	return updated, nil
}

// DeleteOwnedComment removes the comment matching (restaurant, comment, owner).
func (db *DB) DeleteOwnedComment(ctx context.Context, restaurantID, commentID, userID string) error {
	_, written, err := db.updateDocument(ctx, restaurantID, func(r *model.Restaurant) bool {
		i := ownedIndex(r.Comments, commentID, userID)
		if i < 0 {
			return false
		}
		r.Comments = slices.Delete(r.Comments, i, i+1)
		r.UpdatedAt = time.Now().UTC()
		return true
	})
	if err != nil {
		return err
	}
	if !written {
		return repository.ErrNoMatch
	}
	return nil
}

// CommentExists looks for the comment id inside the stored JSON without
// decoding the document.
func (db *DB) CommentExists(ctx context.Context, restaurantID, commentID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM restaurants r, json_each(r.doc, '$.comments') c
			WHERE r.id = ? AND json_extract(c.value, '$._id') = ?
		)`,
		restaurantID, commentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking comment %s: %w", commentID, err)
	}
	return exists, nil
}

func ownedIndex(comments []model.Comment, commentID, userID string) int {
	return slices.IndexFunc(comments, func(c model.Comment) bool {
		return c.ID == commentID && c.UserID == userID
	})
}
