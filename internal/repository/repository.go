// Package repository declares the storage contracts. The sqlite and mongo
// subpackages implement every interface here.
package repository

import (
	"context"
	"errors"

	"github.com/sakif/restaurant-guide/internal/model"
	"github.com/sakif/restaurant-guide/internal/query"
)

// ErrNoMatch is returned by the ownership-conditioned comment mutations when
// no comment matched (restaurant id, comment id, owner id). The caller decides
// whether that means "not found" or "forbidden" with CommentExists.
var ErrNoMatch = errors.New("repository: no comment matched")

// RestaurantRepository reads and writes restaurant documents.
// Lookups by a missing or malformed id return an apperror.NotFound.
type RestaurantRepository interface {
	// FindRestaurants returns one page of f, ordered by name then id.
	FindRestaurants(ctx context.Context, f query.Filter, p query.Page) ([]model.Restaurant, error)
	CountRestaurants(ctx context.Context, f query.Filter) (int64, error)
	FindRestaurantByID(ctx context.Context, id string) (*model.Restaurant, error)
	// InsertRestaurant stores r and sets r.ID when the store assigns a new id.
	InsertRestaurant(ctx context.Context, r *model.Restaurant) error
}

// ReferenceRepository serves the neighborhood geometries and the reference
// lists loaded into the reference snapshot.
type ReferenceRepository interface {
	NeighborhoodNames(ctx context.Context) ([]string, error)
	DistinctCuisines(ctx context.Context) ([]string, error)
	// FindNeighborhood returns apperror.NotFound for an unknown name.
	FindNeighborhood(ctx context.Context, name string) (*model.Neighborhood, error)
	InsertNeighborhood(ctx context.Context, n *model.Neighborhood) error
}

// CommentRepository mutates the comments embedded in a restaurant document.
// Each mutation is a single atomic write of that document.
type CommentRepository interface {
	// AppendComment pushes c and sets the restaurant's updated_at to
	// c.CreatedAt. Returns apperror.NotFound if the restaurant is missing.
	AppendComment(ctx context.Context, restaurantID string, c *model.Comment) error
	// ListComments returns the stored comments in insertion order.
	ListComments(ctx context.Context, restaurantID string) ([]model.Comment, error)
	// UpdateOwnedComment applies edit to the comment only if it belongs to
	// userID. Returns ErrNoMatch otherwise.
	UpdateOwnedComment(ctx context.Context, restaurantID, commentID, userID string, edit model.CommentEdit) (*model.Comment, error)
	// DeleteOwnedComment removes the comment only if it belongs to userID.
	// Returns ErrNoMatch otherwise.
	DeleteOwnedComment(ctx context.Context, restaurantID, commentID, userID string) error
	// CommentExists is the read-only check used to classify ErrNoMatch.
	CommentExists(ctx context.Context, restaurantID, commentID string) (bool, error)
}

// UserRepository stores accounts. CreateUser returns apperror.Conflict for a
// duplicate username.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	AddFavorite(ctx context.Context, userID, restaurantID string) error
	RemoveFavorite(ctx context.Context, userID, restaurantID string) error
}

// Store is a complete backend.
type Store interface {
	RestaurantRepository
	ReferenceRepository
	CommentRepository
	UserRepository
	Ping(ctx context.Context) error
	Close() error
}
