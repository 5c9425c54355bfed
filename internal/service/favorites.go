package service

import (
	"context"
	"log/slog"

	"github.com/sakif/restaurant-guide/internal/repository"
)

// FavoritesService maintains each user's set of favorite restaurants.
type FavoritesService struct {
	users       repository.UserRepository
	restaurants repository.RestaurantRepository
	logger      *slog.Logger
}

// NewFavoritesService creates a FavoritesService.
func NewFavoritesService(users repository.UserRepository, restaurants repository.RestaurantRepository, logger *slog.Logger) *FavoritesService {
	return &FavoritesService{users: users, restaurants: restaurants, logger: logger}
}

// Add marks restaurantID as a favorite of userID. Adding twice is a no-op.
// A missing restaurant is NotFound.
func (s *FavoritesService) Add(ctx context.Context, userID, restaurantID string) error {
	if _, err := s.restaurants.FindRestaurantByID(ctx, restaurantID); err != nil {
		return storageFailure(s.logger, "find restaurant", err)
	}
	if err := s.users.AddFavorite(ctx, userID, restaurantID); err != nil {
		return storageFailure(s.logger, "add favorite", err)
	}
	s.logger.Debug("favorite added", slog.String("userID", userID), slog.String("restaurantID", restaurantID))
	return nil
}

// Remove drops restaurantID from the user's favorites. Removing an id that
// is not a favorite is a no-op.
func (s *FavoritesService) Remove(ctx context.Context, userID, restaurantID string) error {
	if err := s.users.RemoveFavorite(ctx, userID, restaurantID); err != nil {
		return storageFailure(s.logger, "remove favorite", err)
	}
	return nil
}
