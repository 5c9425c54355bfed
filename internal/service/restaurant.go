// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the document store
//
// Services take repository interfaces, never a concrete store, so the same
// logic runs on SQLite, on MongoDB and on the fakes in the tests.
//
// ERRORS:
// Services return apperror values. Anything else coming up from a
// repository is a storage failure: it is logged here and wrapped with
// apperror.QueryFailed so the handler answers 500 without leaking driver
// messages. Failed queries are never retried.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/model"
	"github.com/sakif/restaurant-guide/internal/query"
	"github.com/sakif/restaurant-guide/internal/repository"
)

// RestaurantService is the paginated restaurant query engine.
type RestaurantService struct {
	restaurants repository.RestaurantRepository
	references  repository.ReferenceRepository
	logger      *slog.Logger
}

// NewRestaurantService creates a RestaurantService.
func NewRestaurantService(
	restaurants repository.RestaurantRepository,
	references repository.ReferenceRepository,
	logger *slog.Logger,
) *RestaurantService {
	return &RestaurantService{
		restaurants: restaurants,
		references:  references,
		logger:      logger,
	}
}

// ListParams is what the listing endpoint accepts. An empty Neighborhood
// lists the whole city.
type ListParams struct {
	Neighborhood string
	Cuisine      string
	Name         string
	Page         int
	PageSize     int
}

// List dispatches to FindByNeighborhood or FindAll.
func (s *RestaurantService) List(ctx context.Context, p ListParams) (*query.RestaurantPage, error) {
	if p.Neighborhood != "" {
		return s.FindByNeighborhood(ctx, p.Neighborhood, p.Cuisine, p.Name, p.Page, p.PageSize)
	}
	return s.FindAll(ctx, p.Cuisine, p.Name, p.Page, p.PageSize)
}

// FindAll lists restaurants, optionally narrowed to an exact cuisine and a
// case-insensitive name substring, sorted by name.
func (s *RestaurantService) FindAll(ctx context.Context, cuisine, name string, page, pageSize int) (*query.RestaurantPage, error) {
	return s.findPage(ctx, "find restaurants", query.All(cuisine, name),
		query.NewPage(page, pageSize, query.DefaultPageSize))
}

// FindByNeighborhood lists the restaurants whose coordinate lies inside the
// named neighborhood. An unknown neighborhood is an empty page, not an error.
func (s *RestaurantService) FindByNeighborhood(ctx context.Context, neighborhood, cuisine, name string, page, pageSize int) (*query.RestaurantPage, error) {
	p := query.NewPage(page, pageSize, query.DefaultPageSize)

	area, err := s.references.FindNeighborhood(ctx, neighborhood)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Debug("unknown neighborhood", slog.String("neighborhood", neighborhood))
			return query.EmptyRestaurantPage(p), nil
		}
		return nil, s.storageFailure("find neighborhood", err)
	}

	return s.findPage(ctx, "find restaurants by neighborhood", query.InNeighborhood(area, cuisine, name), p)
}

// SearchByName is FindAll with only the name filter.
func (s *RestaurantService) SearchByName(ctx context.Context, term string, page, pageSize int) (*query.RestaurantPage, error) {
	return s.findPage(ctx, "search restaurants", query.NameSearch(term),
		query.NewPage(page, pageSize, query.DefaultPageSize))
}

// FindByID returns the detail view of one restaurant. Missing ids, malformed
// ids and records with an invalid name are all not found.
func (s *RestaurantService) FindByID(ctx context.Context, id string) (*model.RestaurantDetail, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	detail, _ := r.Detail()
	return &detail, nil
}

// GetSimilarRestaurants returns up to limit restaurants with the same cuisine
// and borough as id, excluding id itself.
func (s *RestaurantService) GetSimilarRestaurants(ctx context.Context, id string, limit int) ([]model.RestaurantView, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.similar(ctx, r, limit)
}

// DetailPage is everything the detail endpoint shows.
type DetailPage struct {
	Restaurant *model.RestaurantDetail `json:"restaurant"`
	Comments   *query.CommentPage      `json:"comments"`
	Similar    []model.RestaurantView  `json:"similar"`
}

// Detail loads the restaurant once and derives its view, one page of its
// comments and its similar restaurants. A failure to load the similar list
// is logged and leaves it empty; the page is still useful without it.
func (s *RestaurantService) Detail(ctx context.Context, id string, commentPage int) (*DetailPage, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	detail, _ := r.Detail()

	similar, err := s.similar(ctx, r, query.DefaultSimilarLimit)
	if err != nil {
		s.logger.Warn("similar restaurants unavailable",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		similar = []model.RestaurantView{}
	}

	return &DetailPage{
		Restaurant: &detail,
		Comments: query.PaginateComments(r.Comments,
			query.NewPage(commentPage, query.DefaultCommentPageSize, query.DefaultCommentPageSize)),
		Similar: similar,
	}, nil
}

func (s *RestaurantService) load(ctx context.Context, id string) (*model.Restaurant, error) {
	r, err := s.restaurants.FindRestaurantByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, s.storageFailure("find restaurant", err)
	}
	if !r.HasValidName() {
		return nil, apperror.NotFound("restaurant", id)
	}
	return r, nil
}

func (s *RestaurantService) similar(ctx context.Context, r *model.Restaurant, limit int) ([]model.RestaurantView, error) {
	p := query.NewPage(1, limit, query.DefaultSimilarLimit)
	found, err := s.restaurants.FindRestaurants(ctx, query.SimilarTo(r), p)
	if err != nil {
		return nil, s.storageFailure("find similar restaurants", err)
	}
	return model.Views(found), nil
}

// findPage runs the page query and the count for the same filter.
func (s *RestaurantService) findPage(ctx context.Context, op string, f query.Filter, p query.Page) (*query.RestaurantPage, error) {
	found, err := s.restaurants.FindRestaurants(ctx, f, p)
	if err != nil {
		return nil, s.storageFailure(op, err)
	}
	total, err := s.restaurants.CountRestaurants(ctx, f)
	if err != nil {
		return nil, s.storageFailure(op, err)
	}

	return &query.RestaurantPage{
		Restaurants: model.Views(found),
		TotalCount:  total,
		TotalPages:  p.TotalPages(total),
		CurrentPage: p.Number,
	}, nil
}

func (s *RestaurantService) storageFailure(op string, err error) error {
	return storageFailure(s.logger, op, err)
}

// storageFailure logs err and wraps it as a query failure. AppErrors pass
// through unchanged: they already say what went wrong.
func storageFailure(logger *slog.Logger, op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	logger.Error(op+" failed", slog.String("error", err.Error()))
	return apperror.QueryFailed(op, err)
}
