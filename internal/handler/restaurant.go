// Package handler contains the HTTP handlers of the restaurant API.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming request (path params, query, JSON body)
// 2. Call the service layer
// 3. Write the response through writeJSON / writeError
//
// Handlers hold no business rules. Validation, ownership and pagination
// live in internal/service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/restaurant-guide/internal/model"
	"github.com/sakif/restaurant-guide/internal/query"
	"github.com/sakif/restaurant-guide/internal/reference"
	"github.com/sakif/restaurant-guide/internal/service"
)

// Pinger reports whether the store is reachable. The health check uses it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RestaurantHandler serves the public read-only endpoints: listings, search,
// the detail page, the reference lists and the health check.
//
// The reference snapshot is built once at startup and injected here; the
// handler never reloads it.
type RestaurantHandler struct {
	restaurants *service.RestaurantService
	refs        *reference.Snapshot
	store       Pinger
	logger      *slog.Logger
}

// NewRestaurantHandler creates a RestaurantHandler.
func NewRestaurantHandler(
	restaurants *service.RestaurantService,
	refs *reference.Snapshot,
	store Pinger,
	logger *slog.Logger,
) *RestaurantHandler {
	return &RestaurantHandler{
		restaurants: restaurants,
		refs:        refs,
		store:       store,
		logger:      logger,
	}
}

// Pagination is the listing metadata.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNextPage bool  `json:"hasNextPage"`
}

// ListResponse is the body of the listing and search endpoints.
type ListResponse struct {
	Success     bool                   `json:"success"`
	Restaurants []model.RestaurantView `json:"restaurants"`
	Pagination  Pagination             `json:"pagination"`
}

func newListResponse(page *query.RestaurantPage) ListResponse {
	return ListResponse{
		Success:     true,
		Restaurants: page.Restaurants,
		Pagination: Pagination{
			CurrentPage: page.CurrentPage,
			TotalPages:  page.TotalPages,
			TotalCount:  page.TotalCount,
			HasNextPage: page.HasNextPage(),
		},
	}
}

// HandleList returns one page of restaurants.
//
// HTTP: GET /api/restaurants?neighborhood=&cuisine=&name=&page=&limit=
//
// With a neighborhood the listing is restricted to its geometry; an unknown
// neighborhood is an empty page, not a 404.
func (h *RestaurantHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.restaurants.List(r.Context(), service.ListParams{
		Neighborhood: q.Get("neighborhood"),
		Cuisine:      q.Get("cuisine"),
		Name:         q.Get("name"),
		Page:         queryInt(r, "page"),
		PageSize:     queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page))
}

// HandleSearch matches restaurant names against q. An empty q lists all.
//
// HTTP: GET /api/restaurants/search?q=&page=&limit=
func (h *RestaurantHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	page, err := h.restaurants.SearchByName(r.Context(), r.URL.Query().Get("q"),
		queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page))
}

// DetailResponse is the body of the detail endpoint.
type DetailResponse struct {
	Success bool `json:"success"`
	*service.DetailPage
}

// HandleDetail returns one restaurant with a page of its comments (newest
// first) and up to four similar restaurants.
//
// HTTP: GET /api/restaurants/{id}?page=
func (h *RestaurantHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.restaurants.Detail(r.Context(), chi.URLParam(r, "id"), queryInt(r, "page"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DetailResponse{Success: true, DetailPage: detail})
}

// HandleNeighborhoods returns the cached neighborhood names.
//
// HTTP: GET /api/neighborhoods
func (h *RestaurantHandler) HandleNeighborhoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"neighborhoods": h.refs.Neighborhoods(),
	})
}

// HandleCuisines returns the cached cuisine names.
//
// HTTP: GET /api/cuisines
func (h *RestaurantHandler) HandleCuisines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"cuisines": h.refs.Cuisines(),
	})
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	Neighborhoods int    `json:"neighborhoods"`
	Cuisines      int    `json:"cuisines"`
}

// HandleHealth reports store connectivity and the reference list sizes.
// An unreachable store answers 503 so load balancers take the instance out.
//
// HTTP: GET /health
func (h *RestaurantHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Database:      "connected",
		Neighborhoods: len(h.refs.Neighborhoods()),
		Cuisines:      len(h.refs.Cuisines()),
	}
	status := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check: store unreachable", slog.String("error", err.Error()))
		resp.Status = "degraded"
		resp.Database = "disconnected"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}
