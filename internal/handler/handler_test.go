package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/restaurant-guide/internal/auth"
	"github.com/sakif/restaurant-guide/internal/events"
	"github.com/sakif/restaurant-guide/internal/handler"
	"github.com/sakif/restaurant-guide/internal/model"
	"github.com/sakif/restaurant-guide/internal/reference"
	"github.com/sakif/restaurant-guide/internal/repository/sqlite"
	"github.com/sakif/restaurant-guide/internal/service"
)

// testApp is a router over an in-memory store with the same route shapes the
// server registers.
type testApp struct {
	router http.Handler
	db     *sqlite.DB
	tokens *auth.TokenService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-access-secret-16+", "test-refresh-secret-16+", time.Minute, time.Hour)
	require.NoError(t, err)

	restaurants := service.NewRestaurantService(db, db, logger)
	comments := service.NewCommentService(db, events.Nop{}, logger)
	accounts := service.NewAuthService(db, tokens, auth.NewPasswordService(4), logger)
	favorites := service.NewFavoritesService(db, db, logger)

	refs := reference.New([]string{"Midtown", "SoHo"}, []string{"Italian", "Thai"})
	rh := handler.NewRestaurantHandler(restaurants, refs, db, logger)
	ch := handler.NewCommentHandler(comments, logger)
	ah := handler.NewAuthHandler(accounts, favorites, tokens, false, logger)

	r := chi.NewRouter()
	r.Get("/health", rh.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/neighborhoods", rh.HandleNeighborhoods)
		r.Get("/cuisines", rh.HandleCuisines)
		r.Get("/restaurants", rh.HandleList)
		r.Get("/restaurants/search", rh.HandleSearch)
		r.Get("/restaurants/{id}", rh.HandleDetail)
		r.Get("/restaurants/{id}/comments", ch.HandleList)

		r.Post("/auth/register", ah.HandleRegister)
		r.Post("/auth/login", ah.HandleLogin)
		r.Post("/auth/refresh", ah.HandleRefresh)
		r.Post("/auth/logout", ah.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/restaurants/{id}/comments", ch.HandleCreate)
			r.Put("/restaurants/{id}/comments/{commentID}", ch.HandleUpdate)
			r.Delete("/restaurants/{id}/comments/{commentID}", ch.HandleDelete)
			r.Get("/me", ah.HandleMe)
			r.Post("/me/favorites/{restaurantID}", ah.HandleAddFavorite)
			r.Delete("/me/favorites/{restaurantID}", ah.HandleRemoveFavorite)
		})
	})

	return &testApp{router: r, db: db, tokens: tokens}
}

func (a *testApp) seed(t *testing.T, r model.Restaurant) string {
	t.Helper()
	require.NoError(t, a.db.InsertRestaurant(context.Background(), &r))
	return r.ID
}

// tokenFor signs an access token without going through registration.
func (a *testApp) tokenFor(t *testing.T, userID, username string) string {
	t.Helper()
	tok, err := a.tokens.Generate(auth.Identity{UserID: userID, Username: username, Role: model.RoleUser})
	require.NoError(t, err)
	return tok
}

// do sends a request and returns the recorder. body is JSON-encoded unless
// it is already a string.
func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}
