package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/auth"
	"github.com/sakif/restaurant-guide/internal/model"
	"github.com/sakif/restaurant-guide/internal/service"
)

// AuthHandler manages accounts and sessions.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister / HandleLogin → issue a token pair and the access cookie
//   - HandleRefresh                → trade a refresh token for a new pair
//   - HandleLogout                 → clear the access cookie
//   - HandleMe                     → the current user's profile
//   - HandleAddFavorite / HandleRemoveFavorite → the user's favorites set
type AuthHandler struct {
	accounts  *service.AuthService
	favorites *service.FavoritesService
	tokens    *auth.TokenService
	secure    bool
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secure marks the access cookie
// Secure, which requires HTTPS; set it in production.
func NewAuthHandler(
	accounts *service.AuthService,
	favorites *service.FavoritesService,
	tokens *auth.TokenService,
	secure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:  accounts,
		favorites: favorites,
		tokens:    tokens,
		secure:    secure,
		logger:    logger,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// authResponse is what register, login and refresh return.
type authResponse struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message,omitempty"`
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"username": "alice", "email": "a@example.com", "password": "secret1"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, apperror.ValidationFailed("username", "Username and password are required"))
		return
	}

	result, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondWithTokens(w, http.StatusCreated, "Registration successful", result)
}

// HandleLogin checks the credentials.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"username": "alice", "password": "secret1"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, apperror.ValidationFailed("username", "Username and password are required"))
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondWithTokens(w, http.StatusOK, "Login successful", result)
}

// HandleRefresh issues a new token pair.
//
// HTTP: POST /api/auth/refresh
// REQUEST BODY: {"refreshToken": "..."}
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.RefreshToken == "" {
		writeError(w, apperror.ValidationFailed("refreshToken", "Refresh token is required"))
		return
	}

	result, err := h.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respondWithTokens(w, http.StatusOK, "", result)
}

// HandleLogout clears the access cookie.
//
// HTTP: POST /api/auth/logout
//
// Tokens are stateless, so an issued access token stays valid until it
// expires. Without the cookie the browser simply stops sending it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logout successful"})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authentication required"))
		return
	}

	user, err := h.accounts.CurrentUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

// HandleAddFavorite adds a restaurant to the caller's favorites.
//
// HTTP: POST /api/me/favorites/{restaurantID}
func (h *AuthHandler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authentication required"))
		return
	}
	if err := h.favorites.Add(r.Context(), id.UserID, chi.URLParam(r, "restaurantID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Added to favorites"})
}

// HandleRemoveFavorite removes a restaurant from the caller's favorites.
//
// HTTP: DELETE /api/me/favorites/{restaurantID}
func (h *AuthHandler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authentication required"))
		return
	}
	if err := h.favorites.Remove(r.Context(), id.UserID, chi.URLParam(r, "restaurantID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Removed from favorites"})
}

// respondWithTokens sets the access cookie and writes the token pair.
//
// HttpOnly keeps the cookie away from JavaScript; SameSite=Lax keeps it off
// cross-site POSTs.
func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, status int, message string, result *service.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessCookie,
		Value:    result.AccessToken,
		Path:     "/",
		MaxAge:   int(h.tokens.AccessTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, status, authResponse{
		Success:      true,
		Message:      message,
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}
