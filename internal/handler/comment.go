package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/auth"
	"github.com/sakif/restaurant-guide/internal/service"
)

// CommentHandler serves the comment endpoints under a restaurant. Every
// mutation route sits behind auth.RequireAuth, which puts the caller's
// identity in the request context.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a CommentHandler.
func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

// commentRequest is the JSON body of create and update.
// A null or missing rating means "no rating".
type commentRequest struct {
	Text   string `json:"text"`
	Rating *int   `json:"rating"`
}

func (c commentRequest) input() service.CommentInput {
	return service.CommentInput{Text: c.Text, Rating: c.Rating}
}

// HandleList returns one page of comments, newest first.
//
// HTTP: GET /api/restaurants/{id}/comments?page=
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.comments.GetComments(r.Context(), chi.URLParam(r, "id"), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"comments": page,
	})
}

// HandleCreate adds a comment by the authenticated caller.
//
// HTTP: POST /api/restaurants/{id}/comments
// REQUEST BODY: {"text": "...", "rating": 4}
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authentication required"))
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.AddComment(r.Context(), chi.URLParam(r, "id"), id.UserID, id.Username, req.input())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// HandleUpdate edits the caller's own comment.
//
// HTTP: PUT /api/restaurants/{id}/comments/{commentID}
// REQUEST BODY: {"text": "...", "rating": 5}
func (h *CommentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authentication required"))
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.UpdateComment(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "commentID"), id.UserID, req.input())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Comment updated successfully",
		"comment": comment,
	})
}

// HandleDelete removes the caller's own comment.
//
// HTTP: DELETE /api/restaurants/{id}/comments/{commentID}
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authentication required"))
		return
	}

	err := h.comments.DeleteComment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "commentID"), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Comment deleted successfully",
	})
}
