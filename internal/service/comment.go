package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/xid"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/events"
	"github.com/sakif/restaurant-guide/internal/model"
	"github.com/sakif/restaurant-guide/internal/query"
	"github.com/sakif/restaurant-guide/internal/repository"
)

// Comment validation limits.
const (
	MinCommentLength = 10
	MaxCommentLength = 1000
	MinRating        = 1
	MaxRating        = 5
)

// CommentInput is the user-supplied part of a comment.
type CommentInput struct {
	Text   string
	Rating *int
}

// CommentService manages the comments embedded in restaurant documents.
//
// OWNERSHIP:
// Updates and deletes are conditional writes matched on (restaurant id,
// comment id, owner id). The check and the write are one atomic store
// operation, so no other request can slip in between them. When nothing
// matches, a read-only existence check tells "no such comment" (404) from
// "someone else's comment" (403).
type CommentService struct {
	repo      repository.CommentRepository
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewCommentService creates a CommentService. publisher may be events.Nop{}.
func NewCommentService(repo repository.CommentRepository, publisher events.Publisher, logger *slog.Logger) *CommentService {
	return &CommentService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AddComment validates in and appends a new comment by (userID, username)
// to the restaurant. The append and the restaurant's updated_at bump are one
// atomic write.
func (s *CommentService) AddComment(ctx context.Context, restaurantID, userID, username string, in CommentInput) (*model.Comment, error) {
	if userID == "" || username == "" {
		return nil, apperror.Unauthorized("Authentication required")
	}
	text, err := validateComment(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &model.Comment{
		ID:           xid.New().String(),
		RestaurantID: restaurantID,
		UserID:       userID,
		Username:     username,
		Text:         text,
		Rating:       in.Rating,
		CreatedAt:    now,
		UpdatedAt:    now,
		IsEdited:     false,
	}

	if err := s.repo.AppendComment(ctx, restaurantID, c); err != nil {
		return nil, storageFailure(s.logger, "add comment", err)
	}

	s.logger.Info("comment created",
		slog.String("restaurantID", restaurantID),
		slog.String("commentID", c.ID),
		slog.String("userID", userID),
	)
	s.publish(ctx, events.CommentCreated, c)

	return c, nil
}

// GetComments returns one page of the restaurant's comments, newest first.
func (s *CommentService) GetComments(ctx context.Context, restaurantID string, page, pageSize int) (*query.CommentPage, error) {
	comments, err := s.repo.ListComments(ctx, restaurantID)
	if err != nil {
		return nil, storageFailure(s.logger, "get comments", err)
	}
	return query.PaginateComments(comments,
		query.NewPage(page, pageSize, query.DefaultCommentPageSize)), nil
}

// UpdateComment replaces the text and rating of the caller's own comment,
// marks it edited and refreshes its updated_at.
func (s *CommentService) UpdateComment(ctx context.Context, restaurantID, commentID, userID string, in CommentInput) (*model.Comment, error) {
	text, err := validateComment(in)
	if err != nil {
		return nil, err
	}

	edit := model.CommentEdit{Text: text, Rating: in.Rating, UpdatedAt: s.now()}
	updated, err := s.repo.UpdateOwnedComment(ctx, restaurantID, commentID, userID, edit)
	if err != nil {
		if errors.Is(err, repository.ErrNoMatch) {
			return nil, s.classifyMiss(ctx, restaurantID, commentID, "You can only edit your own comments")
		}
		return nil, storageFailure(s.logger, "update comment", err)
	}

	s.logger.Info("comment updated",
		slog.String("restaurantID", restaurantID),
		slog.String("commentID", commentID),
	)
	s.publish(ctx, events.CommentUpdated, updated)

	return updated, nil
}

// DeleteComment removes the caller's own comment.
func (s *CommentService) DeleteComment(ctx context.Context, restaurantID, commentID, userID string) error {
	err := s.repo.DeleteOwnedComment(ctx, restaurantID, commentID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoMatch) {
			return s.classifyMiss(ctx, restaurantID, commentID, "You can only delete your own comments")
		}
		return storageFailure(s.logger, "delete comment", err)
	}

	s.logger.Info("comment deleted",
		slog.String("restaurantID", restaurantID),
		slog.String("commentID", commentID),
	)
	s.publish(ctx, events.CommentDeleted, &model.Comment{
		ID:           commentID,
		RestaurantID: restaurantID,
		UserID:       userID,
	})
	return nil
}

// classifyMiss runs after an ownership-conditioned write matched nothing.
// If the comment exists the caller is not its owner.
func (s *CommentService) classifyMiss(ctx context.Context, restaurantID, commentID, forbidden string) error {
	exists, err := s.repo.CommentExists(ctx, restaurantID, commentID)
	if err != nil {
		return storageFailure(s.logger, "check comment", err)
	}
	if exists {
		return apperror.Forbidden(forbidden)
	}
	return apperror.NotFound("comment", commentID)
}

func (s *CommentService) publish(ctx context.Context, t events.Type, c *model.Comment) {
	e := events.CommentEvent{
		Type:         t,
		RestaurantID: c.RestaurantID,
		CommentID:    c.ID,
		UserID:       c.UserID,
		Username:     c.Username,
		Rating:       c.Rating,
		OccurredAt:   s.now(),
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("comment event not published",
			slog.String("type", string(t)),
			slog.String("commentID", c.ID),
			slog.String("error", err.Error()),
		)
	}
}

// validateComment returns the trimmed text or a validation error.
// Length counts characters, not bytes.
func validateComment(in CommentInput) (string, error) {
	text := strings.TrimSpace(in.Text)
	n := utf8.RuneCountInString(text)
	if n < MinCommentLength {
		return "", apperror.ValidationFailed("text", "Comment must be at least 10 characters")
	}
	if n > MaxCommentLength {
		return "", apperror.ValidationFailed("text", "Comment cannot exceed 1000 characters")
	}
	if in.Rating != nil && (*in.Rating < MinRating || *in.Rating > MaxRating) {
		return "", apperror.ValidationFailed("rating", "Rating must be between 1 and 5")
	}
	return text, nil
}
