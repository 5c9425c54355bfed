package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/events"
	"github.com/sakif/restaurant-guide/internal/repository/sqlite"
)

// =========================================================================
// FIXTURES
// =========================================================================

func intPtr(v int) *int { return &v }

// recordingPublisher keeps every event it is given, or fails every publish
// when err is set.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.CommentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.CommentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// tickingClock returns a clock that advances one second per call, so
// comments added in sequence get strictly increasing timestamps.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type commentFixture struct {
	db           *sqlite.DB
	svc          *CommentService
	pub          *recordingPublisher
	restaurantID string
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	db := newTestStore(t)
	r := seedRestaurant(t, db, restaurantAt("Corner Bistro", "American", 0.5, 0.5))
	pub := &recordingPublisher{}
	svc := NewCommentService(db, pub, testLogger())
	svc.now = tickingClock()
	return &commentFixture{db: db, svc: svc, pub: pub, restaurantID: r.ID}
}

const validText = "Great burgers and friendly staff"

// =========================================================================
// ADD COMMENT TESTS
// =========================================================================

func TestAddComment(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	c, err := f.svc.AddComment(ctx, f.restaurantID, "u1", "alice",
		CommentInput{Text: "  " + validText + "  ", Rating: intPtr(5)})
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, validText, c.Text, "text is stored trimmed")
	assert.Equal(t, f.restaurantID, c.RestaurantID)
	assert.Equal(t, "alice", c.Username)
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)
	assert.False(t, c.IsEdited)

	stored, err := f.db.FindRestaurantByID(ctx, f.restaurantID)
	require.NoError(t, err)
	require.Len(t, stored.Comments, 1)
	assert.Equal(t, c.ID, stored.Comments[0].ID)
	assert.True(t, stored.UpdatedAt.Equal(c.CreatedAt), "restaurant updated_at follows the new comment")

	assert.Equal(t, []events.Type{events.CommentCreated}, f.pub.types())
}

func TestAddComment_Validation(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		rating    *int
		wantField string
	}{
		{"9 characters", strings.Repeat("a", 9), nil, "text"},
		{"10 characters", strings.Repeat("a", 10), nil, ""},
		{"1000 characters", strings.Repeat("a", 1000), nil, ""},
		{"1001 characters", strings.Repeat("a", 1001), nil, "text"},
		{"padding does not count", "   " + strings.Repeat("a", 9) + "   ", nil, "text"},
		{"multibyte characters count once", strings.Repeat("é", 10), nil, ""},
		{"rating 0", validText, intPtr(0), "rating"},
		{"rating 1", validText, intPtr(1), ""},
		{"rating 5", validText, intPtr(5), ""},
		{"rating 6", validText, intPtr(6), "rating"},
		{"no rating", validText, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCommentFixture(t)

			_, err := f.svc.AddComment(context.Background(), f.restaurantID, "u1", "alice",
				CommentInput{Text: tt.text, Rating: tt.rating})

			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperror.ErrValidation)
			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestAddComment_MissingRestaurant(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddComment(ctx, "d0000000000000000000", "u1", "alice", CommentInput{Text: validText})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// Validation is checked before the restaurant is looked up.
	_, err = f.svc.AddComment(ctx, "d0000000000000000000", "u1", "alice", CommentInput{Text: "short"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAddComment_RequiresIdentity(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.AddComment(context.Background(), f.restaurantID, "", "", CommentInput{Text: validText})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestAddComment_PublishFailureIsNotFatal(t *testing.T) {
	f := newCommentFixture(t)
	f.pub.err = errors.New("broker down")

	c, err := f.svc.AddComment(context.Background(), f.restaurantID, "u1", "alice", CommentInput{Text: validText})

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
}

// =========================================================================
// GET COMMENTS TESTS
// =========================================================================

func TestGetComments_NewestFirst(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	first, err := f.svc.AddComment(ctx, f.restaurantID, "u1", "alice", CommentInput{Text: "First visit was lovely"})
	require.NoError(t, err)
	second, err := f.svc.AddComment(ctx, f.restaurantID, "u2", "bob", CommentInput{Text: "Second visit was better"})
	require.NoError(t, err)

	page, err := f.svc.GetComments(ctx, f.restaurantID, 1, 10)
	require.NoError(t, err)

	require.Len(t, page.Comments, 2)
	assert.Equal(t, second.ID, page.Comments[0].ID)
	assert.Equal(t, first.ID, page.Comments[1].ID)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestGetComments_Paginates(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	for i := 0; i < 13; i++ {
		_, err := f.svc.AddComment(ctx, f.restaurantID, "u1", "alice", CommentInput{Text: validText})
		require.NoError(t, err)
	}

	page, err := f.svc.GetComments(ctx, f.restaurantID, 2, 0)
	require.NoError(t, err)

	assert.Len(t, page.Comments, 3)
	assert.Equal(t, 13, page.Total)
	assert.Equal(t, 2, page.TotalPages)
}

// =========================================================================
// OWNERSHIP TESTS
// =========================================================================

func TestUpdateComment(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	c, err := f.svc.AddComment(ctx, f.restaurantID, "u1", "alice", CommentInput{Text: validText, Rating: intPtr(3)})
	require.NoError(t, err)

	updated, err := f.svc.UpdateComment(ctx, f.restaurantID, c.ID, "u1",
		CommentInput{Text: "Changed my mind, it was superb", Rating: intPtr(5)})
	require.NoError(t, err)

	assert.Equal(t, "Changed my mind, it was superb", updated.Text)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5, *updated.Rating)
	assert.True(t, updated.IsEdited)
	assert.True(t, updated.UpdatedAt.After(c.UpdatedAt))
	assert.True(t, c.CreatedAt.Equal(updated.CreatedAt))

	assert.Equal(t, []events.Type{events.CommentCreated, events.CommentUpdated}, f.pub.types())
}

func TestUpdateComment_NotAuthorOrMissing(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	c, err := f.svc.AddComment(ctx, f.restaurantID, "u1", "alice", CommentInput{Text: validText})
	require.NoError(t, err)

	tests := []struct {
		name         string
		restaurantID string
		commentID    string
		userID       string
		want         error
	}{
		{"someone else's comment", f.restaurantID, c.ID, "u2", apperror.ErrForbidden},
		{"unknown comment", f.restaurantID, "no-such-comment", "u1", apperror.ErrNotFound},
		{"unknown restaurant", "d0000000000000000000", c.ID, "u1", apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateComment(ctx, tt.restaurantID, tt.commentID, tt.userID,
				CommentInput{Text: "Trying to change this"})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	stored, err := f.db.FindRestaurantByID(ctx, f.restaurantID)
	require.NoError(t, err)
	assert.Equal(t, validText, stored.Comments[0].Text, "failed updates leave the comment alone")
	assert.False(t, stored.Comments[0].IsEdited)
}

func TestUpdateComment_Validation(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	c, err := f.svc.AddComment(ctx, f.restaurantID, "u1", "alice", CommentInput{Text: validText})
	require.NoError(t, err)

	_, err = f.svc.UpdateComment(ctx, f.restaurantID, c.ID, "u1", CommentInput{Text: validText, Rating: intPtr(6)})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestDeleteComment(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	c, err := f.svc.AddComment(ctx, f.restaurantID, "u1", "alice", CommentInput{Text: validText})
	require.NoError(t, err)

	err = f.svc.DeleteComment(ctx, f.restaurantID, c.ID, "u2")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, f.svc.DeleteComment(ctx, f.restaurantID, c.ID, "u1"))

	err = f.svc.DeleteComment(ctx, f.restaurantID, c.ID, "u1")
	assert.ErrorIs(t, err, apperror.ErrNotFound, "a deleted comment is gone")

	page, err := f.svc.GetComments(ctx, f.restaurantID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Comments)

	assert.Equal(t, []events.Type{events.CommentCreated, events.CommentDeleted}, f.pub.types())
}
