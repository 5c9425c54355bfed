package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/auth"
	"github.com/sakif/restaurant-guide/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. You can see
// exactly what it does, which a mock would hide.
type fakeUserRepo struct {
	users  map[string]*model.User // keyed by ID
	nextID int
	// set to a non-nil error to simulate a database failure
	err error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) AddFavorite(_ context.Context, userID, restaurantID string) error {
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	for _, id := range u.Favorites {
		if id == restaurantID {
			return nil
		}
	}
	u.Favorites = append(u.Favorites, restaurantID)
	return nil
}

func (f *fakeUserRepo) RemoveFavorite(_ context.Context, userID, restaurantID string) error {
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	kept := u.Favorites[:0]
	for _, id := range u.Favorites {
		if id != restaurantID {
			kept = append(kept, id)
		}
	}
	u.Favorites = kept
	return nil
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-access-secret-16+", "test-refresh-secret-16+", time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens
}

// newTestAuthService returns an AuthService wired with fake dependencies and
// the cheapest bcrypt cost.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	return NewAuthService(repo, newTestTokens(t), auth.NewPasswordService(4), testLogger())
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.Register(context.Background(), "  alice  ", "Alice@Example.com", "secret1")
	require.NoError(t, err)

	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, model.RoleUser, result.User.Role)
	assert.NotEqual(t, "secret1", result.User.PasswordHash)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	id, err := newTestTokens(t).Validate(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: result.User.ID, Username: "alice", Role: model.RoleUser}, id)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		email     string
		password  string
		wantField string
	}{
		{"username too short", "al", "", "secret1", "username"},
		{"username too long", strings.Repeat("a", 51), "", "secret1", "username"},
		{"bad email", "alice", "not-an-email", "secret1", "email"},
		{"password too short", "alice", "", "12345", "password"},
		{"email is optional", "alice", "", "123456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(t, newFakeUserRepo())

			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "", "another")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRegister_StorageFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.err = errors.New("database is locked")
	svc := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "alice", "", "secret1")
	assert.ErrorIs(t, err, apperror.ErrStorage)
}

// =========================================================================
// LOGIN / REFRESH TESTS
// =========================================================================

func TestLogin(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()
	registered, err := svc.Register(ctx, "alice", "", "secret1")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)
	assert.NotEmpty(t, result.AccessToken)
}

func TestLogin_BadCredentialsLookAlike(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "", "secret1")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "alice", "wrong-password")
	_, unknownUser := svc.Login(ctx, "mallory", "secret1")

	assert.ErrorIs(t, wrongPassword, apperror.ErrUnauthorized)
	assert.ErrorIs(t, unknownUser, apperror.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestRefresh(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()
	registered, err := svc.Register(ctx, "alice", "", "secret1")
	require.NoError(t, err)

	result, err := svc.Refresh(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, result.User.ID)
	assert.NotEmpty(t, result.AccessToken)

	_, err = svc.Refresh(ctx, registered.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized, "an access token is not a refresh token")
}

func TestCurrentUser(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()
	registered, err := svc.Register(ctx, "alice", "", "secret1")
	require.NoError(t, err)

	user, err := svc.CurrentUser(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.CurrentUser(ctx, "user-404")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

// =========================================================================
// FAVORITES TESTS
// =========================================================================

func TestFavorites(t *testing.T) {
	db := newTestStore(t)
	r := seedRestaurant(t, db, restaurantAt("Corner Bistro", "American", 0.5, 0.5))
	users := newFakeUserRepo()
	registered, err := newTestAuthService(t, users).Register(context.Background(), "alice", "", "secret1")
	require.NoError(t, err)
	svc := NewFavoritesService(users, db, testLogger())
	ctx := context.Background()
	userID := registered.User.ID

	require.NoError(t, svc.Add(ctx, userID, r.ID))
	require.NoError(t, svc.Add(ctx, userID, r.ID))
	assert.Equal(t, []string{r.ID}, users.users[userID].Favorites)

	err = svc.Add(ctx, userID, "d0000000000000000000")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, svc.Remove(ctx, userID, r.ID))
	assert.Empty(t, users.users[userID].Favorites)
}
