package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/model"
)

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$notarealhashbutlongenough",
		Role:         model.RoleUser,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "alice")

	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser() did not set timestamps")
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	err := db.CreateUser(context.Background(), &model.User{Username: "alice", PasswordHash: "x", Role: model.RoleUser})

	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() duplicate error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	created := createTestUser(t, db, "bob")

	byID, err := db.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	byName, err := db.GetUserByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}

	if byID.Username != "bob" || byName.ID != created.ID {
		t.Errorf("lookups disagree: %+v vs %+v", byID, byName)
	}
	if byID.PasswordHash != created.PasswordHash {
		t.Error("password hash not round-tripped")
	}
	if byID.Favorites == nil {
		t.Error("Favorites should be an empty list, not nil")
	}
}

func TestUserGet_NotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetUserByID(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetUserByUsername(context.Background(), "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByUsername() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// FAVORITES TESTS
// =========================================================================

func TestFavorites_SetSemantics(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "carol")

	for _, id := range []string{"r1", "r2", "r1"} {
		if err := db.AddFavorite(ctx, u.ID, id); err != nil {
			t.Fatalf("AddFavorite(%s) error = %v", id, err)
		}
	}
	if err := db.RemoveFavorite(ctx, u.ID, "r2"); err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	if err := db.RemoveFavorite(ctx, u.ID, "never-added"); err != nil {
		t.Fatalf("RemoveFavorite() of absent id error = %v", err)
	}

	got, _ := db.GetUserByID(ctx, u.ID)
	if fmt.Sprint(got.Favorites) != "[r1]" {
		t.Errorf("Favorites = %v, want [r1]", got.Favorites)
	}
}
