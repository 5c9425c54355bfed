package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/model"
)

// CreateUser inserts a new account. The UNIQUE constraint on username turns
// a duplicate registration into apperror.Conflict, even when two requests
// race each other.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, avatar, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	if user.Favorites == nil {
		user.Favorites = []string{}
	}
	return nil
}

// GetUserByID retrieves a user and their favorites by internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, "id", id)
}

// GetUserByUsername retrieves a user by their unique username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username", username)
}

// getUser is shared by the two lookups. column is one of two constants above,
// never caller input.
func (db *DB) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, avatar, role, created_at, updated_at
		 FROM users WHERE `+column+` = ?`,
		value,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Avatar,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}

	favorites, err := db.queryStrings(ctx,
		`SELECT restaurant_id FROM user_favorites WHERE user_id = ? ORDER BY created_at, restaurant_id`,
		u.ID,
	)
	if err != nil {
		return nil, err
	}
	u.Favorites = favorites

	return &u, nil
}

// AddFavorite records restaurantID as a favorite. Adding twice is a no-op.
func (db *DB) AddFavorite(ctx context.Context, userID, restaurantID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_favorites (user_id, restaurant_id, created_at) VALUES (?, ?, ?)`,
		userID, restaurantID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding favorite %s for user %s: %w", restaurantID, userID, err)
	}
	return nil
}

// RemoveFavorite drops restaurantID from the user's favorites, if present.
func (db *DB) RemoveFavorite(ctx context.Context, userID, restaurantID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = ? AND restaurant_id = ?`,
		userID, restaurantID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing favorite %s for user %s: %w", restaurantID, userID, err)
	}
	return nil
}
