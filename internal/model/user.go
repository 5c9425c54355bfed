package model

import "time"

// Roles a user may hold. Everyone registers as RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
//
// WHY PasswordHash json:"-"?
// The struct is returned from /api/me as-is. Hiding the hash at the type
// level means no handler can leak it by forgetting to strip a field.
//
// Favorites holds restaurant ids with set semantics: adding an id twice is a
// no-op in both stores.
type User struct {
	ID           string    `json:"_id"        bson:"-"`
	Username     string    `json:"username"   bson:"username"`
	Email        string    `json:"email"      bson:"email,omitempty"`
	PasswordHash string    `json:"-"          bson:"password"`
	Avatar       string    `json:"avatar"     bson:"avatar,omitempty"`
	Role         string    `json:"role"       bson:"role"`
	Favorites    []string  `json:"favorites"  bson:"favorites"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
