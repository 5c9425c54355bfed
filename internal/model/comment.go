package model

import (
	"slices"
	"time"
)

// Comment is a user review embedded in its restaurant's document.
// Rating is optional; a nil pointer serialises as null.
type Comment struct {
	ID           string    `json:"_id"           bson:"_id"`
	RestaurantID string    `json:"restaurant_id" bson:"restaurant_id"`
	UserID       string    `json:"user_id"       bson:"user_id"`
	Username     string    `json:"username"      bson:"username"`
	Text         string    `json:"text"          bson:"text"`
	Rating       *int      `json:"rating"        bson:"rating"`
	CreatedAt    time.Time `json:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"    bson:"updated_at"`
	IsEdited     bool      `json:"is_edited"     bson:"is_edited"`
}

// CommentEdit is the replacement content applied by an owner's update.
type CommentEdit struct {
	Text      string
	Rating    *int
	UpdatedAt time.Time
}

// Apply writes the edit into c and marks it as edited.
func (e CommentEdit) Apply(c *Comment) {
	c.Text = e.Text
	c.Rating = e.Rating
	c.UpdatedAt = e.UpdatedAt
	c.IsEdited = true
}

// NewestFirst returns a copy of comments ordered by CreatedAt descending.
// Comments are appended in arrival order, so among equal timestamps the one
// stored later is treated as newer.
func NewestFirst(comments []Comment) []Comment {
	out := slices.Clone(comments)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// AverageRating is the mean of the ratings that are present, rounded to one
// decimal. ok is false when no comment carries a rating.
func AverageRating(comments []Comment) (avg float64, ok bool) {
	sum, n := 0, 0
	for _, c := range comments {
		if c.Rating == nil {
			continue
		}
		sum += *c.Rating
		n++
	}
	if n == 0 {
		return 0, false
	}
	return roundOneDecimal(float64(sum) / float64(n)), true
}
