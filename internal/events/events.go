// Package events publishes comment activity for downstream consumers
// (moderation, notification or rating aggregation jobs).
//
// Publishing is best effort: the comment write has already committed when an
// event goes out, so callers log a failed publish and carry on.
package events

import (
	"context"
	"time"
)

// Type names the kind of comment activity.
type Type string

const (
	CommentCreated Type = "comment.created"
	CommentUpdated Type = "comment.updated"
	CommentDeleted Type = "comment.deleted"
)

// CommentEvent is the message body, encoded as JSON.
type CommentEvent struct {
	Type         Type      `json:"type"`
	RestaurantID string    `json:"restaurant_id"`
	CommentID    string    `json:"comment_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Rating       *int      `json:"rating,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher delivers comment events.
type Publisher interface {
	Publish(ctx context.Context, e CommentEvent) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, CommentEvent) error { return nil }
func (Nop) Close() error                                 { return nil }
