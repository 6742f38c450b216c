package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Comment is the slice of a comment row the notification pipeline reads.
// Comments hang off a match or news item (entity_type/entity_id).
type Comment struct {
	ID             int64     `db:"id" json:"id"`
	EntityType     string    `db:"entity_type" json:"entity_type"`
	EntityID       int64     `db:"entity_id" json:"entity_id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	AuthorUsername string    `db:"author_username" json:"author_username"`
	ParentID       *int64    `db:"parent_id" json:"parent_id,omitempty"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ReactionState is a user's current reaction to a comment.
type ReactionState string

const (
	ReactionNone     ReactionState = "none"
	ReactionLiked    ReactionState = "liked"
	ReactionDisliked ReactionState = "disliked"
)

// ParseReactionState validates a reaction state name. Empty means none.
func ParseReactionState(s string) (ReactionState, error) {
	switch st := ReactionState(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return ReactionNone, nil
	case ReactionNone, ReactionLiked, ReactionDisliked:
		return st, nil
	}
	return "", NewValidationError("reaction", fmt.Sprintf("unknown reaction state %q", s))
}

// ReactionKind is the reaction a notification reports.
type ReactionKind string

const (
	ReactionKindLike    ReactionKind = "like"
	ReactionKindDislike ReactionKind = "dislike"
)

// ParseReactionKind validates a reaction kind name.
func ParseReactionKind(s string) (ReactionKind, error) {
	switch k := ReactionKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ReactionKindLike, ReactionKindDislike:
		return k, nil
	}
	return "", NewValidationError("reaction", fmt.Sprintf("unknown reaction kind %q", s))
}

// Category returns the preference category of the reaction.
// Both kinds are gated by the same comment_likes flag.
func (k ReactionKind) Category() EventCategory {
	if k == ReactionKindDislike {
		return CategoryCommentDislike
	}
	return CategoryCommentLike
}

// ReactionTransition decides whether moving from one reaction state to another
// notifies the comment author. Every entry into liked or disliked notifies,
// including a direct switch between them; entering none never does.
func ReactionTransition(from, to ReactionState) (ReactionKind, bool) {
	if from == to {
		return "", false
	}
	switch to {
	case ReactionLiked:
		return ReactionKindLike, true
	case ReactionDisliked:
		return ReactionKindDislike, true
	default:
		return "", false
	}
}

// Comment errors
var (
	ErrCommentNotFound = errors.New("comment not found")
)
