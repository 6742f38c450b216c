package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Related entity types stored in notifications.related_entity_type
const (
	EntityMatch       = "MATCH"
	EntityTeam        = "TEAM"
	EntityPlayer      = "PLAYER"
	EntityCompetition = "COMPETITION"
	EntityNews        = "NEWS"
	EntityComment     = "COMMENT"
)

// Client screens used in navigation payloads
const (
	ScreenMatchDetail   = "MatchDetail"
	ScreenCommentThread = "CommentThread"
)

// Notification represents a single notification record in the database.
type Notification struct {
	ID                int64          `db:"id" json:"id"`
	UserID            int64          `db:"user_id" json:"-"` // Recipient
	Type              string         `db:"notification_type" json:"type"`
	Title             string         `db:"title" json:"title"`
	Message           string         `db:"message" json:"message"`
	RelatedEntityType *string        `db:"related_entity_type" json:"related_entity_type,omitempty"`
	RelatedEntityID   *int64         `db:"related_entity_id" json:"related_entity_id,omitempty"`
	IsRead            bool           `db:"is_read" json:"is_read"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	NavigationData    NavigationData `db:"navigation_data" json:"navigation_data"`
}

// NavigationData is the deep-link target the client opens for a notification.
// It is stored verbatim (JSONB) and sent unchanged in the push payload.
type NavigationData struct {
	Screen string         `json:"screen,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// IsZero reports whether no navigation target is set.
func (n NavigationData) IsZero() bool {
	return n.Screen == "" && len(n.Params) == 0
}

// Value implements driver.Valuer so NavigationData can be written to a JSONB column.
// It returns a string because lib/pq sends []byte as bytea.
func (n NavigationData) Value() (driver.Value, error) {
	if n.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal navigation data: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (n *NavigationData) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = NavigationData{}
		return nil
	case []byte:
		return json.Unmarshal(v, n)
	case string:
		return json.Unmarshal([]byte(v), n)
	default:
		return errors.New("navigation data: unsupported column type")
	}
}

// RelatedEntity points a notification at the domain object it concerns.
type RelatedEntity struct {
	Type string `json:"type" validate:"required,oneof=MATCH TEAM PLAYER COMPETITION NEWS COMMENT"`
	ID   int64  `json:"id" validate:"required,gt=0"`
}

// NotificationDraft is the content shared by every row of one persist call.
type NotificationDraft struct {
	Category       EventCategory
	Title          string
	Message        string
	Related        *RelatedEntity
	NavigationData NavigationData
}

// NotificationListResponse is the paginated notification list response.
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	NextCursor    *int64         `json:"next_cursor,omitempty"`
	HasMore       bool           `json:"has_more"`
	UnreadCount   int            `json:"unread_count"`
}

// MarkReadRequest is the request body for marking notifications as read.
type MarkReadRequest struct {
	NotificationIDs []int64 `json:"notification_ids" validate:"required,min=1,dive,gt=0"`
}
