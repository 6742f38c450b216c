package model

import (
	"errors"
)

// UserSummary is the part of a user the notification pipeline needs to
// describe who did something ("alice replied to your comment").
type UserSummary struct {
	ID          int64   `db:"id" json:"id"`
	Username    string  `db:"username" json:"username"`
	DisplayName *string `db:"display_name" json:"display_name"`
}

// Name returns the display name when set, otherwise the username.
func (u *UserSummary) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Username
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")
)
