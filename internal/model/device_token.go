package model

import (
	"time"
)

// DeviceToken represents a user's registered device for push notifications.
// A user may own several; (user_id, token) is unique.
type DeviceToken struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"-"`
	Token      string    `db:"token" json:"-"` // push token, hidden from JSON
	DeviceName *string   `db:"device_name" json:"device_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterTokenRequest is the request body for registering a device token.
type RegisterTokenRequest struct {
	Token      string `json:"token" validate:"required,max=512"`
	DeviceName string `json:"device_name" validate:"max=128"`
}

// RemoveTokenRequest is the request body for unregistering a device token.
type RemoveTokenRequest struct {
	Token string `json:"token" validate:"required,max=512"`
}
