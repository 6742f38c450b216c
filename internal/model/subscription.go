package model

import (
	"errors"
	"strings"
	"time"
)

// SubscriptionType is the kind of entity a user follows.
type SubscriptionType string

const (
	SubscriptionMatch       SubscriptionType = "MATCH"
	SubscriptionTeam        SubscriptionType = "TEAM"
	SubscriptionPlayer      SubscriptionType = "PLAYER"
	SubscriptionCompetition SubscriptionType = "COMPETITION"
)

// Valid reports whether t is one of the known subscription types.
func (t SubscriptionType) Valid() bool {
	switch t {
	case SubscriptionMatch, SubscriptionTeam, SubscriptionPlayer, SubscriptionCompetition:
		return true
	}
	return false
}

// ParseSubscriptionType normalizes and validates a subscription type.
func ParseSubscriptionType(s string) (SubscriptionType, error) {
	t := SubscriptionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewValidationError("subscription_type", "must be one of MATCH, TEAM, PLAYER, COMPETITION")
	}
	return t, nil
}

// Subscription is a user's interest in one entity.
type Subscription struct {
	ID               int64            `db:"id" json:"id"`
	UserID           int64            `db:"user_id" json:"-"`
	SubscriptionType SubscriptionType `db:"subscription_type" json:"subscription_type"`
	EntityID         int64            `db:"entity_id" json:"entity_id"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

// SubscriptionFilter restricts a broadcast audience to subscribers of one entity.
type SubscriptionFilter struct {
	Type     SubscriptionType `json:"subscription_type" validate:"required,oneof=MATCH TEAM PLAYER COMPETITION"`
	EntityID int64            `json:"entity_id" validate:"required,gt=0"`
}

// SubscribeRequest is the request body for subscribe/unsubscribe.
type SubscribeRequest struct {
	SubscriptionType string `json:"subscription_type" validate:"required"`
	EntityID         int64  `json:"entity_id" validate:"required,gt=0"`
}

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
)
