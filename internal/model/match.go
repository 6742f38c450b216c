package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Match statuses as stored in matches.status
const (
	MatchStatusScheduled = "scheduled"
	MatchStatusLive      = "live"
	MatchStatusFinished  = "finished"
)

// MatchLifecycleEvent is the notification-worthy moment in a match's life.
type MatchLifecycleEvent string

const (
	MatchEventReminder MatchLifecycleEvent = "reminder"
	MatchEventStart    MatchLifecycleEvent = "start"
	MatchEventEnd      MatchLifecycleEvent = "end"
)

// ParseMatchLifecycleEvent validates a lifecycle event name.
func ParseMatchLifecycleEvent(s string) (MatchLifecycleEvent, error) {
	e := MatchLifecycleEvent(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case MatchEventReminder, MatchEventStart, MatchEventEnd:
		return e, nil
	}
	return "", NewValidationError("event", fmt.Sprintf("unknown match event %q", s))
}

// Category returns the preference category gating this lifecycle event.
func (e MatchLifecycleEvent) Category() EventCategory {
	switch e {
	case MatchEventReminder:
		return CategoryMatchReminder
	case MatchEventStart:
		return CategoryMatchStart
	case MatchEventEnd:
		return CategoryMatchEnd
	default:
		return CategoryNone
	}
}

// LifecycleEventForTransition maps a match status change to the event it triggers.
// scheduled→live starts a match; live→finished and scheduled→finished end it.
// Any other change triggers nothing.
func LifecycleEventForTransition(from, to string) (MatchLifecycleEvent, bool) {
	switch {
	case from == MatchStatusScheduled && to == MatchStatusLive:
		return MatchEventStart, true
	case (from == MatchStatusLive || from == MatchStatusScheduled) && to == MatchStatusFinished:
		return MatchEventEnd, true
	default:
		return "", false
	}
}

// TeamSummary is the team data embedded in match context.
type TeamSummary struct {
	ID      int64   `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	LogoURL *string `db:"logo_url" json:"logo_url,omitempty"`
}

// CompetitionSummary is the competition data embedded in match context.
type CompetitionSummary struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// MatchContext is everything an assembler needs to describe a match.
type MatchContext struct {
	ID          int64              `db:"id" json:"id"`
	Status      string             `db:"status" json:"status"`
	KickoffAt   time.Time          `db:"kickoff_at" json:"kickoff_at"`
	Venue       *string            `db:"venue" json:"venue,omitempty"`
	HomeScore   *int               `db:"home_score" json:"home_score,omitempty"`
	AwayScore   *int               `db:"away_score" json:"away_score,omitempty"`
	HomeTeam    TeamSummary        `db:"home" json:"home_team"`
	AwayTeam    TeamSummary        `db:"away" json:"away_team"`
	Competition CompetitionSummary `db:"competition" json:"competition"`
}

// Summary returns the serialized match summary embedded in navigation payloads.
func (m *MatchContext) Summary() map[string]any {
	summary := map[string]any{
		"id":          m.ID,
		"status":      m.Status,
		"kickoffAt":   m.KickoffAt.UTC().Format(time.RFC3339),
		"homeTeam":    map[string]any{"id": m.HomeTeam.ID, "name": m.HomeTeam.Name},
		"awayTeam":    map[string]any{"id": m.AwayTeam.ID, "name": m.AwayTeam.Name},
		"competition": map[string]any{"id": m.Competition.ID, "name": m.Competition.Name},
	}
	if m.HomeScore != nil && m.AwayScore != nil {
		summary["homeScore"] = *m.HomeScore
		summary["awayScore"] = *m.AwayScore
	}
	return summary
}

var (
	ErrMatchNotFound = errors.New("match not found")
)
