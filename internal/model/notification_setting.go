package model

import (
	"fmt"
	"time"
)

// NotificationSetting is the stored per-user preference row.
type NotificationSetting struct {
	UserID int64 `db:"user_id" json:"-"`

	MatchStart         bool `db:"match_start" json:"match_start"`
	MatchEnd           bool `db:"match_end" json:"match_end"`
	MatchReminders     bool `db:"match_reminders" json:"match_reminders"`
	Goals              bool `db:"goals" json:"goals"`
	Cards              bool `db:"cards" json:"cards"`
	Penalties          bool `db:"penalties" json:"penalties"`
	Lineups            bool `db:"lineups" json:"lineups"`
	TeamNews           bool `db:"team_news" json:"team_news"`
	News               bool `db:"news" json:"news"`
	Transfers          bool `db:"transfers" json:"transfers"`
	CompetitionUpdates bool `db:"competition_updates" json:"competition_updates"`
	PlayerStats        bool `db:"player_stats" json:"player_stats"`
	CommentReplies     bool `db:"comment_replies" json:"comment_replies"`
	CommentLikes       bool `db:"comment_likes" json:"comment_likes"`
	Mentions           bool `db:"mentions" json:"mentions"`

	PushEnabled  bool `db:"push_enabled" json:"push_enabled"`
	EmailEnabled bool `db:"email_enabled" json:"email_enabled"`

	// Quiet hours as "HH:MM" in the server's quiet-hours time zone.
	QuietHoursStart *string `db:"quiet_hours_start" json:"quiet_hours_start"`
	QuietHoursEnd   *string `db:"quiet_hours_end" json:"quiet_hours_end"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultNotificationSetting returns the opt-in-to-everything setting used for
// users that never configured their preferences.
func DefaultNotificationSetting(userID int64) NotificationSetting {
	return NotificationSetting{
		UserID:             userID,
		MatchStart:         true,
		MatchEnd:           true,
		MatchReminders:     true,
		Goals:              true,
		Cards:              true,
		Penalties:          true,
		Lineups:            true,
		TeamNews:           true,
		News:               true,
		Transfers:          true,
		CompetitionUpdates: true,
		PlayerStats:        true,
		CommentReplies:     true,
		CommentLikes:       true,
		Mentions:           true,
		PushEnabled:        true,
		EmailEnabled:       true,
	}
}

// Allows returns the flag gating category c. CategoryNone is always allowed.
func (s *NotificationSetting) Allows(c EventCategory) bool {
	switch c {
	case CategoryNone:
		return true
	case CategoryMatchStart:
		return s.MatchStart
	case CategoryMatchEnd:
		return s.MatchEnd
	case CategoryMatchReminder:
		return s.MatchReminders
	case CategoryGoal:
		return s.Goals
	case CategoryCard:
		return s.Cards
	case CategoryPenalty:
		return s.Penalties
	case CategoryLineup:
		return s.Lineups
	case CategoryTeamNews:
		return s.TeamNews
	case CategoryNews:
		return s.News
	case CategoryTransfer:
		return s.Transfers
	case CategoryCompetitionUpdate:
		return s.CompetitionUpdates
	case CategoryPlayerStats:
		return s.PlayerStats
	case CategoryCommentReply:
		return s.CommentReplies
	case CategoryCommentLike, CategoryCommentDislike:
		return s.CommentLikes
	case CategoryMention:
		return s.Mentions
	default:
		return false
	}
}

// QuietHours returns the configured quiet-hours window, if any.
func (s *NotificationSetting) QuietHours() (QuietHours, bool) {
	if s.QuietHoursStart == nil || s.QuietHoursEnd == nil {
		return QuietHours{}, false
	}
	qh, err := ParseQuietHours(*s.QuietHoursStart, *s.QuietHoursEnd)
	if err != nil {
		return QuietHours{}, false
	}
	return qh, true
}

// Settings is the resolved preference state of a user: either DefaultSettings
// (no row stored) or ConfiguredSettings (row found).
type Settings interface {
	Allows(c EventCategory) bool
	PushEnabled() bool
	InQuietHours(t time.Time) bool
	Setting() NotificationSetting
}

// DefaultSettings is the variant for users without a stored row.
type DefaultSettings struct {
	UserID int64
}

func (d DefaultSettings) Allows(EventCategory) bool { return true }
func (d DefaultSettings) PushEnabled() bool { return true }
func (d DefaultSettings) InQuietHours(time.Time) bool { return false }
func (d DefaultSettings) Setting() NotificationSetting {
	return DefaultNotificationSetting(d.UserID)
}

// ConfiguredSettings is the variant for users with a stored row.
type ConfiguredSettings struct {
	Row NotificationSetting
}

func (c ConfiguredSettings) Allows(cat EventCategory) bool { return c.Row.Allows(cat) }
func (c ConfiguredSettings) PushEnabled() bool { return c.Row.PushEnabled }
func (c ConfiguredSettings) InQuietHours(t time.Time) bool {
	qh, ok := c.Row.QuietHours()
	return ok && qh.Contains(t)
}
func (c ConfiguredSettings) Setting() NotificationSetting { return c.Row }

// QuietHours is a daily time-of-day window. Start > End wraps past midnight.
type QuietHours struct {
	StartMinute int
	EndMinute   int
}

// ParseQuietHours parses two "HH:MM" values.
func ParseQuietHours(start, end string) (QuietHours, error) {
	s, err := parseClock(start)
	if err != nil {
		return QuietHours{}, fmt.Errorf("quiet_hours_start: %w", err)
	}
	e, err := parseClock(end)
	if err != nil {
		return QuietHours{}, fmt.Errorf("quiet_hours_end: %w", err)
	}
	return QuietHours{StartMinute: s, EndMinute: e}, nil
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Contains reports whether t's wall clock falls inside the window.
// An empty window (start == end) never matches.
func (q QuietHours) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	switch {
	case q.StartMinute == q.EndMinute:
		return false
	case q.StartMinute < q.EndMinute:
		return m >= q.StartMinute && m < q.EndMinute
	default:
		return m >= q.StartMinute || m < q.EndMinute
	}
}

// UpdateNotificationSettingRequest is a partial update; nil fields are left unchanged.
type UpdateNotificationSettingRequest struct {
	MatchStart         *bool `json:"match_start"`
	MatchEnd           *bool `json:"match_end"`
	MatchReminders     *bool `json:"match_reminders"`
	Goals              *bool `json:"goals"`
	Cards              *bool `json:"cards"`
	Penalties          *bool `json:"penalties"`
	Lineups            *bool `json:"lineups"`
	TeamNews           *bool `json:"team_news"`
	News               *bool `json:"news"`
	Transfers          *bool `json:"transfers"`
	CompetitionUpdates *bool `json:"competition_updates"`
	PlayerStats        *bool `json:"player_stats"`
	CommentReplies     *bool `json:"comment_replies"`
	CommentLikes       *bool `json:"comment_likes"`
	Mentions           *bool `json:"mentions"`
	PushEnabled        *bool `json:"push_enabled"`
	EmailEnabled       *bool `json:"email_enabled"`

	QuietHoursStart *string `json:"quiet_hours_start" validate:"omitempty,datetime=15:04"`
	QuietHoursEnd   *string `json:"quiet_hours_end" validate:"omitempty,datetime=15:04"`
	ClearQuietHours bool    `json:"clear_quiet_hours"`
}

// Apply merges the request into s.
func (r *UpdateNotificationSettingRequest) Apply(s *NotificationSetting) {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.MatchStart, r.MatchStart)
	set(&s.MatchEnd, r.MatchEnd)
	set(&s.MatchReminders, r.MatchReminders)
	set(&s.Goals, r.Goals)
	set(&s.Cards, r.Cards)
	set(&s.Penalties, r.Penalties)
	set(&s.Lineups, r.Lineups)
	set(&s.TeamNews, r.TeamNews)
	set(&s.News, r.News)
	set(&s.Transfers, r.Transfers)
	set(&s.CompetitionUpdates, r.CompetitionUpdates)
	set(&s.PlayerStats, r.PlayerStats)
	set(&s.CommentReplies, r.CommentReplies)
	set(&s.CommentLikes, r.CommentLikes)
	set(&s.Mentions, r.Mentions)
	set(&s.PushEnabled, r.PushEnabled)
	set(&s.EmailEnabled, r.EmailEnabled)

	if r.ClearQuietHours {
		s.QuietHoursStart = nil
		s.QuietHoursEnd = nil
		return
	}
	if r.QuietHoursStart != nil {
		s.QuietHoursStart = r.QuietHoursStart
	}
	if r.QuietHoursEnd != nil {
		s.QuietHoursEnd = r.QuietHoursEnd
	}
}
