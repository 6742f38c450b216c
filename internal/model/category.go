package model

import (
	"fmt"
	"strings"
)

// EventCategory identifies the kind of event a notification is about.
// Every category maps to exactly one preference column in notification_settings.
type EventCategory int

const (
	// CategoryNone is used for targeted sends that are not tied to a preference flag.
	// Only the global push gate applies to it.
	CategoryNone EventCategory = iota
	CategoryMatchStart
	CategoryMatchEnd
	CategoryMatchReminder
	CategoryGoal
	CategoryCard
	CategoryPenalty
	CategoryLineup
	CategoryTeamNews
	CategoryNews
	CategoryTransfer
	CategoryCompetitionUpdate
	CategoryPlayerStats
	CategoryCommentReply
	CategoryCommentLike
	CategoryCommentDislike
	CategoryMention
)

// AllCategories lists every real category (CategoryNone excluded).
var AllCategories = []EventCategory{
	CategoryMatchStart,
	CategoryMatchEnd,
	CategoryMatchReminder,
	CategoryGoal,
	CategoryCard,
	CategoryPenalty,
	CategoryLineup,
	CategoryTeamNews,
	CategoryNews,
	CategoryTransfer,
	CategoryCompetitionUpdate,
	CategoryPlayerStats,
	CategoryCommentReply,
	CategoryCommentLike,
	CategoryCommentDislike,
	CategoryMention,
}

// String returns the wire name, which is also stored as notifications.type.
func (c EventCategory) String() string {
	switch c {
	case CategoryNone:
		return "GENERAL"
	case CategoryMatchStart:
		return "MATCH_START"
	case CategoryMatchEnd:
		return "MATCH_END"
	case CategoryMatchReminder:
		return "MATCH_REMINDER"
	case CategoryGoal:
		return "GOAL"
	case CategoryCard:
		return "CARD"
	case CategoryPenalty:
		return "PENALTY"
	case CategoryLineup:
		return "LINEUP"
	case CategoryTeamNews:
		return "TEAM_NEWS"
	case CategoryNews:
		return "NEWS"
	case CategoryTransfer:
		return "TRANSFER"
	case CategoryCompetitionUpdate:
		return "COMPETITION_UPDATE"
	case CategoryPlayerStats:
		return "PLAYER_STATS"
	case CategoryCommentReply:
		return "COMMENT_REPLY"
	case CategoryCommentLike:
		return "COMMENT_LIKE"
	case CategoryCommentDislike:
		return "COMMENT_DISLIKE"
	case CategoryMention:
		return "MENTION"
	default:
		return fmt.Sprintf("EventCategory(%d)", int(c))
	}
}

// ParseEventCategory parses the wire name of a category (case-insensitive).
func ParseEventCategory(s string) (EventCategory, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == CategoryNone.String() {
		return CategoryNone, nil
	}
	for _, c := range AllCategories {
		if c.String() == name {
			return c, nil
		}
	}
	return CategoryNone, &ValidationError{
		Field:   "category",
		Message: fmt.Sprintf("unknown category %q", s),
		Err:     ErrInvalidCategory,
	}
}

// SettingColumn returns the notification_settings column that gates this category.
// Like and dislike share comment_likes; there is no separate dislike flag.
func (c EventCategory) SettingColumn() string {
	switch c {
	case CategoryMatchStart:
		return "match_start"
	case CategoryMatchEnd:
		return "match_end"
	case CategoryMatchReminder:
		return "match_reminders"
	case CategoryGoal:
		return "goals"
	case CategoryCard:
		return "cards"
	case CategoryPenalty:
		return "penalties"
	case CategoryLineup:
		return "lineups"
	case CategoryTeamNews:
		return "team_news"
	case CategoryNews:
		return "news"
	case CategoryTransfer:
		return "transfers"
	case CategoryCompetitionUpdate:
		return "competition_updates"
	case CategoryPlayerStats:
		return "player_stats"
	case CategoryCommentReply:
		return "comment_replies"
	case CategoryCommentLike, CategoryCommentDislike:
		return "comment_likes"
	case CategoryMention:
		return "mentions"
	default:
		return ""
	}
}

// Broadcastable reports whether the category may be sent to a computed audience.
// Interactive categories (replies, reactions, mentions) are always targeted.
func (c EventCategory) Broadcastable() bool {
	switch c {
	case CategoryMatchStart, CategoryMatchEnd, CategoryMatchReminder,
		CategoryGoal, CategoryCard, CategoryPenalty, CategoryLineup,
		CategoryTeamNews, CategoryNews, CategoryTransfer,
		CategoryCompetitionUpdate, CategoryPlayerStats:
		return true
	case CategoryNone, CategoryCommentReply, CategoryCommentLike,
		CategoryCommentDislike, CategoryMention:
		return false
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c EventCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *EventCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseEventCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
