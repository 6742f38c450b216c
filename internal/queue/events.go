package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"matchday/internal/model"
)

// Event types for the notification stream
const (
	EventMatchLifecycle  = "match_lifecycle"
	EventCommentReply    = "comment_reply"
	EventCommentReaction = "comment_reaction"
)

// Stream names
const (
	StreamNotifications = "stream:notifications"
)

// Consumer group name for notification workers
const (
	ConsumerGroupNotifications = "notification_workers"
)

// NotificationEvent is a unit of notification work published to the stream.
// Fields not used by the event type are left empty.
type NotificationEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	// Match lifecycle
	MatchID    int64                     `json:"match_id,omitempty"`
	MatchEvent model.MatchLifecycleEvent `json:"match_event,omitempty"`

	// Comment reply and reaction
	CommentID       int64               `json:"comment_id,omitempty"`
	ParentCommentID int64               `json:"parent_comment_id,omitempty"`
	ActorID         int64               `json:"actor_id,omitempty"`
	ReactionFrom    model.ReactionState `json:"reaction_from,omitempty"`
	ReactionTo      model.ReactionState `json:"reaction_to,omitempty"`
}

// NewMatchLifecycleEvent creates an event for a match reminder, kick-off or full time.
func NewMatchLifecycleEvent(matchID int64, event model.MatchLifecycleEvent) NotificationEvent {
	return NotificationEvent{
		Type:       EventMatchLifecycle,
		Timestamp:  time.Now().Unix(),
		MatchID:    matchID,
		MatchEvent: event,
	}
}

// NewCommentReplyEvent creates an event for a reply posted under parentID.
func NewCommentReplyEvent(parentID, commentID, replierID int64) NotificationEvent {
	return NotificationEvent{
		Type:            EventCommentReply,
		Timestamp:       time.Now().Unix(),
		ParentCommentID: parentID,
		CommentID:       commentID,
		ActorID:         replierID,
	}
}

// NewCommentReactionEvent creates an event for a reaction state change on a comment.
func NewCommentReactionEvent(commentID, reactorID int64, from, to model.ReactionState) NotificationEvent {
	return NotificationEvent{
		Type:         EventCommentReaction,
		Timestamp:    time.Now().Unix(),
		CommentID:    commentID,
		ActorID:      reactorID,
		ReactionFrom: from,
		ReactionTo:   to,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e NotificationEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseNotificationEvent parses a NotificationEvent from Redis stream message values.
func ParseNotificationEvent(values map[string]interface{}) (NotificationEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return NotificationEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event NotificationEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return NotificationEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
