package model

// MatchEventRequest reports a match moment. Either Event is set directly, or
// FromStatus/ToStatus describe a status change mapped through
// LifecycleEventForTransition.
type MatchEventRequest struct {
	MatchID    int64  `json:"match_id" validate:"required,gt=0"`
	Event      string `json:"event" validate:"omitempty,oneof=reminder start end"`
	FromStatus string `json:"from_status" validate:"required_without=Event"`
	ToStatus   string `json:"to_status" validate:"required_without=Event"`
}

// Resolve returns the lifecycle event the request asks for; ok=false when a
// status change triggers nothing.
func (r *MatchEventRequest) Resolve() (event MatchLifecycleEvent, ok bool, err error) {
	if r.Event != "" {
		e, err := ParseMatchLifecycleEvent(r.Event)
		return e, err == nil, err
	}
	e, ok := LifecycleEventForTransition(r.FromStatus, r.ToStatus)
	return e, ok, nil
}

// CommentReplyEventRequest reports a reply posted under a comment.
type CommentReplyEventRequest struct {
	ParentCommentID int64 `json:"parent_comment_id" validate:"required,gt=0"`
	CommentID       int64 `json:"comment_id" validate:"required,gt=0"`
	ReplierID       int64 `json:"replier_id" validate:"required,gt=0"`
}

// CommentReactionEventRequest reports a change of one user's reaction.
type CommentReactionEventRequest struct {
	CommentID int64  `json:"comment_id" validate:"required,gt=0"`
	ReactorID int64  `json:"reactor_id" validate:"required,gt=0"`
	From      string `json:"from"`
	To        string `json:"to" validate:"required"`
}

// States parses both reaction states.
func (r *CommentReactionEventRequest) States() (from, to ReactionState, err error) {
	if from, err = ParseReactionState(r.From); err != nil {
		return "", "", err
	}
	if to, err = ParseReactionState(r.To); err != nil {
		return "", "", err
	}
	return from, to, nil
}
