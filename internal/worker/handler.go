package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"matchday/internal/metrics"
	"matchday/internal/model"
	"matchday/internal/queue"
)

// ErrUnknownEvent is returned for stream entries with an unrecognised type.
var ErrUnknownEvent = errors.New("unknown event type")

// EventNotifier runs the event assemblers. NotificationService satisfies it;
// the interface keeps the worker free of repository wiring.
type EventNotifier interface {
	NotifyMatchEvent(ctx context.Context, matchID int64, event model.MatchLifecycleEvent) (*model.DispatchResult, error)
	NotifyCommentReply(ctx context.Context, parentCommentID, newCommentID, replierID int64) (*model.DispatchResult, error)
	HandleReactionChange(ctx context.Context, commentID, reactorID int64, from, to model.ReactionState) (*model.DispatchResult, error)
}

// Handler processes notification events from the queue.
type Handler struct {
	notifier EventNotifier
	metrics  *metrics.NotificationMetrics
}

// NewHandler creates a new event handler. m may be nil.
func NewHandler(notifier EventNotifier, m *metrics.NotificationMetrics) *Handler {
	return &Handler{notifier: notifier, metrics: m}
}

// HandleEvent routes an event to the matching assembler.
func (h *Handler) HandleEvent(ctx context.Context, event queue.NotificationEvent) error {
	startTime := time.Now()

	var (
		result *model.DispatchResult
		err    error
	)
	switch event.Type {
	case queue.EventMatchLifecycle:
		result, err = h.notifier.NotifyMatchEvent(ctx, event.MatchID, event.MatchEvent)
	case queue.EventCommentReply:
		result, err = h.notifier.NotifyCommentReply(ctx, event.ParentCommentID, event.CommentID, event.ActorID)
	case queue.EventCommentReaction:
		result, err = h.notifier.HandleReactionChange(ctx, event.CommentID, event.ActorID, event.ReactionFrom, event.ReactionTo)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		h.metrics.RecordEvent(event.Type, "dropped")
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event.Type)
	}

	if err != nil {
		status := "failed"
		if !Retryable(err) {
			status = "dropped"
		}
		h.metrics.RecordEvent(event.Type, status)
		log.Printf("[Worker] HandleEvent FAILED: type=%s status=%s duration=%v err=%v",
			event.Type, status, time.Since(startTime), err)
		return err
	}

	h.metrics.RecordEvent(event.Type, "ok")
	if result != nil {
		log.Printf("[Worker] HandleEvent OK: type=%s dispatch=%s targeted=%d reached=%d duration=%v",
			event.Type, result.DispatchID, result.UsersTargeted, result.UsersReached, time.Since(startTime))
	} else {
		log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	}
	return nil
}

// Retryable reports whether handling the event again could succeed. Bad input
// and missing matches or comments never will.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrUnknownEvent),
		errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrMatchNotFound),
		errors.Is(err, model.ErrCommentNotFound):
		return false
	}
	return true
}
