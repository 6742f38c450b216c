package handler

import (
	"log"
	"net/http"

	"matchday/internal/httputil"
	"matchday/internal/model"
	"matchday/internal/queue"
)

// EventHandler accepts domain events from other services and enqueues them
// for the worker pool. A 202 means the event is durably queued, not delivered.
type EventHandler struct {
	publisher queue.Publisher
	stream    string
}

func NewEventHandler(publisher queue.Publisher) *EventHandler {
	return &EventHandler{publisher: publisher, stream: queue.StreamNotifications}
}

// MatchEvent handles POST /internal/events/match
func (h *EventHandler) MatchEvent(w http.ResponseWriter, r *http.Request) {
	var req model.MatchEventRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	event, ok, err := req.Resolve()
	if err != nil {
		httputil.WriteServiceError(w, err, "")
		return
	}
	if !ok {
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"enqueued": false})
		return
	}

	h.enqueue(w, r, queue.NewMatchLifecycleEvent(req.MatchID, event))
}

// CommentReply handles POST /internal/events/comment-reply
func (h *EventHandler) CommentReply(w http.ResponseWriter, r *http.Request) {
	var req model.CommentReplyEventRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	h.enqueue(w, r, queue.NewCommentReplyEvent(req.ParentCommentID, req.CommentID, req.ReplierID))
}

// CommentReaction handles POST /internal/events/comment-reaction.
// Changes that never notify (e.g. removing a like) are not enqueued.
func (h *EventHandler) CommentReaction(w http.ResponseWriter, r *http.Request) {
	var req model.CommentReactionEventRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	from, to, err := req.States()
	if err != nil {
		httputil.WriteServiceError(w, err, "")
		return
	}
	if _, notify := model.ReactionTransition(from, to); !notify {
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"enqueued": false})
		return
	}

	h.enqueue(w, r, queue.NewCommentReactionEvent(req.CommentID, req.ReactorID, from, to))
}

func (h *EventHandler) enqueue(w http.ResponseWriter, r *http.Request, event queue.NotificationEvent) {
	msgID, err := h.publisher.Publish(r.Context(), h.stream, event)
	if err != nil {
		log.Printf("[ERROR] Enqueue event: type=%s err=%v", event.Type, err)
		httputil.WriteInternalError(w, "Failed to enqueue event")
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
		"enqueued":   true,
		"message_id": msgID,
	})
}
