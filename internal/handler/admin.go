package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"matchday/internal/httputil"
	"matchday/internal/model"
)

// NotificationSender runs a send synchronously and reports the fan-out.
type NotificationSender interface {
	SendTargeted(ctx context.Context, req model.TargetedRequest) (*model.DispatchResult, error)
	Broadcast(ctx context.Context, req model.BroadcastRequest) (*model.DispatchResult, error)
	NotifyMatchEvent(ctx context.Context, matchID int64, event model.MatchLifecycleEvent) (*model.DispatchResult, error)
}

// AdminHandler exposes operator sends. Every response carries the DispatchResult.
type AdminHandler struct {
	sender NotificationSender
}

func NewAdminHandler(sender NotificationSender) *AdminHandler {
	return &AdminHandler{sender: sender}
}

// Send handles POST /admin/notifications/send
func (h *AdminHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.TargetedRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.sender.SendTargeted(r.Context(), req)
	if err != nil {
		log.Printf("[ERROR] Admin send: user=%d err=%v", req.UserID, err)
		httputil.WriteServiceError(w, err, "Failed to send notification")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Broadcast handles POST /admin/notifications/broadcast
func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req model.BroadcastRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.sender.Broadcast(r.Context(), req)
	if err != nil {
		log.Printf("[ERROR] Admin broadcast: category=%s err=%v", req.Category, err)
		httputil.WriteServiceError(w, err, "Failed to broadcast notification")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// NotifyMatch handles POST /admin/matches/{id}/notify/{event}
func (h *AdminHandler) NotifyMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := parseIDParam(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid match id")
		return
	}
	event, err := model.ParseMatchLifecycleEvent(chi.URLParam(r, "event"))
	if err != nil {
		httputil.WriteServiceError(w, err, "")
		return
	}

	result, err := h.sender.NotifyMatchEvent(r.Context(), matchID, event)
	if err != nil {
		log.Printf("[ERROR] Admin match notify: match=%d event=%s err=%v", matchID, event, err)
		httputil.WriteServiceError(w, err, "Failed to notify match event")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
