package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"matchday/internal/httputil"
	"matchday/internal/model"
)

// SettingsStore reads and updates notification preferences.
type SettingsStore interface {
	Get(ctx context.Context, userID int64) (*model.NotificationSetting, error)
	Update(ctx context.Context, userID int64, req *model.UpdateNotificationSettingRequest) (*model.NotificationSetting, error)
}

// SubscriptionStore manages followed entities.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, userID int64, subType string, entityID int64) (bool, error)
	Unsubscribe(ctx context.Context, userID int64, subType string, entityID int64) error
	List(ctx context.Context, userID int64) ([]model.Subscription, error)
}

type SettingsHandler struct {
	settings      SettingsStore
	subscriptions SubscriptionStore
}

func NewSettingsHandler(settings SettingsStore, subscriptions SubscriptionStore) *SettingsHandler {
	return &SettingsHandler{settings: settings, subscriptions: subscriptions}
}

// Get handles GET /notification-settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	s, err := h.settings.Get(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Get settings: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get notification settings")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s)
}

// Update handles PATCH /notification-settings. Omitted fields keep their value.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateNotificationSettingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.settings.Update(r.Context(), userID, &req)
	if err != nil {
		log.Printf("[ERROR] Update settings: user=%d err=%v", userID, err)
		httputil.WriteServiceError(w, err, "Failed to update notification settings")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s)
}

// ListSubscriptions handles GET /subscriptions
func (h *SettingsHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	subs, err := h.subscriptions.List(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] List subscriptions: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to list subscriptions")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

// Subscribe handles POST /subscriptions. 201 when created, 200 when it existed.
func (h *SettingsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.SubscribeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.subscriptions.Subscribe(r.Context(), userID, req.SubscriptionType, req.EntityID)
	if err != nil {
		httputil.WriteServiceError(w, err, "Failed to subscribe")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, map[string]bool{"created": created})
}

// Unsubscribe handles DELETE /subscriptions/{type}/{entityID}
func (h *SettingsHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	entityID, err := parseIDParam(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid entity id")
		return
	}

	if err := h.subscriptions.Unsubscribe(r.Context(), userID, chi.URLParam(r, "type"), entityID); err != nil {
		httputil.WriteServiceError(w, err, "Failed to unsubscribe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
