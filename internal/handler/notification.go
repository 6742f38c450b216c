package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"matchday/internal/httputil"
	"matchday/internal/model"
)

// NotificationCenter is the in-app notification list of one user.
type NotificationCenter interface {
	GetNotifications(ctx context.Context, userID int64, cursor *int64, limit int) (*model.NotificationListResponse, error)
	MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) (int64, error)
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
}

type NotificationHandler struct {
	notifService NotificationCenter
}

func NewNotificationHandler(notifService NotificationCenter) *NotificationHandler {
	return &NotificationHandler{
		notifService: notifService,
	}
}

// List handles GET /notifications?cursor=&limit=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cursor, err := queryInt64(r, "cursor")
	if err != nil {
		httputil.WriteServiceError(w, err, "")
		return
	}

	limit := 0 // service default
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	notifications, err := h.notifService.GetNotifications(r.Context(), userID, cursor, limit)
	if err != nil {
		log.Printf("[ERROR] List notifications: user=%d err=%v", userID, err)
		httputil.WriteServiceError(w, err, "Failed to get notifications")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, notifications)
}

// MarkRead handles PATCH /notifications/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.MarkReadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.notifService.MarkAsRead(r.Context(), userID, req.NotificationIDs)
	if err != nil {
		log.Printf("[ERROR] Mark notifications read: user=%d err=%v", userID, err)
		httputil.WriteServiceError(w, err, "Failed to mark notifications as read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// MarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	updated, err := h.notifService.MarkAllAsRead(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Mark all notifications read: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to mark all notifications as read")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// GetUnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.notifService.GetUnreadCount(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Get unread count: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get unread count")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"unread_count": count,
	})
}
