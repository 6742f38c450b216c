package handler

import (
	"context"
	"log"
	"net/http"

	"matchday/internal/httputil"
	"matchday/internal/model"
)

// DeviceRegistry manages the push tokens of one user.
type DeviceRegistry interface {
	RegisterToken(ctx context.Context, userID int64, token string, deviceName *string) (int64, error)
	UnregisterToken(ctx context.Context, userID int64, token string) (bool, error)
	ListDevices(ctx context.Context, userID int64) ([]model.DeviceToken, error)
}

type DeviceHandler struct {
	devices DeviceRegistry
}

func NewDeviceHandler(devices DeviceRegistry) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// Register handles POST /devices/token. Registering the same token again
// only refreshes it.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.RegisterTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var deviceName *string
	if req.DeviceName != "" {
		deviceName = &req.DeviceName
	}

	id, err := h.devices.RegisterToken(r.Context(), userID, req.Token, deviceName)
	if err != nil {
		log.Printf("[ERROR] Register device token: user=%d err=%v", userID, err)
		httputil.WriteServiceError(w, err, "Failed to register device token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// Remove handles DELETE /devices/token (e.g. on logout). Removing an unknown
// token succeeds with removed=false.
func (h *DeviceHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.RemoveTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	removed, err := h.devices.UnregisterToken(r.Context(), userID, req.Token)
	if err != nil {
		log.Printf("[ERROR] Remove device token: user=%d err=%v", userID, err)
		httputil.WriteServiceError(w, err, "Failed to remove device token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// List handles GET /devices
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	devices, err := h.devices.ListDevices(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] List devices: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to list devices")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"devices": devices})
}
