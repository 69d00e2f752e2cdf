package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tourlink/server/internal/middleware"
	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/repository"
)

// DeviceHandler handles device registration endpoints
type DeviceHandler struct {
	deviceRepo repository.DeviceRepo
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(deviceRepo repository.DeviceRepo) *DeviceHandler {
	return &DeviceHandler{
		deviceRepo: deviceRepo,
	}
}

// RegisterDevice registers a new device for push notifications
// @Summary Register device
// @Description Register a device for push notifications
// @Tags devices
// @Accept json
// @Produce json
// @Param request body models.RegisterDeviceRequest true "Device info"
// @Success 200 {object} models.DeviceResponse
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/devices/register [post]
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !models.ValidPushToken(req.PushToken) {
		http.Error(w, "Push token is malformed", http.StatusBadRequest)
		return
	}

	device, err := models.NewDevice(principal.UID, req.DeviceName, req.Platform, req.PushToken)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.deviceRepo.Add(r.Context(), device); err != nil {
		http.Error(w, "Failed to register device", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(device.ToResponse())
}

// ListDevices returns all active devices for the current principal
// @Summary List devices
// @Description List active registered devices
// @Tags devices
// @Produce json
// @Success 200 {array} models.DeviceResponse
// @Security ApiKeyAuth
// @Router /api/devices [get]
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	devices, err := h.deviceRepo.GetActiveForUser(r.Context(), principal.UID)
	if err != nil {
		http.Error(w, "Failed to list devices", http.StatusInternalServerError)
		return
	}

	responses := make([]models.DeviceResponse, 0, len(devices))
	for _, d := range devices {
		responses = append(responses, d.ToResponse())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// UpdateToken replaces a device's push token
// @Summary Update push token
// @Description Replace the push token of a registered device
// @Tags devices
// @Accept json
// @Param id path string true "Device ID"
// @Param request body models.UpdateTokenRequest true "New token"
// @Success 200 {object} models.DeviceResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/devices/{id}/token [put]
func (h *DeviceHandler) UpdateToken(w http.ResponseWriter, r *http.Request) {
	device := h.ownedDevice(w, r)
	if device == nil {
		return
	}

	var req models.UpdateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !models.ValidPushToken(req.PushToken) {
		http.Error(w, "Push token is malformed", http.StatusBadRequest)
		return
	}

	patch := models.NewPatchSet().
		Set("pushToken", req.PushToken).
		Set("lastSeenAt", time.Now().UTC()).
		Set("isActive", true)
	if err := h.deviceRepo.ApplyPatch(r.Context(), device.ID, patch); err != nil {
		http.Error(w, "Failed to update device", http.StatusInternalServerError)
		return
	}

	device.PushToken = req.PushToken
	device.IsActive = true

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(device.ToResponse())
}

// UpdateNotifications replaces a device's notification preferences
// @Summary Update notification preferences
// @Description Replace the per-category notification switches of a device
// @Tags devices
// @Accept json
// @Param id path string true "Device ID"
// @Param request body models.UpdateNotificationsRequest true "Preferences"
// @Success 200 {object} models.DeviceResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/devices/{id}/notifications [put]
func (h *DeviceHandler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	device := h.ownedDevice(w, r)
	if device == nil {
		return
	}

	var req models.UpdateNotificationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Notifications == nil {
		http.Error(w, "Notifications map is required", http.StatusBadRequest)
		return
	}

	patch := models.NewPatchSet().Set("notifications", req.Notifications)
	if err := h.deviceRepo.ApplyPatch(r.Context(), device.ID, patch); err != nil {
		http.Error(w, "Failed to update device", http.StatusInternalServerError)
		return
	}

	device.Notifications = req.Notifications

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(device.ToResponse())
}

// DeactivateDevice removes a device from the push registry
// @Summary Deactivate device
// @Description Stop sending pushes to a registered device
// @Tags devices
// @Param id path string true "Device ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/devices/{id} [delete]
func (h *DeviceHandler) DeactivateDevice(w http.ResponseWriter, r *http.Request) {
	device := h.ownedDevice(w, r)
	if device == nil {
		return
	}

	patch := models.NewPatchSet().Set("isActive", false)
	if err := h.deviceRepo.ApplyPatch(r.Context(), device.ID, patch); err != nil {
		http.Error(w, "Failed to deactivate device", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// ownedDevice loads the device named in the URL and checks it belongs
// to the requesting principal. Writes the error response itself and
// returns nil when the request should not proceed.
func (h *DeviceHandler) ownedDevice(w http.ResponseWriter, r *http.Request) *models.Device {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil
	}

	deviceID := chi.URLParam(r, "id")
	if deviceID == "" {
		http.Error(w, "Device ID is required", http.StatusBadRequest)
		return nil
	}

	device, err := h.deviceRepo.GetByID(r.Context(), deviceID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return nil
	}
	if device == nil || device.UserID != principal.UID {
		http.Error(w, "Device not found", http.StatusNotFound)
		return nil
	}
	return device
}
