package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/services"
)

// NotifyHandler is the notification trigger entry point. It always
// answers 200 with an accounting summary; a refused or failed fan-out
// is reported in the body, never as a transport error, so the trigger
// infrastructure does not re-invoke the event.
type NotifyHandler struct {
	fanout *services.FanoutService
}

// NewNotifyHandler creates a new NotifyHandler
func NewNotifyHandler(fanout *services.FanoutService) *NotifyHandler {
	return &NotifyHandler{fanout: fanout}
}

// Notify runs the push fan-out for one tour event
// @Summary Notify tour participants
// @Description Fan out a chat or schedule-change event to the tour's registered devices
// @Tags notify
// @Accept json
// @Produce json
// @Param request body models.NotifyRequest true "Event"
// @Success 200 {object} models.NotifyResponse
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/notify [post]
func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req models.NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	result := h.fanout.HandleEvent(r.Context(), services.FanoutEvent{
		TourID: req.TourID,
		Claim:  req.Claim,
	})

	response := models.NotifyResponse{
		Dispatched: result.Dispatched,
		Recipients: result.Recipients,
		Success:    result.SuccessCount,
		Errors:     result.ErrorCount,
		ElapsedMs:  result.Elapsed.Milliseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
