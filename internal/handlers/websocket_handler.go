package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/repository"
	"github.com/tourlink/server/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now - can be restricted in production
		return true
	},
}

// WebSocketHandler serves the live tour event feed. The feed carries
// the same chat and schedule payloads as the push path, so every
// connection must prove an identity before the upgrade: either a
// principal API key, or the booking credential pair guests log in with.
type WebSocketHandler struct {
	hub          *services.EventHub
	bookings     repository.BookingRepo
	participants repository.ParticipantRepo
	principals   repository.PrincipalRepo
	keyHeader    string
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(
	hub *services.EventHub,
	bookings repository.BookingRepo,
	participants repository.ParticipantRepo,
	principals repository.PrincipalRepo,
	keyHeader string,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		bookings:     bookings,
		participants: participants,
		principals:   principals,
		keyHeader:    keyHeader,
	}
}

// HandleConnection upgrades HTTP to WebSocket and subscribes the client
// to a single tour's feed. Identity and tour membership are checked
// before the upgrade; connections without a verifiable identity are
// rejected.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	tourID := r.URL.Query().Get("tourId")
	if tourID == "" {
		http.Error(w, "tourId query parameter required", http.StatusBadRequest)
		return
	}

	if apiKey := r.Header.Get(h.keyHeader); apiKey != "" {
		if !h.authorizePrincipal(w, r, apiKey, tourID) {
			return
		}
	} else if !h.authorizeBooking(w, r, tourID) {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	clientID := uuid.New().String()
	client := h.hub.NewClient(clientID, conn)

	// Subscribe before registering so the client never misses an event
	// published between the two
	h.hub.Subscribe(client, tourID)
	h.hub.Register(client)

	// Start the write pump in a goroutine
	go client.WritePump()

	// Run the read pump (blocks until connection closes)
	client.ReadPump()
}

// authorizePrincipal admits holders of an active principal API key.
// Staff may watch any tour; everyone else must be on the roster.
func (h *WebSocketHandler) authorizePrincipal(w http.ResponseWriter, r *http.Request, apiKey, tourID string) bool {
	principal, err := h.principals.GetByAPIKeyHash(r.Context(), models.HashAPIKey(apiKey))
	if err != nil {
		http.Error(w, "Failed to verify identity", http.StatusInternalServerError)
		return false
	}
	if principal == nil {
		http.Error(w, "Invalid API key", http.StatusUnauthorized)
		return false
	}
	if !principal.IsActive {
		http.Error(w, "Account is disabled", http.StatusForbidden)
		return false
	}
	if principal.IsStaff {
		return true
	}

	member, err := h.participants.IsParticipant(r.Context(), tourID, principal.UID)
	if err != nil {
		http.Error(w, "Failed to check membership", http.StatusInternalServerError)
		return false
	}
	if !member {
		http.Error(w, "Not a participant of this tour", http.StatusForbidden)
		return false
	}
	return true
}

// authorizeBooking admits guests presenting the same reference and
// email pair the login endpoint accepts, scoped to the booked tour.
func (h *WebSocketHandler) authorizeBooking(w http.ResponseWriter, r *http.Request, tourID string) bool {
	reference := r.URL.Query().Get("reference")
	email := r.URL.Query().Get("email")
	if reference == "" || email == "" {
		http.Error(w, "Credentials required", http.StatusUnauthorized)
		return false
	}

	booking, err := h.bookings.GetByReference(r.Context(), models.NormalizeReference(reference))
	if err != nil {
		http.Error(w, "Failed to verify identity", http.StatusInternalServerError)
		return false
	}
	if booking == nil || booking.GuestEmail != models.NormalizeEmail(email) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return false
	}
	if booking.TourID != tourID {
		http.Error(w, "Not a participant of this tour", http.StatusForbidden)
		return false
	}
	return true
}

// GetHub returns the event hub (for other services to publish events)
func (h *WebSocketHandler) GetHub() *services.EventHub {
	return h.hub
}
