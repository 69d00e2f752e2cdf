package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tourlink/server/internal/middleware"
	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/services"
)

// AdminHandler exposes the operator write path: tours, itineraries,
// bookings, principals, and rosters. Every endpoint requires a staff
// principal.
type AdminHandler struct {
	adminService *services.AdminService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// requireStaff resolves the authenticated principal and rejects
// non-staff callers. Returns nil after writing the error response.
func (h *AdminHandler) requireStaff(w http.ResponseWriter, r *http.Request) *models.Principal {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil
	}
	if !principal.IsStaff {
		http.Error(w, "Staff access required", http.StatusForbidden)
		return nil
	}
	return principal
}

// CreateTour creates a new tour
// @Summary Create tour
// @Description Create a new tour
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.CreateTourRequest true "Tour info"
// @Success 200 {object} models.Tour
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/admin/tours [post]
func (h *AdminHandler) CreateTour(w http.ResponseWriter, r *http.Request) {
	if h.requireStaff(w, r) == nil {
		return
	}

	var req models.CreateTourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tour, err := h.adminService.CreateTour(r.Context(), req.Name, req.StartDate, req.EndDate)
	if err != nil {
		if errors.Is(err, models.ErrEmptyTourName) || errors.Is(err, models.ErrInvalidTourDates) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create tour", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tour)
}

// AddItineraryItem appends a stop to a tour's schedule
// @Summary Add itinerary item
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Param request body models.AddItineraryItemRequest true "Itinerary stop"
// @Success 200 {object} models.ItineraryItem
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/admin/tours/{id}/itinerary [post]
func (h *AdminHandler) AddItineraryItem(w http.ResponseWriter, r *http.Request) {
	if h.requireStaff(w, r) == nil {
		return
	}

	var req models.AddItineraryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.adminService.AddItineraryItem(r.Context(), chi.URLParam(r, "id"),
		req.Day, req.StartTime, req.Location, req.Activity, req.Notes)
	if err != nil {
		if errors.Is(err, models.ErrTourNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to add itinerary item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

// SetDriverInfo creates or replaces a tour's driver contact bundle
// @Summary Set driver info
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Param request body models.DriverInfo true "Driver contact"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/admin/tours/{id}/driver [put]
func (h *AdminHandler) SetDriverInfo(w http.ResponseWriter, r *http.Request) {
	if h.requireStaff(w, r) == nil {
		return
	}

	var info models.DriverInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.adminService.SetDriverInfo(r.Context(), chi.URLParam(r, "id"), &info); err != nil {
		if errors.Is(err, models.ErrTourNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to set driver info", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateBooking creates a guest booking on a tour
// @Summary Create booking
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.CreateBookingRequest true "Booking info"
// @Success 200 {object} models.BookingResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/admin/bookings [post]
func (h *AdminHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	if h.requireStaff(w, r) == nil {
		return
	}

	var req models.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	booking, err := h.adminService.CreateBooking(r.Context(),
		req.Reference, req.GuestName, req.GuestEmail, req.TourID, req.IsDriver)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTourNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, models.ErrEmptyReference),
			errors.Is(err, models.ErrEmptyEmail),
			errors.Is(err, models.ErrEmptyTourID):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to create booking", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking.ToResponse())
}

// GetBooking looks up a booking by reference
// @Summary Get booking
// @Tags admin
// @Produce json
// @Param reference path string true "Booking reference"
// @Success 200 {object} models.BookingResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/admin/bookings/{reference} [get]
func (h *AdminHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	if h.requireStaff(w, r) == nil {
		return
	}

	booking, err := h.adminService.GetBooking(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		if errors.Is(err, models.ErrBookingNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to look up booking", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking.ToResponse())
}

// CreatePrincipal creates a principal and returns its one-time API key
// @Summary Create principal
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.CreatePrincipalRequest true "Principal info"
// @Success 200 {object} models.PrincipalCreatedResponse
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/admin/principals [post]
func (h *AdminHandler) CreatePrincipal(w http.ResponseWriter, r *http.Request) {
	if h.requireStaff(w, r) == nil {
		return
	}

	var req models.CreatePrincipalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	principal, apiKey, err := h.adminService.CreatePrincipal(r.Context(),
		req.Email, req.DisplayName, req.Password, req.IsStaff)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmptyEmail),
			errors.Is(err, models.ErrEmptyDisplayName),
			errors.Is(err, models.ErrPasswordTooShort):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to create principal", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.PrincipalCreatedResponse{
		Principal: principal.ToResponse(),
		APIKey:    apiKey,
	})
}

// AddParticipant puts a principal on a tour's roster
// @Summary Add tour participant
// @Tags admin
// @Accept json
// @Param id path string true "Tour ID"
// @Param request body models.AddParticipantRequest true "Participant"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/admin/tours/{id}/participants [post]
func (h *AdminHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	if h.requireStaff(w, r) == nil {
		return
	}

	var req models.AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.adminService.AddParticipant(r.Context(), chi.URLParam(r, "id"), req.UserID); err != nil {
		switch {
		case errors.Is(err, models.ErrTourNotFound), errors.Is(err, models.ErrPrincipalNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, models.ErrPrincipalDisabled):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			http.Error(w, "Failed to add participant", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StaffLogin exchanges staff email and password for a fresh API key
// @Summary Staff login
// @Description Authenticate with email and password; rotates the API key
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.StaffLoginRequest true "Credentials"
// @Success 200 {object} models.StaffLoginResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/staff [post]
func (h *AdminHandler) StaffLogin(w http.ResponseWriter, r *http.Request) {
	var req models.StaffLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	principal, apiKey, err := h.adminService.StaffLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrPrincipalNotFound):
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		case errors.Is(err, models.ErrPrincipalDisabled):
			http.Error(w, "Account disabled", http.StatusForbidden)
		default:
			http.Error(w, "Login failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.StaffLoginResponse{
		Principal: principal.ToResponse(),
		APIKey:    apiKey,
	})
}
