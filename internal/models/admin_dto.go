package models

import "time"

// CreateTourRequest for POST /api/admin/tours
type CreateTourRequest struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// AddItineraryItemRequest for POST /api/admin/tours/{id}/itinerary
type AddItineraryItemRequest struct {
	Day       int       `json:"day"`
	StartTime time.Time `json:"startTime"`
	Location  string    `json:"location"`
	Activity  string    `json:"activity"`
	Notes     string    `json:"notes,omitempty"`
}

// CreateBookingRequest for POST /api/admin/bookings
type CreateBookingRequest struct {
	Reference  string `json:"reference"`
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`
	TourID     string `json:"tourId"`
	IsDriver   bool   `json:"isDriver"`
}

// CreatePrincipalRequest for POST /api/admin/principals
type CreatePrincipalRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password,omitempty"`
	IsStaff     bool   `json:"isStaff"`
}

// PrincipalCreatedResponse carries the one-time plaintext API key.
// It is never retrievable again; only the hash is stored.
type PrincipalCreatedResponse struct {
	Principal PrincipalResponse `json:"principal"`
	APIKey    string            `json:"apiKey"`
}

// AddParticipantRequest for POST /api/admin/tours/{id}/participants
type AddParticipantRequest struct {
	UserID string `json:"userId"`
}

// StaffLoginRequest for POST /api/auth/staff
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StaffLoginResponse returns the rotated API key for the staff session
type StaffLoginResponse struct {
	Principal PrincipalResponse `json:"principal"`
	APIKey    string            `json:"apiKey"`
}
