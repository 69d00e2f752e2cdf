package models

import (
	"fmt"
	"strings"
	"time"
)

// Booking represents a guest's reservation on a tour. The booking
// reference plus guest email is the credential pair used for login.
type Booking struct {
	Reference  string    `json:"reference"`
	GuestName  string    `json:"guestName"`
	GuestEmail string    `json:"guestEmail"`
	TourID     string    `json:"tourId"`
	IsDriver   bool      `json:"isDriver"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BookingResponse is the safe response format
type BookingResponse struct {
	Reference string `json:"reference"`
	GuestName string `json:"guestName"`
	TourID    string `json:"tourId"`
	IsDriver  bool   `json:"isDriver"`
}

// NewBooking creates a booking with normalized reference and email
func NewBooking(reference, guestName, guestEmail, tourID string, isDriver bool) (*Booking, error) {
	reference = NormalizeReference(reference)
	guestName = strings.TrimSpace(guestName)
	guestEmail = NormalizeEmail(guestEmail)

	if reference == "" {
		return nil, ErrEmptyReference
	}
	if guestEmail == "" {
		return nil, ErrEmptyEmail
	}
	if tourID == "" {
		return nil, ErrEmptyTourID
	}

	return &Booking{
		Reference:  reference,
		GuestName:  guestName,
		GuestEmail: guestEmail,
		TourID:     tourID,
		IsDriver:   isDriver,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// ToResponse converts Booking to BookingResponse (no email)
func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		Reference: b.Reference,
		GuestName: b.GuestName,
		TourID:    b.TourID,
		IsDriver:  b.IsDriver,
	}
}

// NormalizeReference trims and upper-cases a booking reference.
// References are human-transcribed codes, so casing is never significant.
func NormalizeReference(reference string) string {
	return strings.ToUpper(strings.TrimSpace(reference))
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Common booking errors
var (
	ErrEmptyReference  = fmt.Errorf("booking reference is required")
	ErrEmptyEmail      = fmt.Errorf("email is required")
	ErrEmptyTourID     = fmt.Errorf("tour ID is required")
	ErrBookingNotFound = fmt.Errorf("booking not found")
)
