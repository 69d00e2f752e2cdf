package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tour represents a scheduled tour with its itinerary
type Tour struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	DriverID  string    `json:"driverId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ItineraryItem is a single stop on a tour's schedule
type ItineraryItem struct {
	ID        string    `json:"id"`
	TourID    string    `json:"tourId"`
	Day       int       `json:"day"`
	StartTime time.Time `json:"startTime"`
	Location  string    `json:"location"`
	Activity  string    `json:"activity"`
	Notes     string    `json:"notes,omitempty"`
}

// DriverInfo is the driver contact bundle shipped to clients
type DriverInfo struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

// NewTour creates a new tour
func NewTour(name string, startDate, endDate time.Time) (*Tour, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTourName
	}
	if endDate.Before(startDate) {
		return nil, ErrInvalidTourDates
	}

	return &Tour{
		ID:        uuid.New().String(),
		Name:      name,
		StartDate: startDate,
		EndDate:   endDate,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Common tour errors
var (
	ErrEmptyTourName    = fmt.Errorf("tour name is required")
	ErrInvalidTourDates = fmt.Errorf("tour end date precedes start date")
	ErrTourNotFound     = fmt.Errorf("tour not found")
)
